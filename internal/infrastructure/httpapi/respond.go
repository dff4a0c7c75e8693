package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	domcart "github.com/Zhima-Mochi/shopcore/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/shopcore/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shopcore/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/shopcore/internal/domain/payment"
)

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domcatalog.InsufficientStockError
	var gatewayErr *dompayment.GatewayError

	switch {
	case errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, domcart.ErrNotFound),
		errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dompayment.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &stockErr),
		errors.Is(err, domcart.ErrEmpty),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domcatalog.ErrInvalidPrice),
		errors.Is(err, domcatalog.ErrInvalidStock),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, dompayment.ErrSignatureMismatch):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domorder.ErrInvalidTransition),
		errors.Is(err, dompayment.ErrInvalidTransition),
		errors.Is(err, dompayment.ErrAlreadyExists),
		errors.Is(err, dompayment.ErrOrderNotPayable),
		errors.Is(err, domorder.ErrConflict),
		errors.Is(err, dompayment.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.As(err, &gatewayErr):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

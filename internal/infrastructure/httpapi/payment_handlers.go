package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dompayment "github.com/Zhima-Mochi/shopcore/internal/domain/payment"
)

type paymentResponse struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Amount           string            `json:"amount"`
	Currency         string            `json:"currency"`
	Status           dompayment.Status `json:"status"`
	GatewayOrderID   string            `json:"gateway_order_id"`
	GatewayPaymentID string            `json:"gateway_payment_id,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func toPaymentResponse(p *dompayment.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount.String(),
		Currency:         p.Currency,
		Status:           p.Status,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		FailureReason:    p.FailureReason,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type createPaymentRequest struct {
	OrderID string `json:"order_id"`
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	payment, err := h.paymentService.CreatePayment(r.Context(), req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

func (h *Handler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	payment, err := h.paymentService.VerifyPayment(r.Context(), req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *Handler) handleGetPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentService.GetByOrderID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appcart "github.com/Zhima-Mochi/shopcore/internal/application/cart"
)

var errMissingUserID = errors.New("missing " + headerUserID + " header")

type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type cartResponse struct {
	UserID      string             `json:"user_id"`
	Lines       []cartLineResponse `json:"lines"`
	TotalItems  int                `json:"total_items"`
	TotalAmount string             `json:"total_amount"`
}

func toCartLineResponse(line *appcart.Line) cartLineResponse {
	return cartLineResponse{
		ProductID: line.ProductID,
		Name:      line.Name,
		Price:     line.Price.String(),
		Quantity:  line.Quantity,
		Subtotal:  line.Subtotal.String(),
	}
}

func toCartResponse(c *appcart.Cart) cartResponse {
	out := cartResponse{
		UserID:      c.UserID,
		Lines:       make([]cartLineResponse, 0, len(c.Lines)),
		TotalItems:  c.TotalItems,
		TotalAmount: c.TotalAmount.String(),
	}
	for i := range c.Lines {
		out.Lines = append(out.Lines, toCartLineResponse(&c.Lines[i]))
	}
	return out
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.cartService.AddItem(r.Context(), uid, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartLineResponse(line))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.cartService.UpdateQuantity(r.Context(), uid, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartLineResponse(line))
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	if err := h.cartService.RemoveItem(r.Context(), uid, chi.URLParam(r, "productID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	if err := h.cartService.Clear(r.Context(), uid); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

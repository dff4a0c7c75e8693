package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domorder "github.com/Zhima-Mochi/shopcore/internal/domain/order"
)

type orderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Subtotal  string `json:"subtotal"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     string              `json:"total_amount"`
	Status          domorder.Status     `json:"status"`
	ShippingAddress string              `json:"shipping_address,omitempty"`
	GatewayOrderID  string              `json:"gateway_order_id,omitempty"`
	FailureReason   string              `json:"failure_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price.String(),
			Subtotal:  item.Subtotal.String(),
		})
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount.String(),
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		GatewayOrderID:  o.GatewayOrderID,
		FailureReason:   o.FailureReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.orderService.Checkout(r.Context(), uid, req.ShippingAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, errMissingUserID)
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

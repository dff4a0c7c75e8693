package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Zhima-Mochi/shopcore/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/shopcore/internal/pkg/logging"
)

const headerGatewaySignature = "X-Gateway-Signature"

const maxWebhookBody = 64 << 10

const (
	webhookEventCaptured   = "payment.captured"
	webhookEventAuthorized = "payment.authorized"
	webhookEventFailed     = "payment.failed"
)

// webhookEnvelope mirrors the gateway's notification payload.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// handlePaymentWebhook authenticates the gateway's notification against the
// webhook secret before parsing it. The signature covers the raw body, so the
// body is read before any decoding. Unknown events are acknowledged so the
// gateway stops retrying them.
func (h *Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context()).With("component", "payment_webhook")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("unreadable body"))
		return
	}

	signature := r.Header.Get(headerGatewaySignature)
	if signature == "" || !gateway.VerifySignature(string(body), signature, h.webhookSecret) {
		logger.Warnw("webhook_signature_rejected", "has_signature", signature != "")
		writeError(w, http.StatusBadRequest, errors.New("invalid webhook signature"))
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("malformed webhook payload"))
		return
	}

	entity := envelope.Payload.Payment.Entity

	switch envelope.Event {
	case webhookEventCaptured:
		err = h.paymentService.HandleWebhookCapture(r.Context(), entity.OrderID, entity.ID)
	case webhookEventAuthorized:
		// Authorization precedes capture; nothing to settle yet.
		logger.Infow("webhook_payment_authorized", "gateway_order_id", entity.OrderID, "gateway_payment_id", entity.ID)
	case webhookEventFailed:
		err = h.paymentService.HandleWebhookFailure(r.Context(), entity.OrderID, entity.ErrorDescription)
	default:
		logger.Infow("webhook_event_ignored", "event", envelope.Event)
	}

	if err != nil {
		logger.Errorw("webhook_processing_failed", "event", envelope.Event,
			"gateway_order_id", entity.OrderID, "error", err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

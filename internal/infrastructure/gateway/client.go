package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the payment gateway's order API over REST with basic auth.
// It implements the payment.Gateway port.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: timeout},
	}
}

type createIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createIntentResponse struct {
	ID string `json:"id"`
}

type gatewayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent creates a remote payment intent. Amount is in the gateway's
// minor currency unit.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("gateway: encode intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gateway: build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: create intent: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("gateway: read intent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr gatewayErrorResponse
		if json.Unmarshal(raw, &gwErr) == nil && gwErr.Error.Description != "" {
			return "", fmt.Errorf("gateway: create intent: %s (%s)", gwErr.Error.Description, gwErr.Error.Code)
		}
		return "", fmt.Errorf("gateway: create intent: unexpected status %d", resp.StatusCode)
	}

	var out createIntentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("gateway: decode intent response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("gateway: intent response missing order id")
	}
	return out.ID, nil
}

package mockpayment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ticketnow/internal/external"
	"ticketnow/internal/logger"
)

const defaultRetryBackoff = 500 * time.Millisecond

// WebhookNotifier delivers payment status changes to the owning application
type WebhookNotifier struct {
	client  *http.Client
	retries int
	backoff time.Duration
}

func NewWebhookNotifier(retries int, timeout time.Duration) *WebhookNotifier {
	if retries < 0 {
		retries = 0
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &WebhookNotifier{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: defaultRetryBackoff,
	}
}

// Notify posts the payment status, retrying transport errors and 5xx responses
// with a linear backoff. A 4xx response is final.
func (n *WebhookNotifier) Notify(ctx context.Context, app *Application, payment *Payment) error {
	body, err := json.Marshal(WebhookPayload{
		OrderID:       payment.OrderID,
		PaymentID:     payment.ID,
		PaymentStatus: payment.PaymentStatus,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	log := logger.WithFields("payment_id", payment.ID, "order_id", payment.OrderID)

	var lastErr error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * n.backoff):
			}
		}

		retry, err := n.send(ctx, app, body)
		if err == nil {
			log.Info("Webhook delivered", "status", payment.PaymentStatus, "attempt", attempt+1)
			return nil
		}

		lastErr = err
		log.Warn("Webhook delivery failed", "attempt", attempt+1, "error", err)
		if !retry {
			break
		}
	}

	return fmt.Errorf("webhook delivery for payment %d failed: %w", payment.ID, lastErr)
}

func (n *WebhookNotifier) send(ctx context.Context, app *Application, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, app.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if app.WebhookSecret != "" {
		req.Header.Set(external.SignatureHeader, external.SignWebhook(app.WebhookSecret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return true, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return false, nil
}

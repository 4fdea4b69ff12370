package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/models"

	"github.com/shopspring/decimal"
)

// PaymentClient talks to the payment gateway on behalf of the order service
type PaymentClient struct {
	baseURL    string
	apiKey     string
	username   string
	password   string
	httpClient *http.Client
}

type PaymentConfig struct {
	Enabled  bool
	BaseURL  string
	APIKey   string
	Username string
	Password string
	Timeout  time.Duration
}

type CreatePaymentRequest struct {
	OrderID       int64                `json:"orderId"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Amount        decimal.Decimal      `json:"amount"`
}

type PaymentResponse struct {
	ID            int64                `json:"id"`
	OrderID       int64                `json:"orderId"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Amount        decimal.Decimal      `json:"amount"`
	CreatedAt     time.Time            `json:"createdAt"`
}

type updateStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &PaymentClient{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CreatePayment registers a pending payment for the order
func (pc *PaymentClient) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	var result PaymentResponse
	if err := pc.do(ctx, http.MethodPost, "/payments", req, &result); err != nil {
		return nil, fmt.Errorf("failed to create payment for order %d: %w", req.OrderID, err)
	}
	return &result, nil
}

func (pc *PaymentClient) GetPayment(ctx context.Context, paymentID int64) (*PaymentResponse, error) {
	var result PaymentResponse
	if err := pc.do(ctx, http.MethodGet, "/payments/"+strconv.FormatInt(paymentID, 10), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get payment %d: %w", paymentID, err)
	}
	return &result, nil
}

// CancelPayment asks the gateway to cancel a payment that has not settled yet
func (pc *PaymentClient) CancelPayment(ctx context.Context, paymentID int64) error {
	path := "/payments/" + strconv.FormatInt(paymentID, 10) + "/status"
	if err := pc.do(ctx, http.MethodPut, path, updateStatusRequest{PaymentStatus: models.PaymentCancelled}, nil); err != nil {
		return fmt.Errorf("failed to cancel payment %d: %w", paymentID, err)
	}
	return nil
}

func (pc *PaymentClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, pc.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", pc.apiKey)
	req.SetBasicAuth(pc.username, pc.password)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", apperrors.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		slog.Warn("Payment gateway rejected request", "method", method, "path", path, "status", resp.StatusCode, "body", string(payload))
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

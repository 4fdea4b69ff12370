package mockpayment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"ticketnow/internal/external"
	"ticketnow/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *recordingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service, notifier, _ := newTestService(t, Config{})
	router := gin.New()
	NewHandler(service).RegisterRoutes(router)
	return router, notifier
}

func do(router http.Handler, method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		req.Header.Set(APIKeyHeader, testSeed.APIKey)
		req.SetBasicAuth(testSeed.Username, testSeed.Password)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthentication(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/payments/1", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/payments/1", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	req.SetBasicAuth(testSeed.Username, testSeed.Password)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentLifecycle(t *testing.T) {
	router, notifier := setupRouter(t)

	w := do(router, http.MethodPost, "/payments", map[string]any{
		"orderId":       12,
		"paymentMethod": "PIX",
		"amount":        "99.90",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(12), created.OrderID)
	assert.Equal(t, models.PaymentPending, created.PaymentStatus)

	path := "/payments/" + strconv.FormatInt(created.ID, 10)

	w = do(router, http.MethodGet, path, nil, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPut, path+"/status", UpdateStatusRequest{PaymentStatus: models.PaymentPaid}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Eventually(t, func() bool { return len(notifier.Delivered()) == 1 }, time.Second, 5*time.Millisecond)

	w = do(router, http.MethodPut, path+"/status", UpdateStatusRequest{PaymentStatus: models.PaymentCancelled}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentErrors(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing order id", http.MethodPost, "/payments", map[string]any{"paymentMethod": "PIX"}, http.StatusBadRequest},
		{"unknown method", http.MethodPost, "/payments", map[string]any{"orderId": 1, "paymentMethod": "CASH"}, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/payments/abc", nil, http.StatusBadRequest},
		{"unknown payment", http.MethodGet, "/payments/999", nil, http.StatusNotFound},
		{"unknown status", http.MethodPut, "/payments/999/status", map[string]any{"paymentStatus": "REFUNDED"}, http.StatusBadRequest},
		{"missing status", http.MethodPut, "/payments/999/status", map[string]any{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.path, tt.body, true)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

// The API's payment client speaks the gateway's protocol
func TestPaymentClientAgainstGateway(t *testing.T) {
	router, notifier := setupRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	client := external.NewPaymentClient(external.PaymentConfig{
		Enabled:  true,
		BaseURL:  srv.URL,
		APIKey:   testSeed.APIKey,
		Username: testSeed.Username,
		Password: testSeed.Password,
	})
	ctx := context.Background()

	created, err := client.CreatePayment(ctx, external.CreatePaymentRequest{
		OrderID:       5,
		PaymentMethod: models.PaymentDebitCard,
		Amount:        decimal.RequireFromString("40"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, created.PaymentStatus)

	require.NoError(t, client.CancelPayment(ctx, created.ID))

	fetched, err := client.GetPayment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, fetched.PaymentStatus)
	assert.True(t, decimal.RequireFromString("40").Equal(fetched.Amount))

	assert.Eventually(t, func() bool { return len(notifier.Delivered()) == 1 }, time.Second, 5*time.Millisecond)
}

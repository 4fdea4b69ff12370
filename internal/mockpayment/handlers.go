package mockpayment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	APIKeyHeader   = "X-Api-Key"
	applicationKey = "application"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	payments := r.Group("/payments")
	payments.Use(h.Authenticate())
	{
		payments.POST("", h.CreatePayment)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id/status", h.UpdateStatus)
	}
}

// Authenticate requires the application API key together with its basic auth credentials
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "Basic authentication is required.")
			return
		}

		app, err := h.service.Authenticate(c.Request.Context(), c.GetHeader(APIKeyHeader), username, password)
		if err != nil {
			slog.Error("Failed to authenticate application", "error", err)
			respondWithError(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if app == nil {
			respondWithError(c, http.StatusUnauthorized, "Invalid application credentials.")
			return
		}

		c.Set(applicationKey, app)
		c.Next()
	}
}

// CreatePayment - POST /payments
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	payment, err := h.service.CreatePayment(c.Request.Context(), currentApplication(c), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetPayment - GET /payments/:id
func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), currentApplication(c), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// UpdateStatus - PUT /payments/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	payment, err := h.service.UpdateStatus(c.Request.Context(), currentApplication(c), id, req.PaymentStatus)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		respondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPaymentNotFound):
		respondWithError(c, http.StatusNotFound, "Payment not found.")
	case errors.Is(err, ErrInvalidTransition):
		respondWithError(c, http.StatusConflict, err.Error())
	default:
		slog.Error("Payment request failed", "path", c.FullPath(), "error", err)
		respondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func paymentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(c, http.StatusBadRequest, "Invalid payment id.")
		return 0, false
	}
	return id, true
}

func currentApplication(c *gin.Context) *Application {
	return c.MustGet(applicationKey).(*Application)
}

func respondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

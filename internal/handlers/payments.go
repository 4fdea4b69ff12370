package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"ticketnow/internal/external"
	"ticketnow/internal/logger"
	"ticketnow/internal/models"
	"ticketnow/internal/notification"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// PaymentWebhook - POST /orders/webhook/payments
// Applies a payment status pushed by the gateway. Every delivery the gateway
// can act on is answered 200 so it stops retrying; only a bad signature is
// rejected.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	log := logger.WithContext(c.Request.Context())

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Warn("Failed to read payment webhook body", "error", err)
		c.JSON(http.StatusOK, failureResponse{Notifications: notification.List{notification.New("body", "unreadable body")}})
		return
	}

	if h.webhookSecret != "" && !external.VerifyWebhook(h.webhookSecret, body, c.GetHeader(external.SignatureHeader)) {
		log.Warn("Payment webhook signature mismatch", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, failureResponse{Notifications: notification.List{
			notification.New("signature", "invalid webhook signature"),
		}})
		return
	}

	var req models.PaymentNotificationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("Malformed payment webhook", "error", err)
		c.JSON(http.StatusOK, failureResponse{Notifications: notification.List{
			notification.New("body", "malformed request body: "+err.Error()),
		}})
		return
	}

	res, err := h.services.Orders.ApplyPaymentNotification(c.Request.Context(), &req)
	if err != nil {
		internalError(c, err, "Failed to apply payment notification")
		return
	}
	if !res.Succeeded() {
		log.Warn("Payment webhook rejected", "order_id", req.OrderID, "notifications", res.Notifications)
		c.JSON(http.StatusOK, failureResponse{Notifications: res.Notifications})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "outcome": res.Value})
}

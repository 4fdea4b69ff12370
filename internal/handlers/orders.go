package handlers

import (
	"net/http"

	"ticketnow/internal/models"

	"github.com/gin-gonic/gin"
)

// PlaceOrder - POST /api/orders
func (h *Handlers) PlaceOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Orders.PlaceOrder(c.Request.Context(), userID, &req)
	respond(c, res, err, http.StatusCreated, "Failed to place order")
}

// ListOrders - GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var filter models.OrderFilter
	if !bindQuery(c, &filter) {
		return
	}

	res, err := h.services.Orders.ListOrders(c.Request.Context(), userID, filter)
	respond(c, res, err, http.StatusOK, "Failed to list orders")
}

// GetOrder - GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res, err := h.services.Orders.GetOrder(c.Request.Context(), userID, id)
	respond(c, res, err, http.StatusOK, "Failed to get order")
}

// CancelOrder - DELETE /api/orders/:id
func (h *Handlers) CancelOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res, err := h.services.Orders.CancelOrder(c.Request.Context(), userID, id)
	respond(c, res, err, http.StatusOK, "Failed to cancel order")
}

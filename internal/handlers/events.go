package handlers

import (
	"net/http"
	"strconv"

	"ticketnow/internal/models"
	"ticketnow/internal/notification"

	"github.com/gin-gonic/gin"
)

// ListEvents - GET /api/events
// approved defaults to true; approved=false lists events awaiting approval
func (h *Handlers) ListEvents(c *gin.Context) {
	var filter models.EventFilter
	if !bindQuery(c, &filter) {
		return
	}

	approved := true
	if v := c.Query("approved"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			rejected(c, notification.List{notification.New("approved", "must be true or false")})
			return
		}
		approved = parsed
	}

	res, err := h.services.Events.List(c.Request.Context(), filter, approved)
	respond(c, res, err, http.StatusOK, "Failed to list events")
}

// SearchEvents - GET /api/events/search?q=
func (h *Handlers) SearchEvents(c *gin.Context) {
	var req models.EventSearchRequest
	if !bindQuery(c, &req) {
		return
	}

	res, err := h.services.Events.Search(c.Request.Context(), &req)
	respond(c, res, err, http.StatusOK, "Failed to search events")
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res, err := h.services.Events.Get(c.Request.Context(), id)
	respond(c, res, err, http.StatusOK, "Failed to get event")
}

// ListPromoterEvents - GET /api/events/promoter
func (h *Handlers) ListPromoterEvents(c *gin.Context) {
	promoterID, ok := currentUser(c)
	if !ok {
		return
	}
	var filter models.EventFilter
	if !bindQuery(c, &filter) {
		return
	}

	res, err := h.services.Events.ListByPromoter(c.Request.Context(), promoterID, filter)
	respond(c, res, err, http.StatusOK, "Failed to list promoter events")
}

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	promoterID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Events.Create(c.Request.Context(), promoterID, &req)
	respond(c, res, err, http.StatusCreated, "Failed to create event")
}

// UpdateEvent - PUT /api/events/:id
func (h *Handlers) UpdateEvent(c *gin.Context) {
	promoterID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateEventRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id
	req.PromoterID = promoterID

	res, err := h.services.Events.Update(c.Request.Context(), &req)
	respond(c, res, err, http.StatusOK, "Failed to update event")
}

// SetEventState - PATCH /api/events/:id/state
func (h *Handlers) SetEventState(c *gin.Context) {
	promoterID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.SetStateRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Events.SetState(c.Request.Context(), promoterID, id, &req)
	respond(c, res, err, http.StatusOK, "Failed to change event state")
}

// DeleteEvent - DELETE /api/events/:id
func (h *Handlers) DeleteEvent(c *gin.Context) {
	promoterID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res, err := h.services.Events.Delete(c.Request.Context(), promoterID, id)
	respond(c, res, err, http.StatusNoContent, "Failed to delete event")
}

// ApproveEvent - PATCH /api/events/:id/approve
func (h *Handlers) ApproveEvent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res, err := h.services.Events.Approve(c.Request.Context(), id)
	respond(c, res, err, http.StatusOK, "Failed to approve event")
}

package handlers

import (
	"net/http"

	"ticketnow/internal/models"

	"github.com/gin-gonic/gin"
)

// ListUsers - GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	var filter models.UserFilter
	if !bindQuery(c, &filter) {
		return
	}

	res, err := h.services.Users.GetAll(c.Request.Context(), filter)
	respond(c, res, err, http.StatusOK, "Failed to list users")
}

// GetUser - GET /api/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res, err := h.services.Users.GetByID(c.Request.Context(), id)
	respond(c, res, err, http.StatusOK, "Failed to get user")
}

// UpdateMe - PUT /api/users/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Users.Update(c.Request.Context(), userID, &req)
	respond(c, res, err, http.StatusOK, "Failed to update user")
}

// UpdateMyPassword - PUT /api/users/me/password
func (h *Handlers) UpdateMyPassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Users.UpdatePassword(c.Request.Context(), userID, &req)
	respond(c, res, err, http.StatusNoContent, "Failed to update password")
}

// SetUserState - PATCH /api/admin/users/:id/state
func (h *Handlers) SetUserState(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.SetStateRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Users.SetActive(c.Request.Context(), id, &req)
	respond(c, res, err, http.StatusOK, "Failed to change user state")
}

// ApprovePromoter - PATCH /api/admin/users/:id/approve
func (h *Handlers) ApprovePromoter(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res, err := h.services.Users.ApprovePromoter(c.Request.Context(), id)
	respond(c, res, err, http.StatusOK, "Failed to approve promoter")
}

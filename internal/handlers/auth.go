package handlers

import (
	"net/http"

	"ticketnow/internal/models"

	"github.com/gin-gonic/gin"
)

// Register - POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Auth.Register(c.Request.Context(), &req)
	respond(c, res, err, http.StatusCreated, "Failed to register user")
}

// Login - POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Auth.Login(c.Request.Context(), &req)
	respond(c, res, err, http.StatusOK, "Failed to log in")
}

// Refresh - POST /api/auth/refresh
func (h *Handlers) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.services.Auth.Refresh(c.Request.Context(), &req)
	respond(c, res, err, http.StatusOK, "Failed to refresh token")
}

// Revoke - POST /api/auth/revoke
// Ends the caller's refresh session
func (h *Handlers) Revoke(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.services.Auth.Revoke(c.Request.Context(), userID)
	respond(c, res, err, http.StatusNoContent, "Failed to revoke token")
}

// RevokeUser - POST /api/auth/revoke/:username
func (h *Handlers) RevokeUser(c *gin.Context) {
	res, err := h.services.Auth.RevokeByUsername(c.Request.Context(), c.Param("username"))
	respond(c, res, err, http.StatusNoContent, "Failed to revoke token")
}

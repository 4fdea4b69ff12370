package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ticketnow/internal/database"
	"ticketnow/internal/logger"
	"ticketnow/internal/middleware"
	"ticketnow/internal/notification"
	"ticketnow/internal/service"

	"github.com/gin-gonic/gin"
)

const serviceName = "ticketnow-api"

// HealthChecker reports the database health for /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.Health
}

type Handlers struct {
	services      *service.Services
	health        HealthChecker
	webhookSecret string
}

func NewHandlers(services *service.Services, health HealthChecker, webhookSecret string) *Handlers {
	return &Handlers{
		services:      services,
		health:        health,
		webhookSecret: webhookSecret,
	}
}

// failureResponse is the body of every rejected request
type failureResponse struct {
	Success       bool              `json:"success"`
	Notifications notification.List `json:"notifications"`
}

func statusFor(kind notification.Kind) int {
	switch kind {
	case notification.KindNotFound:
		return http.StatusNotFound
	case notification.KindConflict:
		return http.StatusConflict
	case notification.KindUnauthorized:
		return http.StatusUnauthorized
	case notification.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// respond writes the service outcome: 500 on error, the mapped status on
// notifications, status with the value otherwise.
func respond[T any](c *gin.Context, res notification.Result[T], err error, status int, action string) {
	if err != nil {
		internalError(c, err, action)
		return
	}
	if !res.Succeeded() {
		rejected(c, res.Notifications)
		return
	}
	if status == http.StatusNoContent {
		c.Status(status)
		return
	}
	c.JSON(status, res.Value)
}

func rejected(c *gin.Context, list notification.List) {
	c.JSON(statusFor(list.Kind()), failureResponse{Success: false, Notifications: list})
}

func internalError(c *gin.Context, err error, action string) {
	_ = c.Error(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.WithContext(c.Request.Context()).Warn(action+": request aborted", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request timed out"})
		return
	}
	logger.WithContext(c.Request.Context()).Error(action, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": action})
}

// bindJSON decodes the body and answers 400 when it is not valid JSON
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		rejected(c, notification.List{notification.New("body", "malformed request body: "+err.Error())})
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		rejected(c, notification.List{notification.New("query", "malformed query string: "+err.Error())})
		return false
	}
	return true
}

// idParam parses a positive int64 path parameter
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		rejected(c, notification.List{notification.New(name, "must be a positive integer")})
		return 0, false
	}
	return id, true
}

// currentUser returns the authenticated user id set by JWTAuth
func currentUser(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		rejected(c, notification.List{notification.MissingAccessToken})
		return 0, false
	}
	return id, true
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
		return
	}

	check := h.health.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if !check.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   check.Status,
		"service":  serviceName,
		"database": check,
	})
}

package handlers

import (
	"ticketnow/internal/auth"
	"ticketnow/internal/middleware"
	"ticketnow/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the TicketNow API on r
func (h *Handlers) RegisterRoutes(r gin.IRouter, tokens *auth.TokenManager) {
	authenticated := middleware.JWTAuth(tokens)
	admin := middleware.RequireRoles(models.RoleAdmin)
	promoter := middleware.RequireRoles(models.RolePromoter)
	customer := middleware.RequireRoles(models.RoleCustomer)

	r.GET("/health", h.Health)

	// gateway callback, authenticated by signature when a secret is configured
	r.POST("/orders/webhook/payments", h.PaymentWebhook)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.Refresh)
			authGroup.POST("/revoke", authenticated, h.Revoke)
			authGroup.POST("/revoke/:username", authenticated, admin, h.RevokeUser)
		}

		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.GET("/search", h.SearchEvents)
			events.GET("/promoter", authenticated, promoter, h.ListPromoterEvents)
			events.GET("/:id", h.GetEvent)
			events.POST("", authenticated, promoter, h.CreateEvent)
			events.PUT("/:id", authenticated, promoter, h.UpdateEvent)
			events.PATCH("/:id/state", authenticated, promoter, h.SetEventState)
			events.DELETE("/:id", authenticated, promoter, h.DeleteEvent)
			events.PATCH("/:id/approve", authenticated, admin, h.ApproveEvent)
		}

		orders := api.Group("/orders", authenticated, customer)
		{
			orders.POST("", h.PlaceOrder)
			orders.GET("", h.ListOrders)
			orders.GET("/:id", h.GetOrder)
			orders.DELETE("/:id", h.CancelOrder)
		}

		users := api.Group("/users", authenticated)
		{
			users.GET("", admin, h.ListUsers)
			users.PUT("/me", h.UpdateMe)
			users.PUT("/me/password", h.UpdateMyPassword)
			users.GET("/:id", admin, h.GetUser)
		}

		adminGroup := api.Group("/admin", authenticated, admin)
		{
			adminGroup.PATCH("/users/:id/state", h.SetUserState)
			adminGroup.PATCH("/users/:id/approve", h.ApprovePromoter)
		}
	}
}

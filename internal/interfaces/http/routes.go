package http

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, webhooks *WebhookHandler, dashboard *DashboardHandler, middleware *Middleware) {
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.CORSMiddleware())

	// Provider callbacks. Providers expect a 200 regardless of what the
	// pipeline later decides about the message.
	webhookGroup := r.Group("/webhooks")
	{
		webhookGroup.GET("/meta", webhooks.VerifyMeta)
		webhookGroup.POST("/meta", webhooks.HandleMeta)
		webhookGroup.POST("/twilio", webhooks.HandleTwilio)
		webhookGroup.POST("/telegram/:externalID", webhooks.HandleTelegram)
		webhookGroup.GET("/facebook", webhooks.VerifyFacebook)
		webhookGroup.POST("/facebook", webhooks.HandleFacebook)
	}

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", dashboard.Login)
		authGroup.POST("/register", dashboard.Register)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/carts", dashboard.ListCarts)
		api.POST("/carts/:id/cancel", dashboard.CancelCart)

		api.POST("/handover", dashboard.SetHandover)
		api.GET("/conversations/:customerID/messages", dashboard.Transcript)

		api.POST("/reservations", dashboard.CreateReservation)
		api.GET("/reservations", dashboard.ListReservations)
	}
}

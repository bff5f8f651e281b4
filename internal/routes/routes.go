package routes

import (
	"github.com/gin-gonic/gin"

	"tribune_back_end/internal/handlers"
	"tribune_back_end/internal/handlers/admin"
	"tribune_back_end/internal/handlers/payement"
	"tribune_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, requestsHandler *admin.RequestsHandler) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// ===== AUTH =====
	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.RegisterRateLimit(), handlers.Register)
		auth.POST("/login", middleware.LoginRateLimit(), handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", middleware.AuthRequired(), handlers.Logout)
		auth.GET("/me", middleware.AuthRequired(), handlers.Me)

		auth.GET("/oauth/:provider", handlers.BeginAuth)
		auth.GET("/oauth/:provider/callback", handlers.CallbackAuth)
	}

	// ===== CATALOGUE (public, relayé du fournisseur) =====
	catalog := api.Group("/catalog")
	{
		catalog.GET("/sports", handlers.GetSports)
		catalog.GET("/tournaments", handlers.GetTournaments)
		catalog.GET("/teams", handlers.GetTeams)
		catalog.GET("/cities", handlers.GetCities)
		catalog.GET("/countries", handlers.GetCountries)
		catalog.GET("/events", handlers.GetEvents)
		catalog.GET("/events/:id", handlers.GetEventDetails)
	}

	// ===== PAGES DE CONTENU (public) =====
	api.GET("/pages/:slug", handlers.GetPage)

	// ===== RÉSERVATIONS (client connecté) =====
	bookings := api.Group("/bookings")
	bookings.Use(middleware.AuthRequired())
	{
		bookings.POST("", handlers.CreateBooking)
		bookings.GET("", handlers.GetMyBookings)
		bookings.GET("/:id", handlers.GetBooking)
		bookings.GET("/:id/eticket", handlers.GetETicket)
	}

	// ===== PAIEMENTS =====
	payments := api.Group("/payments")
	{
		payments.POST("/intent", middleware.AuthRequired(), payement.CreatePaymentIntent)
		payments.POST("/webhook", payement.StripeWebhook)
	}

	// ===== DEMANDES (client connecté) =====
	requests := api.Group("/requests")
	requests.Use(middleware.AuthRequired())
	{
		requests.POST("/cancellation", middleware.SubmitRateLimit(), payement.RequestCancellation)
		requests.POST("/refund", middleware.SubmitRateLimit(), payement.RequestRefund)
		requests.GET("/mine", payement.GetMyRequests)
	}

	// ===== ADMIN =====
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(), middleware.RequireAdmin())
	{
		adminGroup.GET("/requests", requestsHandler.List)
		adminGroup.GET("/search", requestsHandler.Search)
		adminGroup.GET("/statistics", requestsHandler.Statistics)
		adminGroup.GET("/export", requestsHandler.ExportCSV)
		adminGroup.GET("/feed", requestsHandler.RequestsFeed)
		adminGroup.GET("/requests/:id", requestsHandler.GetByID)
		adminGroup.PATCH("/requests/:id/status", requestsHandler.UpdateStatus)
		adminGroup.PATCH("/requests/:id/approve", requestsHandler.Approve)
		adminGroup.PATCH("/requests/:id/reject", requestsHandler.Reject)
		adminGroup.PATCH("/requests/:id/process", requestsHandler.StartProcessing)
		adminGroup.PATCH("/requests/:id/complete", requestsHandler.Complete)
		adminGroup.POST("/requests/:id/refund", payement.ExecuteRefund)

		adminGroup.GET("/dashboard", requestsHandler.Dashboard)

		adminGroup.GET("/audit-logs", admin.GetAuditLogs)
		adminGroup.GET("/audit-logs/:resource/:resource_id", admin.GetAuditLogsByResource)

		adminGroup.GET("/pages", handlers.ListPages)
		adminGroup.PUT("/pages/:slug", handlers.UpsertPage)
		adminGroup.DELETE("/pages/:slug", handlers.DeletePage)
	}
}

// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/handlers"
	"github.com/javajoker/imi-campaigns/internal/middleware"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// Dependencies are the adapters built by the entry point. Tests swap
// them for fakes.
type Dependencies struct {
	Store       repository.Store
	Idempotency services.IdempotencyStore
	Media       services.MediaStorage
	Payments    services.PaymentGateway
	Mail        services.EmailSender
	Dispatcher  *events.Dispatcher
}

func Initialize(cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	campaignService := services.NewCampaignService(deps.Store)
	productService := services.NewProductService(deps.Store)
	collaborationService := services.NewCollaborationService(deps.Store, services.NewConfigLimiter(deps.Store, cfg.Limits))
	contentService := services.NewContentService(deps.Store, deps.Media)
	completionService := services.NewCompletionService(deps.Store)
	checkoutService := services.NewCheckoutService(deps.Store, deps.Idempotency, cfg.Checkout)
	orderService := services.NewOrderService(deps.Store)
	paymentService := services.NewPaymentService(deps.Store, deps.Payments)
	notificationService := services.NewNotificationService(deps.Store, deps.Mail, cfg.Email, cfg.Frontend.BaseURL)
	userService := services.NewUserService(deps.Store)

	// Outbox consumers
	if deps.Dispatcher != nil {
		deps.Dispatcher.Register(models.EventNotificationRequested, notificationService.HandleNotificationRequested)
		deps.Dispatcher.Register(models.EventOrderStatusEmail, notificationService.HandleOrderStatusEmail)
		deps.Dispatcher.Register(models.EventCampaignMetricsRecompute, campaignService.HandleMetricsRecompute)
	}

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(campaignService, collaborationService, contentService)
	collaborationHandler := handlers.NewCollaborationHandler(collaborationService)
	contentHandler := handlers.NewContentHandler(contentService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(checkoutService, orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	userHandler := handlers.NewUserHandler(userService, collaborationService)
	adminHandler := handlers.NewAdminHandler(completionService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// A zero rate disables the general limiter
	generalRate := rate.Limit(cfg.Server.RateLimitRPS)
	if cfg.Server.RateLimitRPS <= 0 {
		generalRate = rate.Inf
	}
	generalLimiter := middleware.NewRateLimiter(generalRate, cfg.Server.RateLimitBurst)
	uploadLimiter := middleware.NewRateLimiter(rate.Every(6*time.Second), 10)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.OptionalAuth())
	r.Use(generalLimiter.Middleware())
	r.Use(middleware.AuditLogMiddleware(deps.Store.Audit()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		auth := middleware.AuthRequired()

		users := v1.Group("/users")
		{
			users.POST("/me", auth, userHandler.RegisterProfile)
			users.GET("/me", auth, userHandler.GetProfile)
			users.PUT("/me", auth, userHandler.UpdateProfile)
			users.GET("/:id", userHandler.GetPublicProfile)
			users.DELETE("/:id/collaborations", auth, userHandler.RemoveInfluencer)
		}

		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/products", productHandler.ListCampaignProducts)

			protected := campaigns.Group("")
			protected.Use(auth)
			{
				protected.POST("", middleware.RequireRoles(models.UserTypeBrand), campaignHandler.CreateCampaign)
				protected.PUT("/:id/status", campaignHandler.UpdateCampaignStatus)
				protected.POST("/:id/products", productHandler.CreateProduct)
				protected.GET("/:id/collaborations", campaignHandler.ListCollaborations)
				protected.POST("/:id/apply", campaignHandler.Apply)
				protected.POST("/:id/invite", campaignHandler.Invite)
				protected.GET("/:id/content", campaignHandler.ListContent)
				protected.POST("/completion/progress", campaignHandler.CompleteByProgress)
			}
		}

		collaborations := v1.Group("/collaborations")
		collaborations.Use(auth)
		{
			collaborations.GET("/:id", collaborationHandler.GetCollaboration)
			collaborations.PUT("/:id/respond", collaborationHandler.Respond)
			collaborations.GET("/:id/deliverables/:deliverableId", collaborationHandler.GetDeliverable)
			collaborations.PUT("/:id/deliverables", collaborationHandler.UpdateDeliverables)
		}

		contents := v1.Group("/contents")
		contents.Use(auth)
		{
			contents.POST("", uploadLimiter.Middleware(), contentHandler.SubmitContent)
			contents.GET("/:id", contentHandler.GetContent)
			contents.PUT("/:id/review", contentHandler.ReviewContent)
			contents.PUT("/:id/publish", contentHandler.PublishContent)
			contents.POST("/:id/performance", contentHandler.RecordPerformance)
		}

		v1.GET("/products/:id", productHandler.GetProduct)

		// Guests check out and pay without an account
		v1.POST("/checkout", orderHandler.Checkout)

		orders := v1.Group("/orders")
		{
			orders.GET("/:id", auth, orderHandler.GetOrder)
			orders.PUT("/:id/status", auth, orderHandler.UpdateOrderStatus)
			orders.POST("/:id/payment-intent", paymentHandler.CreatePaymentIntent)
			orders.POST("/:id/payment-confirm", paymentHandler.ConfirmPayment)
		}

		v1.GET("/notifications", auth, notificationHandler.ListNotifications)

		admin := v1.Group("/admin")
		admin.Use(auth, middleware.AdminRequired())
		{
			admin.POST("/completion/sales-target", adminHandler.CheckSalesTargets)
		}
	}

	return r
}

package main

import (
	"net/http"
	"time"

	"github.com/aimoney/aimoney-api/config"
	"github.com/aimoney/aimoney-api/controllers"
	"github.com/aimoney/aimoney-api/logger"
	"github.com/aimoney/aimoney-api/middleware"
	"github.com/aimoney/aimoney-api/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "aimoney-api"

// routerDeps is everything the HTTP layer needs. Nil optional services degrade the
// matching endpoints instead of failing startup.
type routerDeps struct {
	cfg         *config.Config
	db          *gorm.DB
	tokens      *services.TokenService
	gateway     services.PaymentGateway
	chat        services.ChatModel
	transcripts controllers.TranscriptQueue
	images      services.ImageService
	localImages *services.LocalImageService
	sheet       *services.SheetClient

	// strictLimiter guards auth and payment routes; a nil value uses the default tier
	strictLimiter *middleware.RateLimiter
}

func setupRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	// ClientIP feeds the rate limiter and transcripts, so forwarded headers
	// only count when they come from a configured proxy
	if err := router.SetTrustedProxies(deps.cfg.TrustedProxies); err != nil {
		logger.L().Fatal("Invalid trusted proxies", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(cors.New(corsConfig(deps.cfg)))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	router.GET("/metrics", middleware.PrometheusHandler())

	strict := deps.strictLimiter
	if strict == nil {
		strict = middleware.NewRateLimiter(middleware.StrictLimit, middleware.StrictBurst)
	}
	requireSession := middleware.EnsureValidSession(deps.cfg)
	// role and status come from the stored account, not the token
	account := middleware.LoadAccount(deps.db)

	statusController := controllers.NewStatusController(deps.db)
	authController := controllers.NewAuthController(deps.db, deps.tokens)
	userController := controllers.NewUserController(deps.db)
	orderController := controllers.NewOrderController(deps.db)
	paymentController := controllers.NewPaymentController(deps.gateway)
	reviewController := controllers.NewReviewController(deps.db)
	chatController := controllers.NewChatController(deps.chat, deps.transcripts)
	uploadController := controllers.NewUploadController(deps.images, deps.localImages)
	leadController := controllers.NewLeadController(deps.sheet)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", statusController.HealthCheck)
		v1.GET("/database/status", statusController.DatabaseStatus)

		auth := v1.Group("/auth", strict.Middleware())
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
		}

		v1.POST("/payments/confirm", strict.Middleware(), paymentController.ConfirmPayment)
		v1.POST("/chat", chatController.Chat)
		v1.POST("/leads", leadController.CreateLead)

		users := v1.Group("/users")
		{
			users.POST("", userController.UpsertUser)

			member := users.Group("", requireSession, account)
			member.GET("/me", userController.GetMyProfile)
			member.GET("/:id", userController.GetUser)

			admin := member.Group("", middleware.RequireAdmin())
			admin.GET("", userController.ListUsers)
			admin.PATCH("/:id", userController.UpdateUser)
			admin.DELETE("/:id", userController.DeleteUser)
		}

		orders := v1.Group("/orders", requireSession, account)
		{
			orders.GET("", orderController.ListOrders)
			orders.POST("", orderController.CreateOrder)
			orders.GET("/:id", orderController.GetOrder)
			orders.PATCH("/:id", orderController.UpdateOrder)
			orders.DELETE("/:id", orderController.DeleteOrder)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.GET("", reviewController.ListReviews)
			reviews.POST("", requireSession, account, reviewController.CreateReview)
			reviews.POST("/:id/helpful", requireSession, account, reviewController.MarkHelpful)
		}

		uploads := v1.Group("/uploads")
		{
			uploads.POST("", requireSession, account, uploadController.UploadImage)
			uploads.GET("/:folder/:filename", uploadController.GetUploadedImage)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Route not found",
			},
		})
	})

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	corsCfg.AllowCredentials = true
	return corsCfg
}

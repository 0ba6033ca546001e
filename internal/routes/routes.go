package routes

import (
	"net/http"

	"chat-app-api/internal/auth"
	"chat-app-api/internal/config"
	"chat-app-api/internal/handlers"
	"chat-app-api/internal/middleware"
	"chat-app-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the HTTP surface is built on.
type Dependencies struct {
	Config   config.Config
	DB       *gorm.DB
	Tokens   *auth.TokenManager
	Verifier realtime.Verifier
	Registry *realtime.Registry
	Gateway  *realtime.Gateway
	Logger   *zap.Logger
}

func SetupRoutes(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ginRouter := gin.New()
	ginRouter.Use(
		gin.Recovery(),
		middleware.RequestLogger(deps.Logger),
		middleware.CORS(deps.Config.App),
	)

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Tokens, deps.Logger)
	userHandler := handlers.NewUserHandler(deps.DB, deps.Registry, deps.Logger)
	wsHandler := handlers.NewWSHandler(deps.Gateway, deps.Config.Gateway, deps.Config.App, deps.Logger)

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": deps.Registry.Len(),
		})
	})

	// Realtime gateway; authenticates in-band
	ginRouter.GET("/ws", wsHandler.Connect)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(deps.Verifier))
	{
		protectedRoutes.GET("/users", userHandler.GetAllUsers)
		protectedRoutes.GET("/presence", userHandler.GetPresence)
	}

	return ginRouter
}

package handlers

import (
	"testing"
	"time"

	"chat-app-api/internal/auth"
	"chat-app-api/internal/config"
	"chat-app-api/internal/middleware"
	"chat-app-api/internal/models"
	"chat-app-api/internal/realtime"
	"chat-app-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	cfg      config.Config
	db       *gorm.DB
	tokens   *auth.TokenManager
	registry *realtime.Registry
	gateway  *realtime.Gateway
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Gateway.PingInterval = time.Second
	cfg.Gateway.PongWait = 5 * time.Second

	log := zap.NewNop()
	tokens := auth.NewTokenManager(cfg.JWT)
	verifier := auth.NewTokenVerifier(tokens, db, cfg.JWT.VerifyCacheTTL, log)
	registry := realtime.NewRegistry(realtime.NewBroadcaster(log, cfg.Gateway.SelfPresence))
	gateway := realtime.NewGateway(verifier, registry, realtime.NewRelay(registry, log), log,
		realtime.WithHandshakeTimeout(cfg.Gateway.HandshakeTimeout))
	t.Cleanup(gateway.Shutdown)

	authHandler := NewAuthHandler(db, tokens, log)
	userHandler := NewUserHandler(db, registry, log)
	wsHandler := NewWSHandler(gateway, cfg.Gateway, cfg.App, log)

	r := gin.New()
	r.GET("/ws", wsHandler.Connect)
	r.POST("/api/register", authHandler.Register)
	r.POST("/api/login", authHandler.Login)
	protected := r.Group("/api", middleware.JWTAuthMiddleware(verifier))
	protected.GET("/users", userHandler.GetAllUsers)
	protected.GET("/presence", userHandler.GetPresence)

	return &testEnv{cfg: cfg, db: db, tokens: tokens, registry: registry, gateway: gateway, router: r}
}

// seedUser stores an account and returns a valid token for it.
func (e *testEnv) seedUser(t *testing.T, id, name string) string {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	email := id + "@example.com"
	require.NoError(t, e.db.Create(&models.User{ID: id, Name: name, Email: email, Password: hash}).Error)

	token, err := e.tokens.GenerateToken(id, email, name)
	require.NoError(t, err)
	return token
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"chat-app-api/internal/auth"
	"chat-app-api/internal/database"
	"chat-app-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterRequest represents the registration payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// AuthHandler serves account registration and login.
type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	log    *zap.Logger
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, log: log}
}

// Register creates an account
// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hash,
	}
	// The unique index on email decides races between concurrent sign-ups.
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		h.log.Error("create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user_id": user.ID})
}

// Login checks credentials and issues a token
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Email and password are required.",
		})
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.log.Error("lookup user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	// Same response for unknown account and wrong password.
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	ok, err := auth.ComparePassword(req.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		h.log.Error("generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
}

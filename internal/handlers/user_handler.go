package handlers

import (
	"net/http"

	"chat-app-api/internal/models"
	"chat-app-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserHandler serves the account and presence listings.
type UserHandler struct {
	db       *gorm.DB
	registry *realtime.Registry
	log      *zap.Logger
}

func NewUserHandler(db *gorm.DB, registry *realtime.Registry, log *zap.Logger) *UserHandler {
	return &UserHandler{db: db, registry: registry, log: log}
}

// GetAllUsers returns all registered accounts (protected)
// GET /api/users
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("name").Find(&users).Error; err != nil {
		h.log.Error("list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	resp := lo.Map(users, func(u models.User, _ int) UserResponse {
		return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
	})
	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}

// GetPresence returns who is connected right now (protected)
// GET /api/presence
func (h *UserHandler) GetPresence(c *gin.Context) {
	view := realtime.View(h.registry.Snapshot())
	c.JSON(http.StatusOK, gin.H{
		"users": view,
		"count": len(view),
	})
}

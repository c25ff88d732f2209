package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/recommend"
)

// AdminHandler exposes operator endpoints. The router guards these with
// API key auth; session cookies play no part here.
type AdminHandler struct {
	service *recommend.Service
	log     *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(service *recommend.Service, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{service: service, log: log}
}

type verifyRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Verify marks a user as verified, unlocking the feed and feedback
// endpoints for them.
func (h *AdminHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if err := h.service.Verify(c.Request.Context(), req.UserID); err != nil {
		translateError(c, err)
		return
	}

	h.log.Info("user verified", zap.String("user_id", req.UserID))
	c.JSON(http.StatusOK, gin.H{"userId": req.UserID, "verified": true})
}

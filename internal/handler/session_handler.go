package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/middleware"
	"github.com/tubefeed/video-recommender-go/internal/recommend"
	"github.com/tubefeed/video-recommender-go/internal/session"
)

// SessionHandler handles login and logout. The OAuth authorization-code
// exchange happens out of process; the client hands over the resulting
// access token and this handler resolves it to a channel identity.
type SessionHandler struct {
	service        *recommend.Service
	sessions       *session.Store
	catalogFactory catalog.Factory
	cookieName     string
	cookieSecure   bool
	log            *zap.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(service *recommend.Service, sessions *session.Store, catalogFactory catalog.Factory, cookieName string, cookieSecure bool, log *zap.Logger) *SessionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{
		service:        service,
		sessions:       sessions,
		catalogFactory: catalogFactory,
		cookieName:     cookieName,
		cookieSecure:   cookieSecure,
		log:            log,
	}
}

type loginRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
}

// Login resolves the access token to the account's channel ID, checks
// the verification gate, and starts a session.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accessToken is required"})
		return
	}

	ctx := c.Request.Context()
	cat, err := h.catalogFactory(ctx, req.AccessToken)
	if err != nil {
		h.log.Warn("failed to build catalog client for login", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	userID, err := cat.OwnChannelID(ctx)
	if err != nil {
		h.log.Warn("identity resolution failed", zap.Error(err))
		translateError(c, err)
		return
	}

	if _, err := h.service.RequireVerified(ctx, userID); err != nil {
		translateError(c, err)
		return
	}

	sess, err := h.sessions.Create(ctx, userID, req.AccessToken)
	if err != nil {
		h.log.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.SetCookie(h.cookieName, sess.ID, 0, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

// Logout drops the session and its served batch.
func (h *SessionHandler) Logout(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess != nil {
		if err := h.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
			h.log.Warn("failed to delete session", zap.Error(err))
		}
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/middleware"
	"github.com/tubefeed/video-recommender-go/internal/models"
	"github.com/tubefeed/video-recommender-go/internal/recommend"
)

// SettingsHandler reads and writes the user's filter preferences.
type SettingsHandler struct {
	service *recommend.Service
	log     *zap.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(service *recommend.Service, log *zap.Logger) *SettingsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsHandler{service: service, log: log}
}

type settingsRequest struct {
	// vidlength arrives as whatever the client's form produced; anything
	// that is not a non-negative number is stored as zero.
	VidLength  any             `json:"vidlength"`
	Categories map[string]bool `json:"categories"`
}

// Update stores the user's preferences. Settings writes go through even
// for unverified users so the gate never blocks onboarding.
func (h *SettingsHandler) Update(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	prefs := models.Preferences{
		VidLength:  recommend.CoerceVidLength(req.VidLength),
		Categories: req.Categories,
	}
	if err := h.service.SaveSettings(c.Request.Context(), sess.UserID, prefs); err != nil {
		translateError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// Get returns the stored preferences, or zero values for a user with no
// profile yet.
func (h *SettingsHandler) Get(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	prefs, err := h.service.Settings(c.Request.Context(), sess.UserID)
	if err != nil {
		translateError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/middleware"
	"github.com/tubefeed/video-recommender-go/internal/queue"
	"github.com/tubefeed/video-recommender-go/internal/recommend"
	"github.com/tubefeed/video-recommender-go/internal/session"
)

// FeedbackEnqueuer hands click payloads to the background worker.
type FeedbackEnqueuer interface {
	EnqueueClickFeedback(ctx context.Context, payload *queue.ClickFeedbackPayload) error
}

// FeedHandler serves the ranked feed and takes click feedback.
type FeedHandler struct {
	service        *recommend.Service
	sessions       *session.Store
	queueClient    FeedbackEnqueuer
	catalogFactory catalog.Factory
	searchWindow   int
	log            *zap.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(service *recommend.Service, sessions *session.Store, queueClient FeedbackEnqueuer, catalogFactory catalog.Factory, searchWindow int, log *zap.Logger) *FeedHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedHandler{
		service:        service,
		sessions:       sessions,
		queueClient:    queueClient,
		catalogFactory: catalogFactory,
		searchWindow:   searchWindow,
		log:            log,
	}
}

// GetFeed returns the filtered, ranked candidate list and remembers it
// as the session's served batch for later click feedback.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	ctx := c.Request.Context()
	cat, err := h.catalogFactory(ctx, sess.AccessToken)
	if err != nil {
		h.log.Warn("failed to build catalog client", zap.Error(err))
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	candidates, err := h.service.Feed(ctx, cat, sess.UserID)
	if err != nil {
		h.log.Warn("feed retrieval failed",
			zap.String("user_id", sess.UserID),
			zap.Error(err),
		)
		translateError(c, err)
		return
	}

	servedIDs := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		servedIDs = append(servedIDs, cand.Video.VideoID)
	}
	if err := h.sessions.SaveServedBatch(ctx, sess.ID, servedIDs); err != nil {
		// The feed is still good; only click feedback quality suffers.
		h.log.Warn("failed to save served batch", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"videos": candidates})
}

type clickRequest struct {
	VideoID string `json:"videoId" binding:"required"`
}

// Click records a click and returns immediately. Re-ranking and
// expansion run on the background path; their failures are logged and
// never surfaced here.
func (h *FeedHandler) Click(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "videoId is required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.service.RequireVerified(ctx, sess.UserID); err != nil {
		translateError(c, err)
		return
	}

	payload, err := queue.NewClickFeedbackTask(sess.UserID, sess.AccessToken, req.VideoID, sess.ServedBatch, h.searchWindow)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid click"})
		return
	}

	// Success goes out before the heavy work happens; an enqueue failure
	// just loses one feedback signal. The enqueue must not die with the
	// request context, or a client hanging up right after the 202 drops
	// the signal.
	c.Status(http.StatusAccepted)

	if err := h.queueClient.EnqueueClickFeedback(context.WithoutCancel(ctx), payload); err != nil {
		h.log.Error("failed to enqueue click feedback",
			zap.String("user_id", sess.UserID),
			zap.String("video_id", req.VideoID),
			zap.Error(err),
		)
	}
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

// Search runs an explicit catalog search and logs the results into the
// user's ledger with the search seed score.
func (h *FeedHandler) Search(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	ctx := c.Request.Context()
	cat, err := h.catalogFactory(ctx, sess.AccessToken)
	if err != nil {
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	records, err := h.service.LogSearch(ctx, cat, sess.UserID, req.Query)
	if err != nil {
		translateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"videos": records})
}

// Reset drops the user's engagement history. Settings and verification
// survive; the next feed read re-ingests from subscriptions.
func (h *FeedHandler) Reset(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		translateError(c, recommend.ErrUnauthenticated)
		return
	}

	if err := h.service.Reset(c.Request.Context(), sess.UserID); err != nil {
		translateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

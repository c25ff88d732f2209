package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/metrics"
	"github.com/tubefeed/video-recommender-go/internal/recommend"
)

// FeedbackHandler processes click feedback tasks: the ledger score walk
// followed by similarity expansion. Failures here are terminal; the
// click already succeeded from the client's point of view.
type FeedbackHandler struct {
	service        *recommend.Service
	catalogFactory catalog.Factory
	log            *zap.Logger
}

// NewFeedbackHandler creates a feedback task handler.
func NewFeedbackHandler(service *recommend.Service, catalogFactory catalog.Factory, log *zap.Logger) *FeedbackHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedbackHandler{service: service, catalogFactory: catalogFactory, log: log}
}

// ProcessTask implements asynq.HandlerFunc for click feedback.
func (h *FeedbackHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalClickFeedbackPayload(task.Payload())
	if err != nil {
		metrics.FeedbackTasksTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	cat, err := h.catalogFactory(ctx, payload.AccessToken)
	if err != nil {
		h.log.Error("failed to build catalog client for feedback task",
			zap.String("user_id", payload.UserID),
			zap.Error(err),
		)
		metrics.FeedbackTasksTotal.WithLabelValues("failure").Inc()
		return err
	}

	if err := h.service.ProcessClick(ctx, cat, payload.UserID, payload.VideoID, payload.ServedIDs, payload.SearchWindow); err != nil {
		h.log.Error("click feedback failed",
			zap.String("user_id", payload.UserID),
			zap.String("video_id", payload.VideoID),
			zap.Error(err),
		)
		metrics.FeedbackTasksTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.FeedbackTasksTotal.WithLabelValues("success").Inc()
	h.log.Info("processed click feedback",
		zap.String("user_id", payload.UserID),
		zap.String("video_id", payload.VideoID),
		zap.Int("served", len(payload.ServedIDs)),
	)
	return nil
}

// Server wraps the asynq server for processing feedback tasks.
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
}

// NewServer creates a task processing server.
func NewServer(redisAddr, redisPassword string, redisDB, concurrency int, handler *FeedbackHandler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 10,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeClickFeedback, handler.ProcessTask)

	return &Server{asynqServer: srv, mux: mux}
}

// Start starts the server.
func (s *Server) Start() error {
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.asynqServer.Shutdown()
}

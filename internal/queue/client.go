package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Client enqueues feedback tasks. The click endpoint answers the caller
// before enqueueing; delivery is at-most-once, best-effort, with no
// caller-visible completion signal.
type Client struct {
	asynqClient *asynq.Client
	log         *zap.Logger
}

// NewClient creates a queue client against the given redis address.
func NewClient(redisAddr, redisPassword string, redisDB int, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	return &Client{asynqClient: asynqClient, log: log}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueClickFeedback enqueues one click for background re-ranking and
// expansion. Failures never retry: a lost click just means the ranking
// reflects one less signal.
func (c *Client) EnqueueClickFeedback(ctx context.Context, payload *ClickFeedbackPayload) error {
	payloadBytes, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeClickFeedback, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Minute),
		asynq.Queue("default"),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.log.Debug("enqueued click feedback",
		zap.String("user_id", payload.UserID),
		zap.String("video_id", payload.VideoID),
		zap.String("task_id", info.ID),
	)
	return nil
}

// Package queue carries click feedback from the request path to the
// background worker over asynq.
package queue

import (
	"encoding/json"
	"fmt"
)

// TypeClickFeedback is the task type for click-triggered re-ranking and
// expansion.
const TypeClickFeedback = "feedback:click"

// ClickFeedbackPayload is everything the worker needs to process one
// click. The served batch is snapshotted at enqueue time so the worker
// never reads session state, and the access token rides along because
// expansion must call the catalog as the user.
type ClickFeedbackPayload struct {
	UserID       string   `json:"user_id"`
	AccessToken  string   `json:"access_token"`
	VideoID      string   `json:"video_id"`
	ServedIDs    []string `json:"served_ids"`
	SearchWindow int      `json:"search_window"`
}

// NewClickFeedbackTask creates a click feedback payload.
func NewClickFeedbackTask(userID, accessToken, videoID string, servedIDs []string, searchWindow int) (*ClickFeedbackPayload, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if videoID == "" {
		return nil, fmt.Errorf("video ID is required")
	}

	return &ClickFeedbackPayload{
		UserID:       userID,
		AccessToken:  accessToken,
		VideoID:      videoID,
		ServedIDs:    servedIDs,
		SearchWindow: searchWindow,
	}, nil
}

// Marshal serializes the payload to JSON.
func (p *ClickFeedbackPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalClickFeedbackPayload deserializes JSON to payload.
func UnmarshalClickFeedbackPayload(data []byte) (*ClickFeedbackPayload, error) {
	var payload ClickFeedbackPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}

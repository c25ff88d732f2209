// Package catalog wraps the YouTube Data API v3 behind the interface the
// recommendation engine consumes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/tubefeed/video-recommender-go/internal/models"
)

// ErrUnavailable marks upstream catalog failures. Ingestion and expansion
// paths abort on it without partial ledger writes; foreground paths
// translate it to a gateway error.
var ErrUnavailable = errors.New("catalog unavailable")

// maxBatchSize is the videos.list ID limit per request.
const maxBatchSize = 50

// Catalog is the set of upstream operations the engine needs.
type Catalog interface {
	// OwnChannelID resolves the channel ID of the authenticated account.
	OwnChannelID(ctx context.Context) (string, error)

	// ListSubscriptions returns channel IDs the account subscribes to,
	// up to limit.
	ListSubscriptions(ctx context.Context, limit int64) ([]string, error)

	// UploadsPlaylists resolves the uploads playlist for each channel in
	// one batched channels.list call.
	UploadsPlaylists(ctx context.Context, channelIDs []string) (map[string]string, error)

	// ListPlaylistItems returns the most recent video IDs in a playlist,
	// up to limit.
	ListPlaylistItems(ctx context.Context, playlistID string, limit int64) ([]string, error)

	// VideoDetails fetches full metadata for the given video IDs.
	VideoDetails(ctx context.Context, videoIDs []string) ([]models.VideoRecord, error)

	// Search returns video IDs matching the query string.
	Search(ctx context.Context, query string, limit int64) ([]string, error)
}

// Factory builds a Catalog bound to one user's OAuth access token. The
// credential itself comes from the out-of-process authorization flow; the
// engine only ever sees the opaque token.
type Factory func(ctx context.Context, accessToken string) (Catalog, error)

// Client implements Catalog over the YouTube Data API.
type Client struct {
	service *youtube.Service
	timeout time.Duration
}

// NewClient creates a catalog client authenticated with the given access
// token. Every call runs under callTimeout; the upstream itself imposes
// none.
func NewClient(ctx context.Context, accessToken string, callTimeout time.Duration) (*Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := youtube.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service, timeout: callTimeout}, nil
}

// NewFactory returns a Factory producing token-bound clients.
func NewFactory(callTimeout time.Duration) Factory {
	return func(ctx context.Context, accessToken string) (Catalog, error) {
		return NewClient(ctx, accessToken, callTimeout)
	}
}

func (c *Client) OwnChannelID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.service.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: channels.list(mine): %v", ErrUnavailable, err)
	}
	if len(response.Items) == 0 {
		return "", fmt.Errorf("%w: no channel for authenticated account", ErrUnavailable)
	}
	return response.Items[0].Id, nil
}

func (c *Client) ListSubscriptions(ctx context.Context, limit int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.service.Subscriptions.List([]string{"snippet", "contentDetails"}).
		Mine(true).
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: subscriptions.list: %v", ErrUnavailable, err)
	}

	channelIDs := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Snippet != nil && item.Snippet.ResourceId != nil {
			channelIDs = append(channelIDs, item.Snippet.ResourceId.ChannelId)
		}
	}
	return channelIDs, nil
}

func (c *Client) UploadsPlaylists(ctx context.Context, channelIDs []string) (map[string]string, error) {
	if len(channelIDs) == 0 {
		return map[string]string{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.service.Channels.List([]string{"contentDetails"}).
		Id(channelIDs...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: channels.list: %v", ErrUnavailable, err)
	}

	playlists := make(map[string]string, len(response.Items))
	for _, item := range response.Items {
		if item.ContentDetails != nil && item.ContentDetails.RelatedPlaylists != nil {
			playlists[item.Id] = item.ContentDetails.RelatedPlaylists.Uploads
		}
	}
	return playlists, nil
}

func (c *Client) ListPlaylistItems(ctx context.Context, playlistID string, limit int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.service.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: playlistItems.list: %v", ErrUnavailable, err)
	}

	videoIDs := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Snippet != nil && item.Snippet.ResourceId != nil {
			videoIDs = append(videoIDs, item.Snippet.ResourceId.VideoId)
		}
	}
	return videoIDs, nil
}

func (c *Client) VideoDetails(ctx context.Context, videoIDs []string) ([]models.VideoRecord, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	records := make([]models.VideoRecord, 0, len(videoIDs))
	for _, batch := range batchIDs(videoIDs, maxBatchSize) {
		batchRecords, err := c.videoDetailsBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		records = append(records, batchRecords...)
	}
	return records, nil
}

func (c *Client) videoDetailsBatch(ctx context.Context, videoIDs []string) ([]models.VideoRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoIDs...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: videos.list: %v", ErrUnavailable, err)
	}

	records := make([]models.VideoRecord, 0, len(response.Items))
	for _, item := range response.Items {
		records = append(records, mapVideoToRecord(item))
	}
	return records, nil
}

func (c *Client) Search(ctx context.Context, query string, limit int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.service.Search.List([]string{"id"}).
		Q(query).
		Type("video").
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: search.list: %v", ErrUnavailable, err)
	}

	videoIDs := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
	}
	return videoIDs, nil
}

// mapVideoToRecord converts a videos.list item to the stored record shape.
func mapVideoToRecord(video *youtube.Video) models.VideoRecord {
	record := models.VideoRecord{VideoID: video.Id}

	if video.Snippet != nil {
		record.Title = video.Snippet.Title
		record.ChannelID = video.Snippet.ChannelId
		record.ChannelTitle = video.Snippet.ChannelTitle
		record.Tags = video.Snippet.Tags
		// Category IDs arrive as strings; unparseable values map to the
		// zero ID, which the filter treats as an unknown category.
		if id, err := strconv.Atoi(video.Snippet.CategoryId); err == nil {
			record.CategoryID = id
		}
		if video.Snippet.Thumbnails != nil && video.Snippet.Thumbnails.Default != nil {
			record.ThumbnailURL = video.Snippet.Thumbnails.Default.Url
		}
	}

	if video.ContentDetails != nil {
		record.DurationISO = video.ContentDetails.Duration
	}

	return record
}

// batchIDs splits IDs into batches within the API's per-request limit.
func batchIDs(ids []string, batchSize int) [][]string {
	if batchSize <= 0 || batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	var batches [][]string
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}

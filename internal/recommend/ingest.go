package recommend

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/models"
	"github.com/tubefeed/video-recommender-go/internal/store"
)

// Ingestor seeds a user's candidate pool from their subscriptions. It is
// meant to run once per user, when the ledger has no engagement data yet;
// the store layer makes re-runs idempotent upserts.
type Ingestor struct {
	videos store.VideoStore
	ledger store.LedgerStore
	log    *zap.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(videos store.VideoStore, ledger store.LedgerStore, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{videos: videos, ledger: ledger, log: log}
}

// Ingest pulls up to subscriptionSample of the user's subscriptions,
// takes up to perChannelSample recent uploads from each, fetches full
// metadata, and seeds both stores. Per-channel upload fetches are
// independent reads and run concurrently. No writes happen until every
// upstream fetch has succeeded.
func (g *Ingestor) Ingest(ctx context.Context, cat catalog.Catalog, userID string, subscriptionSample, perChannelSample int) ([]models.VideoRecord, error) {
	channelIDs, err := cat.ListSubscriptions(ctx, int64(subscriptionSample))
	if err != nil {
		return nil, err
	}
	if len(channelIDs) == 0 {
		return nil, nil
	}

	playlists, err := cat.UploadsPlaylists(ctx, channelIDs)
	if err != nil {
		return nil, err
	}

	videoIDs, err := collectUploads(ctx, cat, playlists, perChannelSample)
	if err != nil {
		return nil, err
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}

	records, err := cat.VideoDetails(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	if err := g.videos.UpsertVideos(ctx, records); err != nil {
		return nil, err
	}

	seedIDs := make([]string, 0, len(records))
	for _, r := range records {
		seedIDs = append(seedIDs, r.VideoID)
	}
	if err := g.ledger.SeedEntries(ctx, userID, seedIDs, models.SeedScoreIngest); err != nil {
		return nil, err
	}

	g.log.Info("seeded candidate pool from subscriptions",
		zap.String("user_id", userID),
		zap.Int("channels", len(playlists)),
		zap.Int("candidates", len(records)),
	)
	return records, nil
}

// collectUploads fetches each uploads playlist concurrently and flattens
// the results. Channel order is randomized by the map walk, so the
// flattened list is sorted per channel for deterministic output.
func collectUploads(ctx context.Context, cat catalog.Catalog, playlists map[string]string, perChannelSample int) ([]string, error) {
	var (
		mu         sync.Mutex
		perChannel = make(map[string][]string, len(playlists))
	)

	grp, grpCtx := errgroup.WithContext(ctx)
	for channelID, playlistID := range playlists {
		channelID, playlistID := channelID, playlistID
		grp.Go(func() error {
			ids, err := cat.ListPlaylistItems(grpCtx, playlistID, int64(perChannelSample))
			if err != nil {
				return err
			}
			mu.Lock()
			perChannel[channelID] = ids
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	channelIDs := make([]string, 0, len(perChannel))
	for id := range perChannel {
		channelIDs = append(channelIDs, id)
	}
	sort.Strings(channelIDs)

	var videoIDs []string
	for _, id := range channelIDs {
		videoIDs = append(videoIDs, perChannel[id]...)
	}
	return videoIDs, nil
}

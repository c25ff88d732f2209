package recommend

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/models"
	"github.com/tubefeed/video-recommender-go/internal/store"
)

// searchResultLimit bounds explicit user searches.
const searchResultLimit = 10

// Options are the engine knobs wired from configuration.
type Options struct {
	SubscriptionSampleSize int
	ChannelVideoSampleSize int
	SearchWindow           int
}

// Service exposes the recommendation use-cases. All ranking-affecting
// operations pass through the verification gate before touching the
// ledger.
type Service struct {
	videos   store.VideoStore
	ledger   store.LedgerStore
	ingestor *Ingestor
	expander *Expander
	opts     Options
	log      *zap.Logger
}

// NewService creates a Service.
func NewService(videos store.VideoStore, ledger store.LedgerStore, ingestor *Ingestor, expander *Expander, opts Options, log *zap.Logger) *Service {
	if opts.SubscriptionSampleSize <= 0 {
		opts.SubscriptionSampleSize = 5
	}
	if opts.ChannelVideoSampleSize <= 0 {
		opts.ChannelVideoSampleSize = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		videos:   videos,
		ledger:   ledger,
		ingestor: ingestor,
		expander: expander,
		opts:     opts,
		log:      log,
	}
}

// RequireVerified resolves the caller's profile and enforces the
// verification gate: ErrUnauthenticated when there is no identity at
// all, ErrUnverified when the profile is missing or not allow-listed.
func (s *Service) RequireVerified(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	profile, err := s.ledger.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.Authenticated {
		return nil, ErrUnverified
	}
	return profile, nil
}

// Feed returns the user's filtered, ranked candidate list. On first use
// (no engagement data yet) the candidate pool is seeded from the user's
// subscriptions before reading. The ledger snapshot is taken before any
// mutation this request may later trigger.
func (s *Service) Feed(ctx context.Context, cat catalog.Catalog, userID string) ([]models.Candidate, error) {
	profile, err := s.RequireVerified(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(profile.Data) == 0 {
		if _, err := s.ingestor.Ingest(ctx, cat, userID, s.opts.SubscriptionSampleSize, s.opts.ChannelVideoSampleSize); err != nil {
			return nil, err
		}
		profile, err = s.ledger.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		if profile == nil {
			return nil, nil
		}
	}

	candidates, err := s.loadCandidates(ctx, profile)
	if err != nil {
		return nil, err
	}

	candidates = FilterCandidates(candidates, profile.Settings)
	return RankCandidates(candidates), nil
}

// ProcessClick applies click feedback: re-rank the batch that was in
// view, then expand the candidate pool around the clicked video. Runs on
// the background path; the HTTP request that reported the click has long
// since returned.
//
// A clicked video with fewer than two tags skips the whole cycle, score
// walk included.
func (s *Service) ProcessClick(ctx context.Context, cat catalog.Catalog, userID, clickedID string, servedIDs []string, searchWindow int) error {
	clickedRecs, err := s.videos.GetVideosByIDs(ctx, []string{clickedID})
	if err != nil {
		return err
	}
	if len(clickedRecs) == 0 {
		s.log.Warn("clicked video unknown, skipping feedback",
			zap.String("user_id", userID),
			zap.String("video_id", clickedID),
		)
		return nil
	}
	clicked := clickedRecs[0]

	if !HasSimilarityTags(clicked) {
		s.log.Debug("clicked video has too few tags, skipping feedback cycle",
			zap.String("video_id", clickedID),
			zap.Int("tags", len(clicked.Tags)),
		)
		return nil
	}

	servedBatch, err := s.loadServedBatch(ctx, servedIDs)
	if err != nil {
		return err
	}

	if searchWindow <= 0 {
		searchWindow = s.opts.SearchWindow
	}
	muts := Rerank(clickedID, clicked, servedBatch, searchWindow)
	if err := s.ledger.ApplyMutations(ctx, userID, muts); err != nil {
		return err
	}

	_, err = s.expander.Expand(ctx, cat, userID, clicked.Tags, models.SeedScoreExpand)
	return err
}

// LogSearch runs an explicit catalog search for the user and merges the
// results into their ledger with the search seed score, marking them as
// deliberately sought out rather than recommended.
func (s *Service) LogSearch(ctx context.Context, cat catalog.Catalog, userID, query string) ([]models.VideoRecord, error) {
	if _, err := s.RequireVerified(ctx, userID); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	videoIDs, err := cat.Search(ctx, query, searchResultLimit)
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

	if err := s.videos.UpsertVideos(ctx, records); err != nil {
		return nil, err
	}
	seedIDs := make([]string, 0, len(records))
	for _, r := range records {
		seedIDs = append(seedIDs, r.VideoID)
	}
	if err := s.ledger.SeedEntries(ctx, userID, seedIDs, models.SeedScoreSearch); err != nil {
		return nil, err
	}
	return records, nil
}

// Reset drops the user's entire engagement history. Settings and the
// verification flag survive; the next feed read re-ingests.
func (s *Service) Reset(ctx context.Context, userID string) error {
	if _, err := s.RequireVerified(ctx, userID); err != nil {
		return err
	}
	return s.ledger.ResetData(ctx, userID)
}

// SaveSettings upserts the user's preference filter, creating the
// profile implicitly on first write.
func (s *Service) SaveSettings(ctx context.Context, userID string, prefs models.Preferences) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if prefs.VidLength < 0 {
		prefs.VidLength = 0
	}
	return s.ledger.SaveSettings(ctx, userID, prefs)
}

// Settings returns the user's current preferences, zero-valued when the
// profile does not exist yet.
func (s *Service) Settings(ctx context.Context, userID string) (models.Preferences, error) {
	if userID == "" {
		return models.Preferences{}, ErrUnauthenticated
	}
	profile, err := s.ledger.GetProfile(ctx, userID)
	if err != nil || profile == nil {
		return models.Preferences{}, err
	}
	return profile.Settings, nil
}

// Verify marks the user as allow-listed, creating the profile if needed.
func (s *Service) Verify(ctx context.Context, userID string) error {
	return s.ledger.SetVerified(ctx, userID, true)
}

// loadCandidates joins the profile's ledger entries with their catalog
// records. Entries whose video record has gone missing are dropped.
func (s *Service) loadCandidates(ctx context.Context, profile *models.UserProfile) ([]models.Candidate, error) {
	if len(profile.Data) == 0 {
		return nil, nil
	}

	videoIDs := make([]string, 0, len(profile.Data))
	for id := range profile.Data {
		videoIDs = append(videoIDs, id)
	}
	sort.Strings(videoIDs)

	records, err := s.videos.GetVideosByIDs(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(records))
	for _, rec := range records {
		engagement := profile.Data[rec.VideoID]
		candidates = append(candidates, models.Candidate{Video: rec, Engagement: &engagement})
	}
	return candidates, nil
}

// loadServedBatch fetches records for the served IDs, preserving the
// order the client saw. IDs without a stored record are dropped.
func (s *Service) loadServedBatch(ctx context.Context, servedIDs []string) ([]models.VideoRecord, error) {
	records, err := s.videos.GetVideosByIDs(ctx, servedIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.VideoRecord, len(records))
	for _, r := range records {
		byID[r.VideoID] = r
	}

	ordered := make([]models.VideoRecord, 0, len(servedIDs))
	for _, id := range servedIDs {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}

// CoerceVidLength converts a freeform preference value to a non-negative
// minute count. Anything unparseable or negative coerces to zero rather
// than failing the request.
func CoerceVidLength(raw any) int {
	var minutes int
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		minutes = v
	case float64:
		minutes = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		minutes = n
	default:
		return 0
	}
	if minutes < 0 {
		return 0
	}
	return minutes
}

package recommend

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tubefeed/video-recommender-go/internal/models"
	"github.com/tubefeed/video-recommender-go/internal/store"
)

// Mock catalog

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) OwnChannelID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockCatalog) ListSubscriptions(ctx context.Context, limit int64) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockCatalog) UploadsPlaylists(ctx context.Context, channelIDs []string) (map[string]string, error) {
	args := m.Called(ctx, channelIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *mockCatalog) ListPlaylistItems(ctx context.Context, playlistID string, limit int64) ([]string, error) {
	args := m.Called(ctx, playlistID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockCatalog) VideoDetails(ctx context.Context, videoIDs []string) ([]models.VideoRecord, error) {
	args := m.Called(ctx, videoIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VideoRecord), args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, query string, limit int64) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Mock stores

type mockVideoStore struct {
	mock.Mock
}

func (m *mockVideoStore) UpsertVideos(ctx context.Context, videos []models.VideoRecord) error {
	args := m.Called(ctx, videos)
	return args.Error(0)
}

func (m *mockVideoStore) GetVideosByIDs(ctx context.Context, videoIDs []string) ([]models.VideoRecord, error) {
	args := m.Called(ctx, videoIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VideoRecord), args.Error(1)
}

type mockLedgerStore struct {
	mock.Mock
}

func (m *mockLedgerStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *mockLedgerStore) SaveSettings(ctx context.Context, userID string, prefs models.Preferences) error {
	args := m.Called(ctx, userID, prefs)
	return args.Error(0)
}

func (m *mockLedgerStore) SetVerified(ctx context.Context, userID string, verified bool) error {
	args := m.Called(ctx, userID, verified)
	return args.Error(0)
}

func (m *mockLedgerStore) SeedEntries(ctx context.Context, userID string, videoIDs []string, seedScore int) error {
	args := m.Called(ctx, userID, videoIDs, seedScore)
	return args.Error(0)
}

func (m *mockLedgerStore) ApplyMutations(ctx context.Context, userID string, muts []store.ScoreMutation) error {
	args := m.Called(ctx, userID, muts)
	return args.Error(0)
}

func (m *mockLedgerStore) ResetData(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

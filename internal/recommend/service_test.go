package recommend

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tubefeed/video-recommender-go/internal/models"
	"github.com/tubefeed/video-recommender-go/internal/store"
)

func newTestService(videos *mockVideoStore, ledger *mockLedgerStore) *Service {
	ingestor := NewIngestor(videos, ledger, nil)
	expander := NewExpander(videos, ledger, rand.New(rand.NewSource(1)), nil)
	return NewService(videos, ledger, ingestor, expander, Options{}, nil)
}

func scorePtr(n int) *int { return &n }

func TestRequireVerified(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		profile *models.UserProfile
		wantErr error
	}{
		{
			name:    "no identity",
			userID:  "",
			wantErr: ErrUnauthenticated,
		},
		{
			name:    "missing profile",
			userID:  "user1",
			profile: nil,
			wantErr: ErrUnverified,
		},
		{
			name:    "profile not verified",
			userID:  "user1",
			profile: &models.UserProfile{UserID: "user1", Authenticated: false},
			wantErr: ErrUnverified,
		},
		{
			name:    "verified profile passes",
			userID:  "user1",
			profile: &models.UserProfile{UserID: "user1", Authenticated: true},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := new(mockLedgerStore)
			s := newTestService(new(mockVideoStore), ledger)

			if tt.userID != "" {
				ledger.On("GetProfile", mock.Anything, tt.userID).Return(tt.profile, nil).Once()
			}

			profile, err := s.RequireVerified(context.Background(), tt.userID)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.profile, profile)
		})
	}
}

func TestFeedFiltersAndRanks(t *testing.T) {
	videos := new(mockVideoStore)
	ledger := new(mockLedgerStore)
	s := newTestService(videos, ledger)

	profile := &models.UserProfile{
		UserID:        "user1",
		Authenticated: true,
		Settings:      models.Preferences{VidLength: 5, Categories: map[string]bool{"gaming": false}},
		Data: map[string]models.EngagementRecord{
			"long-music":   {RawScore: scorePtr(50)},
			"short-music":  {RawScore: scorePtr(9100)},
			"long-gaming":  {RawScore: scorePtr(57)},
			"expired-long": {},
		},
	}

	ledger.On("GetProfile", mock.Anything, "user1").Return(profile, nil).Once()
	videos.On("GetVideosByIDs", mock.Anything, []string{"expired-long", "long-gaming", "long-music", "short-music"}).
		Return([]models.VideoRecord{
			{VideoID: "expired-long", CategoryID: 10, DurationISO: "PT20M"},
			{VideoID: "long-gaming", CategoryID: 20, DurationISO: "PT20M"},
			{VideoID: "long-music", CategoryID: 10, DurationISO: "PT20M"},
			{VideoID: "short-music", CategoryID: 10, DurationISO: "PT2M"},
		}, nil).Once()

	feed, err := s.Feed(context.Background(), new(mockCatalog), "user1")

	require.NoError(t, err)
	// short-music fails the length rule despite the top score,
	// long-gaming fails the category rule, expired-long has no score.
	require.Len(t, feed, 1)
	assert.Equal(t, "long-music", feed[0].Video.VideoID)
}

func TestFeedIngestsOnFirstUse(t *testing.T) {
	videos := new(mockVideoStore)
	ledger := new(mockLedgerStore)
	cat := new(mockCatalog)
	s := newTestService(videos, ledger)

	empty := &models.UserProfile{UserID: "user1", Authenticated: true}
	seeded := &models.UserProfile{
		UserID:        "user1",
		Authenticated: true,
		Data: map[string]models.EngagementRecord{
			"v1": {RawScore: scorePtr(50)},
		},
	}

	ledger.On("GetProfile", mock.Anything, "user1").Return(empty, nil).Once()

	cat.On("ListSubscriptions", mock.Anything, int64(5)).Return([]string{"chanA"}, nil).Once()
	cat.On("UploadsPlaylists", mock.Anything, []string{"chanA"}).
		Return(map[string]string{"chanA": "uplA"}, nil).Once()
	cat.On("ListPlaylistItems", mock.Anything, "uplA", int64(5)).Return([]string{"v1"}, nil).Once()
	records := []models.VideoRecord{{VideoID: "v1", ChannelID: "chanA", DurationISO: "PT8M"}}
	cat.On("VideoDetails", mock.Anything, []string{"v1"}).Return(records, nil).Once()
	videos.On("UpsertVideos", mock.Anything, records).Return(nil).Once()
	ledger.On("SeedEntries", mock.Anything, "user1", []string{"v1"}, models.SeedScoreIngest).Return(nil).Once()

	// Reload after seeding, then the normal read path.
	ledger.On("GetProfile", mock.Anything, "user1").Return(seeded, nil).Once()
	videos.On("GetVideosByIDs", mock.Anything, []string{"v1"}).Return(records, nil).Once()

	feed, err := s.Feed(context.Background(), cat, "user1")

	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "v1", feed[0].Video.VideoID)
	cat.AssertExpectations(t)
}

func TestFeedRejectsUnverified(t *testing.T) {
	ledger := new(mockLedgerStore)
	s := newTestService(new(mockVideoStore), ledger)

	ledger.On("GetProfile", mock.Anything, "user1").
		Return(&models.UserProfile{UserID: "user1"}, nil).Once()

	_, err := s.Feed(context.Background(), new(mockCatalog), "user1")

	require.ErrorIs(t, err, ErrUnverified)
}

func TestProcessClickAppliesMutationsAndExpands(t *testing.T) {
	videos := new(mockVideoStore)
	ledger := new(mockLedgerStore)
	cat := new(mockCatalog)
	s := newTestService(videos, ledger)

	clicked := models.VideoRecord{
		VideoID: "clk", CategoryID: 20, ChannelID: "c2",
		Tags: []string{"speedrun", "any%"},
	}
	served := []models.VideoRecord{
		{VideoID: "a", CategoryID: 10, ChannelID: "c1"},
		{VideoID: "clk", CategoryID: 20, ChannelID: "c2"},
	}

	videos.On("GetVideosByIDs", mock.Anything, []string{"clk"}).
		Return([]models.VideoRecord{clicked}, nil).Once()
	videos.On("GetVideosByIDs", mock.Anything, []string{"a", "clk"}).
		Return(served, nil).Once()
	ledger.On("ApplyMutations", mock.Anything, "user1", []store.ScoreMutation{
		{VideoID: "a", Op: store.OpIncr, Value: -1},
		{VideoID: "clk", Op: store.OpSet, Value: 45},
	}).Return(nil).Once()

	// Expansion runs after the walk with the expansion seed.
	cat.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]string{"v9"}, nil).Twice()
	expanded := []models.VideoRecord{{VideoID: "v9"}}
	cat.On("VideoDetails", mock.Anything, []string{"v9"}).Return(expanded, nil).Once()
	videos.On("UpsertVideos", mock.Anything, expanded).Return(nil).Once()
	ledger.On("SeedEntries", mock.Anything, "user1", []string{"v9"}, models.SeedScoreExpand).
		Return(nil).Once()

	err := s.ProcessClick(context.Background(), cat, "user1", "clk", []string{"a", "clk"}, 2)

	require.NoError(t, err)
	ledger.AssertExpectations(t)
	videos.AssertExpectations(t)
}

func TestProcessClickSparseTagsSkipsEverything(t *testing.T) {
	videos := new(mockVideoStore)
	ledger := new(mockLedgerStore)
	cat := new(mockCatalog)
	s := newTestService(videos, ledger)

	videos.On("GetVideosByIDs", mock.Anything, []string{"clk"}).
		Return([]models.VideoRecord{{VideoID: "clk", Tags: []string{"solo"}}}, nil).Once()

	err := s.ProcessClick(context.Background(), cat, "user1", "clk", []string{"a", "clk"}, 0)

	require.NoError(t, err)
	// Sparse tags skip the score walk too, not just the expansion.
	ledger.AssertNotCalled(t, "ApplyMutations", mock.Anything, mock.Anything, mock.Anything)
	cat.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessClickUnknownVideo(t *testing.T) {
	videos := new(mockVideoStore)
	ledger := new(mockLedgerStore)
	s := newTestService(videos, ledger)

	videos.On("GetVideosByIDs", mock.Anything, []string{"ghost"}).
		Return([]models.VideoRecord{}, nil).Once()

	err := s.ProcessClick(context.Background(), new(mockCatalog), "user1", "ghost", []string{"a"}, 0)

	require.NoError(t, err)
	ledger.AssertNotCalled(t, "ApplyMutations", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogSearchSeedsWithSearchScore(t *testing.T) {
	videos := new(mockVideoStore)
	ledger := new(mockLedgerStore)
	cat := new(mockCatalog)
	s := newTestService(videos, ledger)

	ledger.On("GetProfile", mock.Anything, "user1").
		Return(&models.UserProfile{UserID: "user1", Authenticated: true}, nil).Once()
	cat.On("Search", mock.Anything, "lofi beats", int64(searchResultLimit)).
		Return([]string{"v1"}, nil).Once()
	records := []models.VideoRecord{{VideoID: "v1"}}
	cat.On("VideoDetails", mock.Anything, []string{"v1"}).Return(records, nil).Once()
	videos.On("UpsertVideos", mock.Anything, records).Return(nil).Once()
	ledger.On("SeedEntries", mock.Anything, "user1", []string{"v1"}, models.SeedScoreSearch).
		Return(nil).Once()

	got, err := s.LogSearch(context.Background(), cat, "user1", "  lofi beats ")

	require.NoError(t, err)
	assert.Equal(t, records, got)
	ledger.AssertExpectations(t)
}

func TestResetDropsLedgerOnly(t *testing.T) {
	ledger := new(mockLedgerStore)
	s := newTestService(new(mockVideoStore), ledger)

	ledger.On("GetProfile", mock.Anything, "user1").
		Return(&models.UserProfile{UserID: "user1", Authenticated: true}, nil).Once()
	ledger.On("ResetData", mock.Anything, "user1").Return(nil).Once()

	require.NoError(t, s.Reset(context.Background(), "user1"))
	ledger.AssertExpectations(t)
}

func TestSaveSettingsClampsNegativeLength(t *testing.T) {
	ledger := new(mockLedgerStore)
	s := newTestService(new(mockVideoStore), ledger)

	ledger.On("SaveSettings", mock.Anything, "user1", models.Preferences{VidLength: 0}).
		Return(nil).Once()

	require.NoError(t, s.SaveSettings(context.Background(), "user1", models.Preferences{VidLength: -3}))
	ledger.AssertExpectations(t)
}

func TestSettingsWithoutProfile(t *testing.T) {
	ledger := new(mockLedgerStore)
	s := newTestService(new(mockVideoStore), ledger)

	ledger.On("GetProfile", mock.Anything, "user1").Return(nil, nil).Once()

	prefs, err := s.Settings(context.Background(), "user1")

	require.NoError(t, err)
	assert.Equal(t, models.Preferences{}, prefs)
}

func TestStoreFailurePropagates(t *testing.T) {
	ledger := new(mockLedgerStore)
	s := newTestService(new(mockVideoStore), ledger)

	storeErr := errors.New("connection reset")
	ledger.On("GetProfile", mock.Anything, "user1").Return(nil, storeErr).Once()

	_, err := s.Feed(context.Background(), new(mockCatalog), "user1")

	require.ErrorIs(t, err, storeErr)
}

func TestCoerceVidLength(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int
	}{
		{name: "float from JSON number", raw: float64(12), want: 12},
		{name: "int", raw: 7, want: 7},
		{name: "numeric string", raw: " 25 ", want: 25},
		{name: "garbage string coerces to zero", raw: "soon", want: 0},
		{name: "negative coerces to zero", raw: float64(-4), want: 0},
		{name: "nil coerces to zero", raw: nil, want: 0},
		{name: "wrong type coerces to zero", raw: []string{"5"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceVidLength(tt.raw))
		})
	}
}

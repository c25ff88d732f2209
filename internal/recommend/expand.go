package recommend

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/models"
	"github.com/tubefeed/video-recommender-go/internal/store"
)

const (
	// similarityCombos is how many randomized tag pairs go into the
	// compound query.
	similarityCombos = 3

	// orToken separates alternatives in a compound catalog query.
	orToken = "|"

	// similaritySearchLimit bounds each similarity query's result count.
	similaritySearchLimit = 10
)

// Expander grows the candidate pool around a clicked video by searching
// the catalog for tag combinations and merging the results into both
// stores.
type Expander struct {
	videos store.VideoStore
	ledger store.LedgerStore
	log    *zap.Logger

	// rand.Rand is not safe for concurrent use and one Expander serves
	// every worker goroutine, so draws go through the mutex.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewExpander creates an Expander. rng drives the randomized tag pairing
// and is injected so tests can seed it; nil gets a time-seeded source.
func NewExpander(videos store.VideoStore, ledger store.LedgerStore, rng *rand.Rand, log *zap.Logger) *Expander {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Expander{videos: videos, ledger: ledger, rng: rng, log: log}
}

// Expand issues the similarity queries for the clicked video's tags,
// fetches full metadata for every hit, and merges the results as new
// candidates for the user. seedScore marks the discovery source; values
// <= 0 use the expansion default. Store writes happen only after the
// full batch fetch succeeds, so an upstream failure corrupts nothing.
//
// Fewer than two tags means no expansion at all.
func (e *Expander) Expand(ctx context.Context, cat catalog.Catalog, userID string, tags []string, seedScore int) ([]models.VideoRecord, error) {
	if len(tags) < minSimilarityTags {
		return nil, nil
	}
	if seedScore <= 0 {
		seedScore = models.SeedScoreExpand
	}

	direct, compound := e.buildQueries(tags)

	directIDs, err := cat.Search(ctx, direct, similaritySearchLimit)
	if err != nil {
		return nil, err
	}
	compoundIDs, err := cat.Search(ctx, compound, similaritySearchLimit)
	if err != nil {
		return nil, err
	}

	videoIDs := dedupe(append(directIDs, compoundIDs...))
	if len(videoIDs) == 0 {
		return nil, nil
	}

	records, err := cat.VideoDetails(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	if err := e.videos.UpsertVideos(ctx, records); err != nil {
		return nil, err
	}

	seedIDs := make([]string, 0, len(records))
	for _, r := range records {
		seedIDs = append(seedIDs, r.VideoID)
	}
	if err := e.ledger.SeedEntries(ctx, userID, seedIDs, seedScore); err != nil {
		return nil, err
	}

	e.log.Debug("expanded candidate pool",
		zap.String("user_id", userID),
		zap.Int("candidates", len(records)),
		zap.Int("seed_score", seedScore),
	)
	return records, nil
}

// buildQueries returns the direct-match query (first two tags) and the
// compound query of randomized pairs joined by the OR token.
func (e *Expander) buildQueries(tags []string) (direct, compound string) {
	direct = tags[0] + " " + tags[1]

	combos := make([]string, 0, similarityCombos)
	for n := 0; n < similarityCombos; n++ {
		i := e.intn(len(tags))
		j := e.intn(len(tags))
		// Avoid pairing a tag with itself by shifting one position.
		if j == i {
			j = (i + 1) % len(tags)
		}
		combos = append(combos, tags[i]+" "+tags[j])
	}
	return direct, strings.Join(combos, orToken)
}

func (e *Expander) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

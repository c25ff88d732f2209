package recommend

import (
	"github.com/tubefeed/video-recommender-go/internal/models"
	"github.com/tubefeed/video-recommender-go/internal/store"
)

// Rerank deltas. Every candidate in view starts at the base penalty and
// earns back credit for similarity to the clicked video.
const (
	deltaBase         = -1
	deltaSameCategory = 2
	deltaSameChannel  = 4
)

// minSimilarityTags is the tag count below which a click produces no
// feedback at all: similarity search needs two tags, and the score walk
// is coupled to it, so a sparsely tagged click skips the whole cycle.
const minSimilarityTags = 2

// HasSimilarityTags reports whether a clicked video carries enough tags
// to drive the feedback cycle.
func HasSimilarityTags(v models.VideoRecord) bool {
	return len(v.Tags) >= minSimilarityTags
}

// Rerank computes the ledger mutations for one click against the batch
// that was in view when it happened. Each candidate is touched exactly
// once:
//
//   - the clicked video's score is set to the fixed reward,
//   - candidates at positions past searchWindow expire,
//   - everything else shifts by the similarity delta.
//
// searchWindow <= 0 means the full batch. The caller applies the result
// as one bulk write.
func Rerank(clickedID string, clicked models.VideoRecord, servedBatch []models.VideoRecord, searchWindow int) []store.ScoreMutation {
	if searchWindow <= 0 {
		searchWindow = len(servedBatch)
	}

	muts := make([]store.ScoreMutation, 0, len(servedBatch))
	for i, c := range servedBatch {
		switch {
		case c.VideoID == clickedID:
			muts = append(muts, store.ScoreMutation{
				VideoID: c.VideoID,
				Op:      store.OpSet,
				Value:   models.ClickReward,
			})
		case i >= searchWindow:
			muts = append(muts, store.ScoreMutation{
				VideoID: c.VideoID,
				Op:      store.OpExpire,
			})
		default:
			delta := deltaBase
			if c.CategoryID == clicked.CategoryID {
				delta += deltaSameCategory
			}
			if c.ChannelID == clicked.ChannelID {
				delta += deltaSameChannel
			}
			muts = append(muts, store.ScoreMutation{
				VideoID: c.VideoID,
				Op:      store.OpIncr,
				Value:   delta,
			})
		}
	}
	return muts
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tubefeed/video-recommender-go/internal/models"
)

func TestMutationUpdate(t *testing.T) {
	tests := []struct {
		name string
		mut  ScoreMutation
		want bson.M
	}{
		{
			name: "set replaces the raw score",
			mut:  ScoreMutation{VideoID: "vid1", Op: OpSet, Value: 45},
			want: bson.M{"$set": bson.M{"data.vid1.rawscore": 45}},
		},
		{
			name: "incr adjusts the raw score",
			mut:  ScoreMutation{VideoID: "vid2", Op: OpIncr, Value: -1},
			want: bson.M{"$inc": bson.M{"data.vid2.rawscore": -1}},
		},
		{
			name: "expire removes the field instead of writing a number",
			mut:  ScoreMutation{VideoID: "vid3", Op: OpExpire},
			want: bson.M{"$unset": bson.M{"data.vid3.rawscore": ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mutationUpdate(tt.mut))
		})
	}
}

func TestSeedSetFields(t *testing.T) {
	fields := seedSetFields([]string{"a", "b"}, models.SeedScoreIngest)

	require.Len(t, fields, 2)

	rec, ok := fields["data.a"].(models.EngagementRecord)
	require.True(t, ok)
	require.NotNil(t, rec.RawScore)
	assert.Equal(t, 50, *rec.RawScore)
	assert.Zero(t, rec.NumClicks)
	assert.Zero(t, rec.NumTimesShown)
	assert.Zero(t, rec.IsLiked)
	assert.False(t, rec.IsSubscribed)

	_, ok = fields["data.b"]
	assert.True(t, ok)
}

func TestVideoSetFields(t *testing.T) {
	v := models.VideoRecord{
		VideoID:      "vid1",
		Title:        "a title",
		ChannelID:    "chan1",
		ChannelTitle: "a channel",
		DurationISO:  "PT4M13S",
		CategoryID:   20,
		Tags:         []string{"x", "y"},
		ThumbnailURL: "https://i.ytimg.com/vi/vid1/default.jpg",
	}

	fields := videoSetFields(v)

	assert.Equal(t, "a title", fields["title"])
	assert.Equal(t, "chan1", fields["channelId"])
	assert.Equal(t, "PT4M13S", fields["duration"])
	assert.Equal(t, 20, fields["categoryId"])
	assert.Equal(t, []string{"x", "y"}, fields["tags"])

	// Reserved fields are always written, even while unpopulated.
	assert.Contains(t, fields, "views")
	assert.Contains(t, fields, "uploadDate")

	// The document key carries the video ID; it is not a $set field.
	assert.NotContains(t, fields, "_id")
}

func TestVideoSetFieldsOmitsEmptyTags(t *testing.T) {
	fields := videoSetFields(models.VideoRecord{VideoID: "vid1"})
	assert.NotContains(t, fields, "tags")
}

// Package models defines the shared data model for the recommendation
// engine: the video catalog record, the per-user engagement ledger, and
// the preference filter.
package models

// Seed scores assigned when a video first enters a user's ledger. The
// value encodes the discovery source, and downstream ranking depends on
// the relative magnitudes, so callers must not unify them.
const (
	SeedScoreIngest = 50   // subscription ingestion
	SeedScoreExpand = 57   // similarity expansion after a click
	SeedScoreSearch = 9100 // explicitly searched by the user
)

// ClickReward is the raw score assigned to the clicked video itself.
const ClickReward = 45

// VideoRecord is descriptive metadata for one video, shared across all
// users and keyed by the platform video ID. Concurrent writers may race;
// last write wins per field.
type VideoRecord struct {
	VideoID      string   `bson:"_id" json:"videoId"`
	Title        string   `bson:"title" json:"title"`
	ChannelID    string   `bson:"channelId" json:"channelId"`
	ChannelTitle string   `bson:"channelTitle" json:"channelTitle"`
	DurationISO  string   `bson:"duration" json:"duration"`
	CategoryID   int      `bson:"categoryId" json:"categoryId"`
	Tags         []string `bson:"tags,omitempty" json:"tags,omitempty"`
	ThumbnailURL string   `bson:"thumbnailUrl" json:"thumbnailUrl"`

	// Reserved fields, always present but currently unpopulated.
	Views      int64  `bson:"views" json:"views"`
	UploadDate string `bson:"uploadDate" json:"uploadDate"`
}

// EngagementRecord is one user's mutable engagement state for one video.
// RawScore is the sole ranking signal. A nil RawScore means the entry has
// expired: it is excluded from ranking entirely, which is not the same
// thing as a score of zero.
type EngagementRecord struct {
	RawScore          *int `bson:"rawscore,omitempty" json:"rawScore,omitempty"`
	TimeSpentWatching int  `bson:"timeSpentWatching" json:"timeSpentWatching"`
	NumClicks         int  `bson:"numClicks" json:"numClicks"`
	NumTimesShown     int  `bson:"numTimesShown" json:"numTimesShown"`
	IsLiked           int  `bson:"isLiked" json:"isLiked"` // -1, 0 or 1
	IsSubscribed      bool `bson:"isSubscribed" json:"isSubscribed"`
}

// NewEngagementRecord creates a fresh engagement record with the given
// seed score and zeroed counters.
func NewEngagementRecord(seedScore int) EngagementRecord {
	return EngagementRecord{RawScore: &seedScore}
}

// Active reports whether the record still participates in ranking.
func (e EngagementRecord) Active() bool {
	return e.RawScore != nil
}

// Preferences is the user's declared candidate filter: a minimum video
// length in whole minutes plus one allow/deny flag per category name.
// A category absent from the map is allowed.
type Preferences struct {
	VidLength  int             `bson:"vidlength" json:"vidlength"`
	Categories map[string]bool `bson:"categories,omitempty" json:"categories,omitempty"`
}

// Allows reports whether the preferences permit the given category name.
func (p Preferences) Allows(category string) bool {
	allowed, present := p.Categories[category]
	return !present || allowed
}

// UserProfile is the per-user document: preference settings, the
// verification flag gating all ranking operations, and the engagement
// ledger keyed by video ID. The user ID is the channel ID of the
// authenticated account.
type UserProfile struct {
	UserID        string                      `bson:"_id" json:"userId"`
	Settings      Preferences                 `bson:"settings" json:"settings"`
	Authenticated bool                        `bson:"authenticated" json:"authenticated"`
	Data          map[string]EngagementRecord `bson:"data,omitempty" json:"data,omitempty"`
}

// CategoryName maps a platform category ID to the name used by the
// preference filter. The table is fixed; IDs outside it are unknown
// categories and are never excluded by the category rule.
func CategoryName(categoryID int) (string, bool) {
	name, ok := categoryNames[categoryID]
	return name, ok
}

var categoryNames = map[int]string{
	10: "music",
	15: "animals",
	17: "sports",
	20: "gaming",
	23: "comedy",
	25: "news",
}

// Candidate pairs a video record with the acting user's engagement state
// for it. Engagement is nil when the user has no ledger entry yet.
type Candidate struct {
	Video      VideoRecord       `json:"video"`
	Engagement *EngagementRecord `json:"engagement,omitempty"`
}

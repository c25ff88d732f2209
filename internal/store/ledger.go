package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tubefeed/video-recommender-go/internal/models"
)

// MutationOp is the kind of score mutation applied to one ledger entry.
type MutationOp int

const (
	// OpSet replaces the entry's raw score with Value.
	OpSet MutationOp = iota
	// OpIncr adjusts the entry's raw score by Value (may be negative).
	OpIncr
	// OpExpire removes the raw score field entirely. The entry falls out
	// of ranking; its counters and history remain.
	OpExpire
)

// ScoreMutation is one ledger mutation produced by the re-ranker.
type ScoreMutation struct {
	VideoID string
	Op      MutationOp
	Value   int
}

// LedgerStore defines operations on per-user profiles and their
// engagement ledgers. Each user is one document; ledger entries are
// fields under the document's data map, so a single-field update is the
// atomicity unit (no cross-field transactions).
type LedgerStore interface {
	// GetProfile returns the user's profile, or nil if none exists.
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	// SaveSettings upserts the user's preference filter, creating the
	// profile if needed.
	SaveSettings(ctx context.Context, userID string, prefs models.Preferences) error

	// SetVerified upserts the user's verification flag, creating the
	// profile if needed.
	SetVerified(ctx context.Context, userID string, verified bool) error

	// SeedEntries writes fresh engagement records with the given seed
	// score for every video ID, creating the profile and data subtree on
	// first write.
	SeedEntries(ctx context.Context, userID string, videoIDs []string, seedScore int) error

	// ApplyMutations applies a re-rank mutation set as one bulk write.
	// Partial application under failure is acceptable; callers on the
	// background path log and move on.
	ApplyMutations(ctx context.Context, userID string, muts []ScoreMutation) error

	// ResetData drops the user's entire engagement ledger, preserving
	// settings and the verification flag.
	ResetData(ctx context.Context, userID string) error
}

type ledgerStore struct {
	collection *mongo.Collection
}

// NewLedgerStore creates a LedgerStore over the "users" collection.
func NewLedgerStore(db *Mongo) LedgerStore {
	return &ledgerStore{collection: db.Collection("users")}
}

func (s *ledgerStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

func (s *ledgerStore) SaveSettings(ctx context.Context, userID string, prefs models.Preferences) error {
	update := bson.M{"$set": bson.M{"settings": prefs}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *ledgerStore) SetVerified(ctx context.Context, userID string, verified bool) error {
	update := bson.M{"$set": bson.M{"authenticated": verified}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to set verification flag: %w", err)
	}
	return nil
}

func (s *ledgerStore) SeedEntries(ctx context.Context, userID string, videoIDs []string, seedScore int) error {
	if len(videoIDs) == 0 {
		return nil
	}

	update := bson.M{"$set": seedSetFields(videoIDs, seedScore)}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to seed ledger entries: %w", err)
	}
	return nil
}

func (s *ledgerStore) ApplyMutations(ctx context.Context, userID string, muts []ScoreMutation) error {
	if len(muts) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(muts))
	for _, m := range muts {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": userID}).
			SetUpdate(mutationUpdate(m)))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := s.collection.BulkWrite(ctx, writes, opts); err != nil {
		return fmt.Errorf("failed to apply score mutations: %w", err)
	}
	return nil
}

func (s *ledgerStore) ResetData(ctx context.Context, userID string) error {
	update := bson.M{"$unset": bson.M{"data": ""}}
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	return nil
}

// seedSetFields builds the $set document creating one fresh engagement
// record per video ID under the user's data map.
func seedSetFields(videoIDs []string, seedScore int) bson.M {
	fields := bson.M{}
	for _, id := range videoIDs {
		fields["data."+id] = models.NewEngagementRecord(seedScore)
	}
	return fields
}

// mutationUpdate builds the update document for one score mutation. An
// expired entry loses its rawscore field rather than having it set to a
// number, so it is excluded from ranking instead of ranked at zero.
func mutationUpdate(m ScoreMutation) bson.M {
	field := "data." + m.VideoID + ".rawscore"
	switch m.Op {
	case OpIncr:
		return bson.M{"$inc": bson.M{field: m.Value}}
	case OpExpire:
		return bson.M{"$unset": bson.M{field: ""}}
	default:
		return bson.M{"$set": bson.M{field: m.Value}}
	}
}

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tubefeed/video-recommender-go/internal/models"
)

// VideoStore defines operations on the shared video catalog.
type VideoStore interface {
	// UpsertVideos writes the given records, overwriting existing fields
	// for the same video ID. Last write wins; no merge semantics.
	UpsertVideos(ctx context.Context, videos []models.VideoRecord) error

	// GetVideosByIDs retrieves the records for the given IDs. Missing IDs
	// are silently absent from the result.
	GetVideosByIDs(ctx context.Context, videoIDs []string) ([]models.VideoRecord, error)
}

type videoStore struct {
	collection *mongo.Collection
}

// NewVideoStore creates a VideoStore over the "videos" collection.
func NewVideoStore(db *Mongo) VideoStore {
	return &videoStore{collection: db.Collection("videos")}
}

func (s *videoStore) UpsertVideos(ctx context.Context, videos []models.VideoRecord) error {
	if len(videos) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(videos))
	for _, v := range videos {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": v.VideoID}).
			SetUpdate(bson.M{"$set": videoSetFields(v)}).
			SetUpsert(true))
	}

	// Unordered: one bad record must not block the rest of the batch.
	opts := options.BulkWrite().SetOrdered(false)
	if _, err := s.collection.BulkWrite(ctx, writes, opts); err != nil {
		return fmt.Errorf("failed to upsert videos: %w", err)
	}
	return nil
}

func (s *videoStore) GetVideosByIDs(ctx context.Context, videoIDs []string) ([]models.VideoRecord, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": videoIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer cursor.Close(ctx)

	var videos []models.VideoRecord
	if err = cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("failed to decode videos: %w", err)
	}
	return videos, nil
}

// videoSetFields builds the $set document for one record. The reserved
// views/uploadDate fields are written even while unpopulated so every
// stored document carries the full field set.
func videoSetFields(v models.VideoRecord) bson.M {
	fields := bson.M{
		"title":        v.Title,
		"channelId":    v.ChannelID,
		"channelTitle": v.ChannelTitle,
		"duration":     v.DurationISO,
		"categoryId":   v.CategoryID,
		"thumbnailUrl": v.ThumbnailURL,
		"views":        v.Views,
		"uploadDate":   v.UploadDate,
	}
	if len(v.Tags) > 0 {
		fields["tags"] = v.Tags
	}
	return fields
}

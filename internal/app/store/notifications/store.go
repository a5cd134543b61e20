// internal/app/store/notifications/store.go

// Package notifications is the producing collaborator's durable side of the
// notification pipeline. The realtime layer itself retains nothing after a
// delivery attempt; unread counts and the notification list live here.
package notifications

import (
	"context"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/paging"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages persisted notifications.
type Store struct {
	c *mongo.Collection
}

// New creates a notifications Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// EnsureIndexes creates the indexes for per-user unread queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user_unread"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_key", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_notifications_user_feed"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create persists a user-targeted notification and returns it with its
// generated ID and creation time set.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	// Fixed-width so lexicographic order matches chronological order;
	// RFC3339Nano trims trailing zeros and breaks cursor comparisons.
	n.CreatedKey = n.CreatedAt.Format("2006-01-02T15:04:05.000000000Z")
	n.Read = false
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// CountUnread returns the number of unread notifications for a user.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks one of the user's notifications as read. Marking an
// already-read or unknown notification is a no-op.
func (s *Store) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": notificationID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

// ListRecent returns the user's most recent notifications, newest first.
func (s *Store) ListRecent(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	cursor, err := s.c.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPage returns one keyset page of the user's notifications. The page
// is fetched with look-ahead (PageSize+1); the caller trims it with
// paging.TrimPage. Rows come back in the query's sort order, so "newer"
// pages need paging.Reverse before display.
func (s *Store) ListPage(ctx context.Context, userID primitive.ObjectID, cfg paging.KeysetConfig) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if window := cfg.KeysetWindow("created_key"); window != nil {
		filter = bson.M{"$and": bson.A{filter, window}}
	}

	find := options.Find()
	cfg.ApplyToFind(find, "created_key")

	cursor, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

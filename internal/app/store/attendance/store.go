// internal/app/store/attendance/store.go

// Package attendance is the durable session-recording collaborator behind
// the realtime layer. The hub calls it best-effort: a failed or slow write
// here never blocks a join, leave, or presence broadcast.
package attendance

import (
	"context"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages live-session attendance records.
type Store struct {
	c *mongo.Collection
}

// New creates an attendance Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("session_attendance")}
}

// EnsureIndexes creates the indexes needed for attendance queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Open records for a (session, user) pair.
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "left_at", Value: 1}},
			Options: options.Index().SetName("idx_attendance_open"),
		},
		// Per-user attendance history.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "joined_at", Value: -1}},
			Options: options.Index().SetName("idx_attendance_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// RecordJoin opens an attendance record. Any dangling open record for the
// same (session, user) pair is closed first so a crash-and-rejoin does not
// accumulate open records.
func (s *Store) RecordJoin(ctx context.Context, sessionID string, userID primitive.ObjectID, deviceClass, ip string) error {
	now := time.Now().UTC()

	_, _ = s.c.UpdateMany(ctx,
		bson.M{"session_id": sessionID, "user_id": userID, "left_at": nil},
		bson.M{"$set": bson.M{
			"left_at":    now,
			"end_reason": models.AttendanceEndReconciled,
		}},
	)

	rec := models.AttendanceRecord{
		ID:          primitive.NewObjectID(),
		SessionID:   sessionID,
		UserID:      userID,
		JoinedAt:    now,
		DeviceClass: deviceClass,
		IP:          ip,
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// RecordLeave closes the most recent open record for the (session, user)
// pair and computes its duration. No-op when there is no open record.
func (s *Store) RecordLeave(ctx context.Context, sessionID string, userID primitive.ObjectID) error {
	var rec models.AttendanceRecord
	err := s.c.FindOne(ctx,
		bson.M{"session_id": sessionID, "user_id": userID, "left_at": nil},
		options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: -1}}),
	).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": rec.ID},
		bson.M{"$set": bson.M{
			"left_at":       now,
			"end_reason":    models.AttendanceEndLeave,
			"duration_secs": int64(now.Sub(rec.JoinedAt).Seconds()),
		}},
	)
	return err
}

// ListOpen returns all open attendance records, oldest first. Used by the
// reconciliation sweeper.
func (s *Store) ListOpen(ctx context.Context) ([]models.AttendanceRecord, error) {
	cursor, err := s.c.Find(ctx,
		bson.M{"left_at": nil},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.AttendanceRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseRecord closes one record with the given end reason. Used by the
// sweeper for records whose connection vanished without a recorded leave.
func (s *Store) CloseRecord(ctx context.Context, id primitive.ObjectID, reason string) error {
	var rec models.AttendanceRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "left_at": nil}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"left_at":       now,
			"end_reason":    reason,
			"duration_secs": int64(now.Sub(rec.JoinedAt).Seconds()),
		}},
	)
	return err
}

// BySession returns the attendance history of one session, oldest first.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error) {
	cursor, err := s.c.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.AttendanceRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

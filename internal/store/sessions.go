package store

import (
	"context"
	"errors"
	"time"

	"news-rag-chatbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionStore owns SessionRecord lifecycle: lazy create on first message,
// delete on explicit clear.
type SessionStore struct {
	col *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{col: db.Collection("sessions")}
}

// EnsureSession creates a record for the id if none exists. Check-then-create
// is best-effort non-atomic; session ids are high-entropy, and a duplicate
// record from a racing create is harmless because every read is keyed by
// session_id.
func (s *SessionStore) EnsureSession(ctx context.Context, sessionID string) error {
	err := s.col.FindOne(ctx, bson.M{"session_id": sessionID}).Err()
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	_, err = s.col.InsertOne(ctx, models.SessionRecord{
		SessionID: sessionID,
		CreatedAt: time.Now(),
	})
	return err
}

// Delete removes the session record(s) for the id. Idempotent.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return err
}

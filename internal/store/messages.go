package store

import (
	"context"
	"time"

	"news-rag-chatbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageStore is the durable chat-message log behind the cache tier.
type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection("chat_messages")}
}

// Append inserts one message record. ID and CreatedAt are filled in when
// absent.
func (s *MessageStore) Append(ctx context.Context, msg models.ChatMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	_, err := s.col.InsertOne(ctx, msg)
	return err
}

// ListBySession returns all messages for a session in arrival order.
func (s *MessageStore) ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	cursor, err := s.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]models.ChatMessage, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// DeleteBySession removes the whole message log for a session. Deleting a
// session that has no messages is fine.
func (s *MessageStore) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return err
}

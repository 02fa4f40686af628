// models/chat.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatTurn is one completed question/answer interaction. Turns are
// append-only per session; the cache stores them newest first.
type ChatTurn struct {
	Query     string    `bson:"query" json:"query"`
	Response  string    `bson:"response" json:"response"`
	Sources   []string  `bson:"sources" json:"sources"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatMessage is a single message record. A turn is stored as two
// independent ordered records: the user message then the assistant reply.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SessionID string             `bson:"session_id" json:"sessionId"`
	Content   string             `bson:"content" json:"content"`
	IsUser    bool               `bson:"is_user" json:"isUser"`
	Sources   []string           `bson:"sources,omitempty" json:"sources,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// SessionRecord tracks a logical conversation. Created lazily on first
// message, never mutated, deleted on explicit session clear.
type SessionRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SessionID string             `bson:"session_id" json:"sessionId"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type ChatRequest struct {
	SessionID string `json:"sessionId" binding:"required,min=1"`
	Message   string `json:"message" binding:"required,min=1,max=2000"`
}

type ChatResponse struct {
	SessionID string   `json:"sessionId"`
	Message   string   `json:"message"`
	Sources   []string `json:"sources"`
}

type SessionHistory struct {
	SessionID string        `json:"sessionId"`
	Messages  []ChatMessage `json:"messages"`
}

// Package chatlog keeps the structured message list in both storage tiers:
// the session cache for fast reads and MongoDB as the durable fallback.
package chatlog

import (
	"context"
	"encoding/json"
	"time"

	"news-rag-chatbot/internal/cache"
	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/models"
)

// DurableLog is the MongoDB-backed message log.
type DurableLog interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}

type Log struct {
	cache   cache.Cache
	durable DurableLog
	ttl     time.Duration
	maxLen  int64
}

func NewLog(c cache.Cache, durable DurableLog, ttl time.Duration, maxLen int64) *Log {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxLen <= 0 {
		maxLen = 100
	}
	return &Log{cache: c, durable: durable, ttl: ttl, maxLen: maxLen}
}

// Append records a message in both tiers. The durable write is authoritative;
// cache trouble is logged and absorbed.
func (l *Log) Append(ctx context.Context, msg models.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	if err := l.durable.Append(ctx, msg); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to encode chat message", "session_id", msg.SessionID, "error", err)
		return nil
	}
	key := cache.ChatMessagesKey(msg.SessionID)
	if err := l.cache.Push(ctx, key, string(data), l.maxLen); err != nil {
		logger.Warn("failed to cache chat message", "session_id", msg.SessionID, "error", err)
		return nil
	}
	if err := l.cache.Expire(ctx, key, l.ttl); err != nil {
		logger.Warn("failed to refresh message list TTL", "session_id", msg.SessionID, "error", err)
	}
	return nil
}

// List returns the session's messages in arrival order, preferring the cache
// and falling back to the durable store when the cache has nothing.
func (l *Log) List(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	entries, err := l.cache.List(ctx, cache.ChatMessagesKey(sessionID))
	if err == nil && len(entries) > 0 {
		// Cache stores newest first; reverse into arrival order.
		messages := make([]models.ChatMessage, 0, len(entries))
		for i := len(entries) - 1; i >= 0; i-- {
			var msg models.ChatMessage
			if err := json.Unmarshal([]byte(entries[i]), &msg); err != nil {
				logger.Warn("skipping undecodable cached message", "session_id", sessionID, "error", err)
				continue
			}
			messages = append(messages, msg)
		}
		return messages, nil
	}
	if err != nil {
		logger.Warn("cache read failed, using durable log", "session_id", sessionID, "error", err)
	}

	return l.durable.ListBySession(ctx, sessionID)
}

// Clear removes the session's messages from both cache namespaces and the
// durable log. Clearing an absent session succeeds.
func (l *Log) Clear(ctx context.Context, sessionID string) error {
	if err := l.cache.Delete(ctx, cache.SessionKeys(sessionID)...); err != nil {
		logger.Warn("failed to clear cached session", "session_id", sessionID, "error", err)
	}
	return l.durable.DeleteBySession(ctx, sessionID)
}

// Package cache provides the tiered session cache: Redis when reachable, an
// in-process fallback otherwise. Both tiers sit behind one interface so the
// orchestrator and REST surface never care which tier served them.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Key namespaces. Separate prefixes keep a session clear from scanning the
// other namespace; both must be deleted together on session clear.
const (
	chatPrefix         = "chat:"
	chatMessagesPrefix = "chat_messages:"
)

// ChatKey holds the raw interaction log (ChatTurn JSON, newest first).
func ChatKey(sessionID string) string { return chatPrefix + sessionID }

// ChatMessagesKey holds the structured message list (ChatMessage JSON).
func ChatMessagesKey(sessionID string) string { return chatMessagesPrefix + sessionID }

// SessionKeys returns every cache key owned by a session.
func SessionKeys(sessionID string) []string {
	return []string{ChatKey(sessionID), ChatMessagesKey(sessionID)}
}

// Cache is the session cache contract shared by both tiers.
type Cache interface {
	// Get returns a plain string value, ErrCacheMiss when absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores a plain string value.
	Set(ctx context.Context, key, value string) error
	// Push prepends value onto the list at key, trimming it to maxLen
	// entries (maxLen <= 0 leaves the list unbounded).
	Push(ctx context.Context, key, value string, maxLen int64) error
	// List returns the full list at key, newest first. A missing key is an
	// empty list, not an error.
	List(ctx context.Context, key string) ([]string, error)
	// Expire sets a TTL on key. The in-process tier documents this as a
	// no-op: entries live for the process lifetime only.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Delete removes the given keys. Deleting absent keys is not an error.
	Delete(ctx context.Context, keys ...string) error
}

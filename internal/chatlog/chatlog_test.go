package chatlog

import (
	"context"
	"testing"
	"time"

	"news-rag-chatbot/internal/cache"
	"news-rag-chatbot/models"
)

type fakeDurable struct {
	messages map[string][]models.ChatMessage
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{messages: make(map[string][]models.ChatMessage)}
}

func (f *fakeDurable) Append(_ context.Context, msg models.ChatMessage) error {
	f.messages[msg.SessionID] = append(f.messages[msg.SessionID], msg)
	return nil
}

func (f *fakeDurable) ListBySession(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	return f.messages[sessionID], nil
}

func (f *fakeDurable) DeleteBySession(_ context.Context, sessionID string) error {
	delete(f.messages, sessionID)
	return nil
}

func TestAppendAndListArrivalOrder(t *testing.T) {
	log := NewLog(cache.NewMemoryCache(), newFakeDurable(), time.Hour, 50)
	ctx := context.Background()

	log.Append(ctx, models.ChatMessage{SessionID: "s", Content: "question", IsUser: true})
	log.Append(ctx, models.ChatMessage{SessionID: "s", Content: "answer", IsUser: false, Sources: []string{"T"}})

	messages, err := log.List(ctx, "s")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Content != "question" || messages[1].Content != "answer" {
		t.Errorf("messages out of arrival order: %+v", messages)
	}
}

func TestListFallsBackToDurable(t *testing.T) {
	durable := newFakeDurable()
	log := NewLog(cache.NewMemoryCache(), durable, time.Hour, 50)
	ctx := context.Background()

	// Message only in the durable store (cache expired or cold).
	durable.Append(ctx, models.ChatMessage{SessionID: "s", Content: "old", IsUser: true})

	messages, err := log.List(ctx, "s")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "old" {
		t.Fatalf("messages = %+v, want the durable record", messages)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	durable := newFakeDurable()
	log := NewLog(cache.NewMemoryCache(), durable, time.Hour, 50)
	ctx := context.Background()

	log.Append(ctx, models.ChatMessage{SessionID: "s", Content: "m", IsUser: true})

	for i := 0; i < 2; i++ {
		if err := log.Clear(ctx, "s"); err != nil {
			t.Fatalf("clear round %d: %v", i, err)
		}
	}

	messages, err := log.List(ctx, "s")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("residual messages after clear: %+v", messages)
	}
}

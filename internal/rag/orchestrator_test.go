package rag

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"news-rag-chatbot/internal/ai"
	"news-rag-chatbot/internal/cache"
	"news-rag-chatbot/internal/store"
	"news-rag-chatbot/internal/vectorstore"
	"news-rag-chatbot/models"
)

const testDim = 64

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return ai.FallbackEmbedding(text, testDim), nil
}

type fakeGenerator struct {
	reply string
	// captured prompt from the last call
	prompt string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) string {
	f.prompt = prompt
	if f.reply != "" {
		return f.reply
	}
	return "Inflation eased in March, according to the provided reports."
}

type fakeArticles struct {
	byID map[int64]models.Article
}

func (f fakeArticles) FindByID(_ context.Context, id int64) (*models.Article, error) {
	article, ok := f.byID[id]
	if !ok {
		return nil, store.ErrArticleNotFound
	}
	return &article, nil
}

func newTestOrchestrator(t *testing.T, index *vectorstore.Index, embedder Embedder, gen Generator, articles ArticleFinder) (*Orchestrator, cache.Cache) {
	t.Helper()
	sessions := cache.NewMemoryCache()
	o := NewOrchestrator(embedder, index, gen, articles, sessions, nil, Options{})
	return o, sessions
}

func TestAnswerEmptyIndex(t *testing.T) {
	index := vectorstore.NewIndex(testDim)
	o, _ := newTestOrchestrator(t, index, fakeEmbedder{}, &fakeGenerator{}, fakeArticles{})

	resp := o.Answer(context.Background(), "s1", "what happened to inflation?")
	if resp.Message != NoContextResponse {
		t.Errorf("message = %q, want NoContextResponse", resp.Message)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources = %v, want empty", resp.Sources)
	}
}

func TestAnswerEmbeddingUnavailable(t *testing.T) {
	index := vectorstore.NewIndex(testDim)
	seedChunk(t, index, "c1", 1, "Reuters reports inflation eased in March.")

	gen := &fakeGenerator{}
	o, _ := newTestOrchestrator(t, index, fakeEmbedder{err: ai.ErrEmbeddingUnavailable}, gen, fakeArticles{})

	resp := o.Answer(context.Background(), "s1", "inflation?")
	if resp.Message != NoContextResponse {
		t.Errorf("message = %q, want NoContextResponse", resp.Message)
	}
	if gen.prompt != "" {
		t.Error("generation must not run when embedding is unavailable")
	}
}

func TestAnswerEndToEnd(t *testing.T) {
	index := vectorstore.NewIndex(testDim)
	text := "Reuters reports inflation eased in March."
	seedChunk(t, index, "c1", 1, text)

	articles := fakeArticles{byID: map[int64]models.Article{
		1: {ID: 1, Title: "Inflation Eases in March"},
	}}
	gen := &fakeGenerator{}
	o, sessions := newTestOrchestrator(t, index, fakeEmbedder{}, gen, articles)

	// Query identical to the chunk text: guaranteed cosine similarity 1.
	resp := o.Answer(context.Background(), "s1", text)

	if resp.Message == "" {
		t.Fatal("empty answer")
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "Inflation Eases in March" {
		t.Fatalf("sources = %v, want the article title", resp.Sources)
	}
	if !strings.Contains(gen.prompt, text) {
		t.Error("prompt does not contain the retrieved chunk text")
	}
	if !strings.Contains(gen.prompt, "I don't know") {
		t.Error("prompt missing the don't-fabricate instruction")
	}

	// Turn persisted newest first under the chat namespace
	list, err := sessions.List(context.Background(), cache.ChatKey("s1"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("history length = %d, want 1", len(list))
	}
	var turn models.ChatTurn
	if err := json.Unmarshal([]byte(list[0]), &turn); err != nil {
		t.Fatalf("unmarshal turn: %v", err)
	}
	if turn.Query != text || turn.Response != resp.Message {
		t.Errorf("persisted turn %+v does not match response", turn)
	}
}

func TestAnswerDropsUnresolvableArticles(t *testing.T) {
	index := vectorstore.NewIndex(testDim)
	text := "Central banks held rates steady this quarter."
	// Two chunks from the same article plus one whose article is gone.
	seedChunk(t, index, "a", 7, text)
	seedChunk(t, index, "b", 7, text)
	seedChunk(t, index, "c", 9, text)

	articles := fakeArticles{byID: map[int64]models.Article{
		7: {ID: 7, Title: "Rates Hold Steady"},
	}}
	o, _ := newTestOrchestrator(t, index, fakeEmbedder{}, &fakeGenerator{}, articles)

	resp := o.Answer(context.Background(), "s1", text)
	if len(resp.Sources) != 1 || resp.Sources[0] != "Rates Hold Steady" {
		t.Fatalf("sources = %v, want deduplicated resolvable title only", resp.Sources)
	}
}

func TestAnswerDimensionMismatchIsContained(t *testing.T) {
	// Index dimension differs from the embedder's output: the search error
	// must become the fixed error response, not an escaping failure.
	index := vectorstore.NewIndex(testDim * 2)
	o, _ := newTestOrchestrator(t, index, fakeEmbedder{}, &fakeGenerator{}, fakeArticles{})

	resp := o.Answer(context.Background(), "s1", "anything")
	if resp.Message != ErrorResponse {
		t.Errorf("message = %q, want ErrorResponse", resp.Message)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources = %v, want empty", resp.Sources)
	}
}

func seedChunk(t *testing.T, index *vectorstore.Index, id string, articleID int64, text string) {
	t.Helper()
	err := index.Add(vectorstore.Chunk{
		ID:        id,
		ArticleID: articleID,
		Text:      text,
		Embedding: ai.FallbackEmbedding(text, testDim),
	})
	if err != nil {
		t.Fatalf("seed chunk %q: %v", id, err)
	}
}

// Package rag composes embedding, retrieval, article resolution, generation
// and session persistence into the answer pipeline. It is a linear pipeline
// with early exits; no state survives between queries.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"news-rag-chatbot/internal/ai"
	"news-rag-chatbot/internal/cache"
	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/internal/store"
	"news-rag-chatbot/internal/telemetry"
	"news-rag-chatbot/internal/vectorstore"
	"news-rag-chatbot/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Fixed user-visible responses. The pipeline never propagates a raw failure
// to the transport layer.
const (
	NoContextResponse = "I couldn't find any relevant information to answer your question."
	ErrorResponse     = "I encountered an error while processing your question. Please try again."
)

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator maps a prompt to generated text. Implementations absorb their
// own failures and always return usable text.
type Generator interface {
	Complete(ctx context.Context, prompt string) string
}

// ArticleFinder resolves a chunk's article id to its durable record.
type ArticleFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Article, error)
}

type Orchestrator struct {
	embedder   Embedder
	index      *vectorstore.Index
	generator  Generator
	articles   ArticleFinder
	sessions   cache.Cache
	topK       int
	historyTTL time.Duration
	historyMax int64
	metrics    *telemetry.Metrics
}

type Options struct {
	TopK       int
	HistoryTTL time.Duration
	HistoryMax int64
}

func NewOrchestrator(
	embedder Embedder,
	index *vectorstore.Index,
	generator Generator,
	articles ArticleFinder,
	sessions cache.Cache,
	metrics *telemetry.Metrics,
	opts Options,
) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = time.Hour
	}
	if opts.HistoryMax <= 0 {
		opts.HistoryMax = 50
	}
	return &Orchestrator{
		embedder:   embedder,
		index:      index,
		generator:  generator,
		articles:   articles,
		sessions:   sessions,
		topK:       opts.TopK,
		historyTTL: opts.HistoryTTL,
		historyMax: opts.HistoryMax,
		metrics:    metrics,
	}
}

// Answer runs the full pipeline for one user query. It never returns an
// error: every failure inside is converted to a safe fixed response.
func (o *Orchestrator) Answer(ctx context.Context, sessionID, query string) (resp models.ChatResponse) {
	tracer := otel.Tracer("rag-orchestrator")
	ctx, span := tracer.Start(ctx, "rag.answer")
	defer span.End()

	resp = models.ChatResponse{SessionID: sessionID, Sources: []string{}}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("rag pipeline panic", "session_id", sessionID, "panic", fmt.Sprint(r))
			span.SetAttributes(attribute.Bool("rag.panic", true))
			resp.Message = ErrorResponse
			resp.Sources = []string{}
			if o.metrics != nil {
				o.metrics.RecordChatRequest(ctx, "error")
			}
		}
	}()

	queryVec, err := o.embedder.Embed(ctx, query)
	if err != nil {
		// No vector means no retrieval; never call generation with no context.
		logger.Warn("query embedding unavailable", "session_id", sessionID, "error", err)
		span.SetAttributes(attribute.Bool("rag.embedding_unavailable", true))
		resp.Message = NoContextResponse
		if o.metrics != nil {
			o.metrics.RecordChatRequest(ctx, "no_embedding")
		}
		return resp
	}

	results, err := o.index.Search(queryVec, o.topK)
	if err != nil {
		logger.Error("similarity search failed", "session_id", sessionID, "error", err)
		span.SetAttributes(attribute.String("rag.search_error", err.Error()))
		resp.Message = ErrorResponse
		if o.metrics != nil {
			o.metrics.RecordChatRequest(ctx, "error")
		}
		return resp
	}
	span.SetAttributes(attribute.Int("rag.chunks_retrieved", len(results)))
	if o.metrics != nil {
		o.metrics.RetrievalHits.Add(ctx, int64(len(results)))
	}

	if len(results) == 0 {
		resp.Message = NoContextResponse
		if o.metrics != nil {
			o.metrics.RecordChatRequest(ctx, "no_context")
		}
		return resp
	}

	sources := o.resolveSources(ctx, results)
	prompt := buildPrompt(query, results)
	answer := o.generator.Complete(ctx, prompt)
	if o.metrics != nil && answer == ai.FallbackResponse {
		o.metrics.GenerationFallbacks.Add(ctx, 1)
	}

	resp.Message = answer
	resp.Sources = sources

	o.persistTurn(ctx, sessionID, query, answer, sources)

	span.SetAttributes(attribute.Int("rag.sources", len(sources)))
	if o.metrics != nil {
		o.metrics.RecordChatRequest(ctx, "ok")
	}
	return resp
}

// resolveSources deduplicates the retrieved chunks' article ids (first
// reference wins the ordering) and resolves each to its title. Articles that
// no longer resolve are dropped without failing the request.
func (o *Orchestrator) resolveSources(ctx context.Context, results []vectorstore.Result) []string {
	seen := make(map[int64]bool, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		id := r.Chunk.ArticleID
		if seen[id] {
			continue
		}
		seen[id] = true

		article, err := o.articles.FindByID(ctx, id)
		if err != nil {
			if err != store.ErrArticleNotFound {
				logger.Warn("article lookup failed", "article_id", id, "error", err)
			}
			continue
		}
		sources = append(sources, article.Title)
	}
	return sources
}

// buildPrompt concatenates chunk texts in retrieval order and wraps them in a
// grounding instruction: answer only from the context, admit not knowing.
func buildPrompt(query string, results []vectorstore.Result) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Chunk.Text)
	}
	context := strings.Join(texts, "\n\n")

	return fmt.Sprintf(`You are a news assistant. Answer the question using ONLY the context below.
If the context does not contain the answer, say "I don't know" rather than guessing.

Context:
%s

Question: %s`, context, query)
}

// persistTurn prepends the completed turn onto the session's bounded history
// list and refreshes the TTL. Cache trouble is logged, never surfaced.
func (o *Orchestrator) persistTurn(ctx context.Context, sessionID, query, answer string, sources []string) {
	turn := models.ChatTurn{
		Query:     query,
		Response:  answer,
		Sources:   sources,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(turn)
	if err != nil {
		logger.Error("failed to encode chat turn", "session_id", sessionID, "error", err)
		return
	}

	key := cache.ChatKey(sessionID)
	if err := o.sessions.Push(ctx, key, string(data), o.historyMax); err != nil {
		logger.Warn("failed to persist chat turn", "session_id", sessionID, "error", err)
		return
	}
	if err := o.sessions.Expire(ctx, key, o.historyTTL); err != nil {
		logger.Warn("failed to refresh history TTL", "session_id", sessionID, "error", err)
	}
}

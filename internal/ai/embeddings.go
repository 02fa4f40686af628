package ai

import (
	"context"
	"errors"
	"fmt"

	"news-rag-chatbot/internal/config"
	"news-rag-chatbot/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrEmbeddingUnavailable signals that no vector could be produced for the
// input. Outside development mode callers must surface this rather than
// substitute a degraded vector, or retrieval quality rots without signal.
var ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

// EmbeddingService maps text to a fixed-length vector. Primary provider is
// Google Generative AI (text-embedding-004); in development mode any provider
// failure falls back to a deterministic local embedding so retrieval stays
// reproducible without credentials.
type EmbeddingService struct {
	apiKey      string
	model       string
	dimension   int
	development bool
}

func NewEmbeddingService(cfg *config.Config) *EmbeddingService {
	return &EmbeddingService{
		apiKey:      cfg.GeminiAPIKey,
		model:       cfg.GoogleEmbeddingsModel,
		dimension:   cfg.VectorDimensions,
		development: cfg.Development,
	}
}

// Embed returns an embedding vector for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.embedRemote(ctx, text)
	if err == nil {
		return vec, nil
	}

	if s.development {
		logger.Warn("embedding provider failed, using deterministic fallback", "error", err)
		return FallbackEmbedding(text, s.dimension), nil
	}

	return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
}

func (s *EmbeddingService) embedRemote(ctx context.Context, text string) ([]float32, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.EmbeddingModel(s.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}

	return resp.Embedding.Values, nil
}

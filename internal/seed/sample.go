// Package seed loads a small sample news dataset in development mode so the
// system answers out of the box without credentials or an ingestion run.
package seed

import (
	"context"
	"fmt"

	"news-rag-chatbot/internal/ai"
	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/internal/store"
	"news-rag-chatbot/internal/vectorstore"
	"news-rag-chatbot/models"
)

type sampleArticle struct {
	article models.Article
	chunks  []string
}

var samples = []sampleArticle{
	{
		article: models.Article{ID: 1, Title: "Inflation Eases in March", Source: "Reuters"},
		chunks: []string{
			"Reuters reports inflation eased in March, with consumer prices rising at the slowest pace in two years.",
			"Economists said the March inflation data increases the odds that interest rates stay on hold through summer.",
		},
	},
	{
		article: models.Article{ID: 2, Title: "Tech Giants Report Mixed Quarterly Earnings", Source: "AP"},
		chunks: []string{
			"Several large technology companies reported quarterly earnings this week, with cloud revenue beating expectations while advertising lagged.",
		},
	},
	{
		article: models.Article{ID: 3, Title: "Severe Storms Sweep the Midwest", Source: "NPR"},
		chunks: []string{
			"A line of severe storms moved across the Midwest overnight, leaving tens of thousands without power.",
			"Utility crews expect power restoration in the hardest-hit counties to take several days.",
		},
	},
}

// LoadSampleData embeds the sample chunks with the deterministic fallback
// embedder and writes the backing articles to the durable store.
func LoadSampleData(ctx context.Context, index *vectorstore.Index, articles *store.ArticleStore) error {
	dim := index.Dimension()
	for _, s := range samples {
		if err := articles.Upsert(ctx, s.article); err != nil {
			return fmt.Errorf("failed to seed article %d: %w", s.article.ID, err)
		}
		for i, text := range s.chunks {
			chunk := vectorstore.Chunk{
				ID:        fmt.Sprintf("%d-%d", s.article.ID, i),
				ArticleID: s.article.ID,
				Text:      text,
				Embedding: ai.FallbackEmbedding(text, dim),
			}
			if err := index.Add(chunk); err != nil {
				return fmt.Errorf("failed to index sample chunk: %w", err)
			}
		}
	}

	logger.Info("sample dataset loaded", "articles", len(samples), "chunks", index.Len())
	return nil
}

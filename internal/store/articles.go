// Package store wraps the durable MongoDB collections the core reads and
// writes: articles (read-only lookup), the chat message log, and session
// records.
package store

import (
	"context"
	"errors"

	"news-rag-chatbot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrArticleNotFound = errors.New("article not found")

// ArticleStore resolves article ids referenced by retrieved chunks.
type ArticleStore struct {
	col *mongo.Collection
}

func NewArticleStore(db *mongo.Database) *ArticleStore {
	return &ArticleStore{col: db.Collection("articles")}
}

// FindByID looks up an article by its numeric id.
func (s *ArticleStore) FindByID(ctx context.Context, id int64) (*models.Article, error) {
	var article models.Article
	err := s.col.FindOne(ctx, bson.M{"article_id": id}).Decode(&article)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// Upsert writes an article record, replacing any existing one with the same
// id. Ingestion owns article creation in production; this path exists for the
// development-mode sample dataset.
func (s *ArticleStore) Upsert(ctx context.Context, article models.Article) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.col.ReplaceOne(ctx, bson.M{"article_id": article.ID}, article, opts)
	return err
}

package models

import "time"

// Article is the durable record chunks point back to. The core only reads
// these; ingestion owns creation.
type Article struct {
	ID          int64     `bson:"article_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	URL         string    `bson:"url,omitempty" json:"url,omitempty"`
	Source      string    `bson:"source,omitempty" json:"source,omitempty"`
	PublishedAt time.Time `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
}

package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg.DBName); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, dbName string) error {
	db := client.Database(dbName)

	articles := db.Collection("articles")
	articleIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "article_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := articles.Indexes().CreateMany(context.Background(), articleIndexes); err != nil {
		return err
	}

	messages := db.Collection("chat_messages")
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}
	if _, err := messages.Indexes().CreateMany(context.Background(), messageIndexes); err != nil {
		return err
	}

	sessions := db.Collection("sessions")
	sessionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
		},
	}
	if _, err := sessions.Indexes().CreateMany(context.Background(), sessionIndexes); err != nil {
		return err
	}

	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Gemini
	GeminiAPIKey          string
	GenerationModel       string
	GoogleEmbeddingsModel string
	GeminiTier            string

	// Redis Configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Retrieval
	VectorDimensions int
	RetrievalTopK    int

	// Session cache
	ChatHistoryTTL int // seconds
	ChatHistoryMax int // turns kept per session

	// HTTP rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// WebSocket transport
	WSAttemptLimit    int // connection attempts per address per window
	WSAttemptWindow   int // seconds
	HeartbeatInterval int // seconds
	MaxMissedPongs    int // 0 disables forced close

	// Development mode enables fallback embeddings and the sample dataset
	Development bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/news_chatbot"),
		DBName:      getEnv("DB_NAME", "news_chatbot"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GenerationModel:       getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		VectorDimensions: getEnvInt("VECTOR_DIM", 768),
		RetrievalTopK:    getEnvInt("RETRIEVAL_TOP_K", 5),

		ChatHistoryTTL: getEnvInt("CHAT_HISTORY_TTL", 3600),
		ChatHistoryMax: getEnvInt("CHAT_HISTORY_MAX", 50),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		WSAttemptLimit:    getEnvInt("WS_ATTEMPT_LIMIT", 10),
		WSAttemptWindow:   getEnvInt("WS_ATTEMPT_WINDOW", 60),
		HeartbeatInterval: getEnvInt("WS_HEARTBEAT_INTERVAL", 30),
		MaxMissedPongs:    getEnvInt("WS_MAX_MISSED_PONGS", 3),

		Development: getEnvBool("DEVELOPMENT_MODE", false),
	}

	// Outside development mode the Gemini credential is mandatory; there is
	// no fallback embedder to hide behind.
	if cfg.GeminiAPIKey == "" && !cfg.Development {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file or enable DEVELOPMENT_MODE")
	}

	if cfg.VectorDimensions <= 0 {
		return nil, fmt.Errorf("VECTOR_DIM must be positive, got %d", cfg.VectorDimensions)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

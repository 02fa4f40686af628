package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"news-rag-chatbot/internal/ai"
	"news-rag-chatbot/internal/cache"
	"news-rag-chatbot/internal/chatlog"
	"news-rag-chatbot/internal/config"
	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/internal/netstatus"
	"news-rag-chatbot/internal/rag"
	"news-rag-chatbot/internal/seed"
	"news-rag-chatbot/internal/store"
	"news-rag-chatbot/internal/telemetry"
	"news-rag-chatbot/internal/vectorstore"
	"news-rag-chatbot/internal/ws"
	"news-rag-chatbot/middleware"
	"news-rag-chatbot/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("news-rag-chatbot")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	// Connect to MongoDB; the durable stores have no fallback tier.
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Redis is optional: without it the session cache runs on the in-process
	// tier only.
	var redisClient *redis.Client
	if rdb, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("redis unavailable, session cache degraded to memory tier", "error", err)
	} else {
		redisClient = rdb
		defer redisClient.Close()
	}

	var primaryCache cache.Cache
	if redisClient != nil {
		primaryCache = cache.NewRedisCache(redisClient)
	}
	sessionCache := cache.NewTieredCache(primaryCache, metrics)

	articles := store.NewArticleStore(db)
	messages := store.NewMessageStore(db)
	sessions := store.NewSessionStore(db)

	index := vectorstore.NewIndex(cfg.VectorDimensions)
	embedder := ai.NewEmbeddingService(cfg)
	generator, err := ai.NewGenerator(cfg)
	if err != nil {
		log.Fatal("Failed to initialize generator:", err)
	}
	defer generator.Close()

	if cfg.Development {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := seed.LoadSampleData(ctx, index, articles); err != nil {
			logger.Warn("sample dataset load failed", "error", err)
		}
		cancel()
	}

	orchestrator := rag.NewOrchestrator(embedder, index, generator, articles, sessionCache, metrics, rag.Options{
		TopK:       cfg.RetrievalTopK,
		HistoryTTL: time.Duration(cfg.ChatHistoryTTL) * time.Second,
		HistoryMax: int64(cfg.ChatHistoryMax),
	})

	chatLog := chatlog.NewLog(sessionCache, messages, time.Duration(cfg.ChatHistoryTTL)*time.Second, int64(cfg.ChatHistoryMax))

	hub := ws.NewHub(cfg, orchestrator, sessions, chatLog, metrics)
	hub.Start()
	defer hub.Stop()

	// Upstream reachability monitor; the /status endpoint exposes its
	// snapshot so clients can distinguish "AI degraded" from "down".
	monitor := netstatus.NewMonitor(netstatus.Config{
		APIBaseURL: "https://generativelanguage.googleapis.com",
		AssetURL:   "https://www.gstatic.com/generate_204",
		OnAutoOffline: func() {
			logger.Warn("upstream marked offline after repeated probe failures")
		},
	})
	if err := monitor.Start(); err != nil {
		logger.Warn("reachability monitor disabled", "error", err)
	} else {
		defer monitor.Stop()
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.RateLimitMiddleware(redisClient, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	router.GET("/status", func(c *gin.Context) {
		s := monitor.Status()
		c.JSON(http.StatusOK, gin.H{
			"state":       s.State,
			"offlineMode": s.OfflineMode,
			"lastChecked": s.LastChecked,
		})
	})

	routes.SetupChatRoutes(router, routes.ChatDeps{
		Orchestrator: orchestrator,
		Sessions:     sessions,
		Log:          chatLog,
	})
	router.GET("/ws", hub.HandleWS)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port, "development", cfg.Development)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}

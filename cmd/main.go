package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coco-admissions-platform/internal/ai"
	"coco-admissions-platform/internal/config"
	"coco-admissions-platform/internal/database"
	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/internal/telemetry"
	"coco-admissions-platform/internal/vectorstore"
	"coco-admissions-platform/middleware"
	"coco-admissions-platform/routes"
	"coco-admissions-platform/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("coco-admissions-platform", cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("tracer init failed, continuing without tracing", "error", err)
		} else {
			defer shutdown()
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Error("metrics init failed, continuing without metrics", "error", err)
		metrics = nil
	}

	store, err := vectorstore.Open(cfg.VectorStoreDir)
	if err != nil {
		log.Fatal("Failed to open vector store:", err)
	}

	ctx := context.Background()
	embedder, err := ai.NewEmbeddingClient(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to init embeddings client:", err)
	}
	defer embedder.Close()

	// The LLM fallback for eligibility thresholds is optional; without a
	// key the regex pass still runs.
	var criteriaLLM services.CriteriaLLM
	if cfg.EligibilityEnabled && cfg.OpenAIAPIKey != "" {
		extractor, err := ai.NewCriteriaExtractor(cfg)
		if err != nil {
			logger.Error("eligibility LLM init failed, regex extraction only", "error", err)
		} else {
			criteriaLLM = extractor
		}
	}

	var ocrClient *services.OCRClient
	if cfg.OCRServiceEnabled {
		ocrClient = services.NewOCRClient(cfg)
	}

	catalog := database.NewMongoCatalog(mongoClient, cfg)
	metadataExtractor := services.NewMetadataExtractor(criteriaLLM)
	textLoader := services.NewTextLoader(ocrClient, metrics)
	ingestor := services.NewIngestor(store, embedder, catalog, metadataExtractor, textLoader, cfg.MediaRoot, metrics)

	cache := services.NewRecommendationCache(rdb, time.Duration(cfg.RecommendTTLSec)*time.Second)
	recommender := services.NewRecommender(store, cache, metrics, cfg.RecommendTopN)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(middleware.Tracing("coco-admissions-platform"))
	}
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	if metrics != nil {
		router.Use(middleware.Metrics(metrics))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Setup routes
	routes.SetupAuthRoutes(router, rdb)
	routes.SetupRecommendationRoutes(router, cfg, rdb, catalog, ingestor, recommender)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}

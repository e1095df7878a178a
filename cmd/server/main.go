package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sahay-api/internal/config"
	"sahay-api/internal/docqa"
	"sahay-api/internal/extract"
	"sahay-api/internal/gemini"
	"sahay-api/internal/handler"
	"sahay-api/internal/registry"
	"sahay-api/internal/repository"
	"sahay-api/internal/service"
	"sahay-api/internal/session"
)

func main() {
	// Credentials may live in a .env file next to the binary.
	godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting SahayAI API...")

	cfg, err := config.LoadConfig("configs/config.yml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Load model artifacts. A partial load degrades the affected endpoints
	// only; the server still starts.
	reg := registry.New(cfg.Models.Dir, logger)
	loadResult := reg.Load()
	switch {
	case loadResult.FullyLoaded():
		logger.Info("All model artifacts loaded")
	case loadResult.FullyFailed():
		logger.Warn("No model artifacts loaded - classification endpoints will be unavailable",
			zap.String("models_dir", cfg.Models.Dir))
	default:
		logger.Warn("Some model artifacts failed to load - affected endpoints will be unavailable",
			zap.Strings("missing_subsystems", loadResult.Missing))
	}

	// Optional analysis history. A broken database is logged and skipped;
	// classification must not depend on the audit trail.
	var recorder service.Recorder
	var historyService handler.HistoryService
	if cfg.History.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			logger.Warn("Failed to create history directory", zap.Error(err))
		}
		repo, err := repository.NewHistoryRepository(cfg.History.Path, logger)
		if err != nil {
			logger.Warn("History repository unavailable, continuing without persistence", zap.Error(err))
		} else {
			defer repo.Close()
			recorder = repo
			historyService = repo
		}
	}

	analyzer := service.NewAnalyzer(reg.GrievanceAdapter(), reg.SpamAdapter(), recorder, logger)
	sessions := session.NewStore(logger)

	// The generative backend is optional: without a credential only the
	// document Q&A endpoint degrades.
	var backend docqa.Generator
	if cfg.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), gemini.Config{
			APIKey:    cfg.Gemini.APIKey,
			ModelName: cfg.Gemini.ModelName,
		}, logger)
		if err != nil {
			logger.Warn("Failed to initialize Gemini client, document Q&A will be unavailable", zap.Error(err))
		} else {
			defer client.Close()
			backend = client
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set - document Q&A will be unavailable")
	}

	pipeline := docqa.NewPipeline(sessions, backend, cfg.DocQA.ContextWindowChars, logger)

	apiHandler := handler.NewHandler(analyzer, sessions, extract.PDFExtractor{}, pipeline, historyService, logger)

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	apiHandler.RegisterRoutes(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("SahayAI API is running",
		zap.String("port", cfg.Server.Port),
		zap.String("models_dir", cfg.Models.Dir),
		zap.Bool("docqa_enabled", backend != nil))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

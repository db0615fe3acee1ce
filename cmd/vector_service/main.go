package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vectord/internal/config"
	"vectord/internal/embedding"
	"vectord/internal/sessionstore"
	"vectord/internal/vector_service/api"
	"vectord/internal/vector_service/rag/extractors"
	"vectord/internal/vector_service/rag/interfaces"
	"vectord/internal/vector_service/rag/splitters"
	"vectord/internal/vector_service/rag/storages/indexstore"
	"vectord/internal/vector_service/service"
	httpserver "vectord/pkg/http"
	"vectord/pkg/logger"
)

func main() {
	// .env is optional; deployments may configure purely via environment.
	_ = godotenv.Load()

	cfg := loadConfig()

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New("VectorService")
	log.Info("Starting vector service...")

	store, err := indexstore.NewStore(cfg.Storage.Path, log)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to initialize index store: %v", err))
	}

	splitter, err := splitters.NewCharacterSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatal(fmt.Sprintf("Invalid chunking configuration: %v", err))
	}

	embedder := newEmbedder(cfg, log)
	svc := service.NewService(extractors.NewRegistry(), splitter, embedder, store, log)

	// The session store is the composition point for the chat collaborator;
	// the vector endpoints themselves do not touch it.
	sessions := newSessionStore(cfg, log)
	if closer, ok := sessions.(*sessionstore.RedisStore); ok {
		defer closer.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(api.NewHandler(svc))

	srv, err := httpserver.NewServer(cfg, router)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to create HTTP server: %v", err))
	}

	go func() {
		log.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(fmt.Sprintf("Failed to serve HTTP: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(fmt.Sprintf("Server shutdown failed: %v", err))
	}
	log.Info("Server gracefully stopped")
}

// loadConfig reads the YAML config when present, otherwise builds one from
// environment variables and defaults.
func loadConfig() *config.AppConfig {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	if _, err := os.Stat(path); err != nil {
		return config.Default()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newEmbedder builds the configured embedding client, or returns nil when
// the backend is unconfigured. Operations that need embeddings then fail
// with a distinct error instead of the service refusing to start.
func newEmbedder(cfg *config.AppConfig, log *logger.Logger) interfaces.EmbeddingModel {
	switch embedding.Provider(cfg.Embedding.Provider) {
	case embedding.OpenAI:
		if cfg.Embedding.OpenAI.APIKey == "" {
			log.Warn("OPENAI_API_KEY not set; uploads and searches will be rejected until it is configured")
			return nil
		}
		model, err := embedding.NewOpenAIModel(cfg.Embedding.OpenAI.APIKey, cfg.Embedding.OpenAI.Model)
		if err != nil {
			log.Warn(fmt.Sprintf("Failed to create OpenAI embedding client: %v", err))
			return nil
		}
		return model
	case embedding.Ollama:
		model, err := embedding.NewOllamaModel(cfg.Embedding.Ollama.Model, cfg.Embedding.Ollama.BaseURL)
		if err != nil {
			log.Warn(fmt.Sprintf("Failed to create Ollama embedding client: %v", err))
			return nil
		}
		return model
	default:
		log.Warn(fmt.Sprintf("Unknown embedding provider %q; embedding backend unconfigured", cfg.Embedding.Provider))
		return nil
	}
}

// newSessionStore builds the session store published for the chat layer.
func newSessionStore(cfg *config.AppConfig, log *logger.Logger) sessionstore.Store {
	if cfg.Sessions.Backend == "redis" {
		store, err := sessionstore.NewRedisStore(
			context.Background(), cfg.Sessions.Redis.Address, cfg.Sessions.Redis.Password, cfg.Sessions.Redis.DB)
		if err != nil {
			log.Warn(fmt.Sprintf("Failed to connect session store to Redis, falling back to memory: %v", err))
			return sessionstore.NewMemoryStore()
		}
		log.Info("Session store backed by Redis")
		return store
	}
	return sessionstore.NewMemoryStore()
}

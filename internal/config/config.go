package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic application information.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address"` // e.g. ":8004"
}

// StorageConfig locates the per-user index directories.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// OpenAIConfig holds the OpenAI embedding backend settings. The API key
// falls back to the OPENAI_API_KEY environment variable; the service runs
// with the embedding backend unconfigured when both are empty.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OllamaConfig holds the Ollama embedding backend settings.
type OllamaConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // "openai" or "ollama"
	OpenAI   OpenAIConfig `yaml:"openai"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// ChunkingConfig sets the splitter's chunk size and overlap, in characters.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RedisConfig holds the Redis connection settings for the session store.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SessionsConfig selects the session store backend published for the chat
// collaborator.
type SessionsConfig struct {
	Backend string      `yaml:"backend"` // "redis" or "memory"
	Redis   RedisConfig `yaml:"redis"`
}

// RateLimiterConfig configures the request rate limiter.
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // "tokenBucket" or "fixedWindow"
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
}

// TokenBucketConfig configures the token bucket algorithm.
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// FixedWindowConfig configures the fixed window counter algorithm.
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // e.g. "1m", "30s"
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// MiddlewareConfig holds all middleware settings.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// Defaults applied when the file leaves a field empty.
const (
	DefaultAddress      = ":8004"
	DefaultStoragePath  = "./vector_storage"
	DefaultOpenAIModel  = "text-embedding-3-small"
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// LoadConfig loads and parses the YAML configuration at path, then applies
// environment overrides and defaults.
func LoadConfig(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration built purely from environment variables
// and defaults, for deployments without a config file.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

// applyEnv reads the environment variables the deployment scripts set.
func (c *AppConfig) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedding.OpenAI.APIKey == "" {
		c.Embedding.OpenAI.APIKey = key
	}
	if path := os.Getenv("STORAGE_PATH"); path != "" && c.Storage.Path == "" {
		c.Storage.Path = path
	}
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.OpenAI.Model == "" {
		c.Embedding.OpenAI.Model = DefaultOpenAIModel
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = DefaultChunkSize
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = DefaultChunkOverlap
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}

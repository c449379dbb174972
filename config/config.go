package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// Data directory (uploads, template, watch folder)
	DataDir string

	// Database
	DatabasePath string

	// OpenAI
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	OpenAIWhisperModel string

	// Meilisearch (optional, release search)
	MeiliHost   string
	MeiliAPIKey string
	MeiliIndex  string

	// Generation pipeline
	ChunkTargetTokens  int
	ChunkOverlapTokens int
	RequestTimeout     time.Duration
	MaxRetries         int
	RetryBackoff       time.Duration
	ChunkConcurrency   int

	// Upload limits
	MaxDocumentBytes int64
	MaxMediaBytes    int64

	// Background worker
	JobWorkers   int
	JobQueueSize int

	// Inbox watcher
	WatchEnabled bool
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 8080),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Data
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "app", "relnotes.sqlite"),

		// OpenAI
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIWhisperModel: getEnv("OPENAI_WHISPER_MODEL", "whisper-1"),

		// Meilisearch
		MeiliHost:   getEnv("MEILI_HOST", ""),
		MeiliAPIKey: getEnv("MEILI_API_KEY", ""),
		MeiliIndex:  getEnv("MEILI_INDEX", "relnotes_releases"),

		// Generation
		ChunkTargetTokens:  getEnvInt("CHUNK_TARGET_TOKENS", 3000),
		ChunkOverlapTokens: getEnvInt("CHUNK_OVERLAP_TOKENS", 150),
		RequestTimeout:     getEnvDuration("LLM_REQUEST_TIMEOUT", 90*time.Second),
		MaxRetries:         getEnvInt("LLM_MAX_RETRIES", 2),
		RetryBackoff:       getEnvDuration("LLM_RETRY_BACKOFF", 2*time.Second),
		ChunkConcurrency:   getEnvInt("CHUNK_CONCURRENCY", 3),

		// Uploads
		MaxDocumentBytes: getEnvInt64("MAX_DOCUMENT_BYTES", 10*1024*1024),
		MaxMediaBytes:    getEnvInt64("MAX_MEDIA_BYTES", 100*1024*1024),

		// Worker
		JobWorkers:   getEnvInt("JOB_WORKERS", 3),
		JobQueueSize: getEnvInt("JOB_QUEUE_SIZE", 1000),

		// Watcher
		WatchEnabled: getEnv("WATCH_ENABLED", "1") != "0",
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// InboxDir returns the watched drop-folder directory
func (c *Config) InboxDir() string {
	return filepath.Join(c.DataDir, "inbox")
}

// UploadDir returns the TUS upload staging directory
func (c *Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// TemplateDir returns the directory holding the reference release-notes template
func (c *Config) TemplateDir() string {
	return c.DataDir
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

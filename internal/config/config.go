package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	// TrustedProxies may set X-Forwarded-For; empty trusts none
	TrustedProxies []string
	MaxFileSize    int64
	AllowedTypes   []string

	// Transient upload storage
	StorageBackend  string // "local" (default), "s3"
	FileStorageDir  string
	S3Bucket        string
	AWSRegion       string
	AWSAccessKey    string
	AWSSecretKey    string
	UploadRetention time.Duration

	// Redis Configuration (queue, sessions, job tracking, rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Vector store
	VectorBackend       string // "mongo" (default), "pgvector", "memory"
	MongoURI            string
	DBName              string
	PostgresURL         string
	VectorSearchEnabled bool
	VectorIndexName     string
	VectorDimensions    int

	// Gemini
	GeminiAPIKey          string
	GeminiChatModel       string
	GoogleEmbeddingsModel string
	GeminiTier            string
	SystemPrompt          string

	// Chunking + upsert
	ChunkSize        int
	ChunkOverlap     int
	UpsertBatchSize  int
	UpsertBatchPause time.Duration

	// Embedding retry/backoff
	EmbedMaxRetries int
	EmbedBaseDelay  time.Duration
	EmbedJitterMax  time.Duration
	EmbedRPM        int

	// Per-call deadlines
	EmbedTimeout  time.Duration
	UpsertTimeout time.Duration
	ChatTimeout   time.Duration

	// Retrieval
	RetrievalTopK   int
	MaxContextChars int

	// Session + job tracking
	SessionStore      string // "redis" (default), "memory"
	SessionTTL        time.Duration
	SessionMaxEntries int
	JobTTL            time.Duration
	JobTimeout        time.Duration

	// Worker
	QueueName         string
	WorkerConcurrency int
	JanitorInterval   time.Duration
	EmbeddedWorker    bool // run the ingestion worker inside the API process

	RateLimitReqs   int
	RateLimitWindow int

	LogLevel string

	// OpenTelemetry
	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
}

const defaultSystemPrompt = `You are a helpful assistant. Answer questions based on the provided documents.
Always cite sources where appropriate and clearly indicate when you're extrapolating beyond the documents.`

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB
		AllowedTypes: strings.Split(getEnv("ALLOWED_FILE_TYPES",
			"application/pdf,application/doc,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document,text/plain,text/html"), ","),

		StorageBackend:  getEnv("STORAGE_BACKEND", "local"),
		FileStorageDir:  getEnv("FILE_STORAGE_DIR", "./storage"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		AWSRegion:       getEnv("AWS_REGION", ""),
		AWSAccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		UploadRetention: getEnvDuration("UPLOAD_RETENTION", 24*time.Hour),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		VectorBackend:       getEnv("VECTOR_BACKEND", "mongo"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:              getEnv("DB_NAME", "docchat_vectors"),
		PostgresURL:         getEnv("POSTGRES_URL", ""),
		VectorSearchEnabled: getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorIndexName:     getEnv("MONGODB_VECTOR_INDEX", "chunk_vectors"),
		VectorDimensions:    getEnvInt("VECTOR_DIM", 768),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel:       getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),
		SystemPrompt:          getEnv("SYSTEM_PROMPT", defaultSystemPrompt),

		ChunkSize:        getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 200),
		UpsertBatchSize:  getEnvInt("UPSERT_BATCH_SIZE", 1),
		UpsertBatchPause: getEnvDuration("UPSERT_BATCH_PAUSE", 500*time.Millisecond),

		EmbedMaxRetries: getEnvInt("EMBED_MAX_RETRIES", 5),
		EmbedBaseDelay:  getEnvDuration("EMBED_BASE_DELAY", time.Second),
		EmbedJitterMax:  getEnvDuration("EMBED_JITTER_MAX", time.Second),
		EmbedRPM:        getEnvInt("EMBED_RPM", 100),

		EmbedTimeout:  getEnvDuration("EMBED_TIMEOUT", 30*time.Second),
		UpsertTimeout: getEnvDuration("UPSERT_TIMEOUT", 30*time.Second),
		ChatTimeout:   getEnvDuration("CHAT_TIMEOUT", 60*time.Second),

		RetrievalTopK:   getEnvInt("RETRIEVAL_TOP_K", 3),
		MaxContextChars: getEnvInt("MAX_CONTEXT_CHARS", 1000),

		SessionStore:      getEnv("SESSION_STORE", "redis"),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionMaxEntries: getEnvInt("SESSION_MAX_ENTRIES", 10000),
		JobTTL:            getEnvDuration("JOB_TTL", 24*time.Hour),
		JobTimeout:        getEnvDuration("JOB_TIMEOUT", 30*time.Minute),

		QueueName:         getEnv("QUEUE_NAME", "file-upload-queue"),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 1),
		JanitorInterval:   getEnvDuration("JANITOR_INTERVAL", 15*time.Minute),
		EmbeddedWorker:    getEnvBool("EMBEDDED_WORKER", false),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		LogLevel: getEnv("LOG_LEVEL", ""),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 0.1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// in-process stores are invisible to a separate worker binary
	if cfg.VectorBackend == "memory" || cfg.SessionStore == "memory" {
		cfg.EmbeddedWorker = true
	}
	return cfg, nil
}

// Validate checks required fields and cross-field invariants
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.UpsertBatchSize <= 0 {
		return fmt.Errorf("UPSERT_BATCH_SIZE must be positive, got %d", c.UpsertBatchSize)
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.WorkerConcurrency)
	}
	switch c.VectorBackend {
	case "mongo", "memory":
	case "pgvector":
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when VECTOR_BACKEND=pgvector")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND: %s", c.VectorBackend)
	}
	if c.SessionStore != "redis" && c.SessionStore != "memory" {
		return fmt.Errorf("unknown SESSION_STORE: %s", c.SessionStore)
	}
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" || c.AWSRegion == "" {
			return fmt.Errorf("S3_BUCKET and AWS_REGION are required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %s", c.StorageBackend)
	}
	return nil
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

// getEnvDuration accepts Go durations ("500ms", "24h") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	PostgresURI string
	AutoMigrate bool
	RedisAddr   string
	MongoURI    string
	MongoDB     string

	Storage StorageConfig
	LLM     LLMConfig
	STT     STTConfig

	CachePrefix    string
	CacheTTL       time.Duration
	LockTTL        time.Duration
	EventTTL       time.Duration
	MaxResumeBytes int64
}

type StorageConfig struct {
	ResumeBucket    string
	VoiceBucket     string
	CredentialsFile string
}

type LLMConfig struct {
	Backend        string // gateway|gemini|vertex
	GatewayURL     string
	GatewayAPIKey  string
	Model          string
	GeminiAPIKey   string
	VertexProject  string
	VertexLocation string
}

type STTConfig struct {
	Backend  string // gateway|google|none
	Language string
}

// Load reads the process environment, after merging an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "release"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PostgresURI: os.Getenv("POSTGRES_URI"),
		AutoMigrate: strings.EqualFold(os.Getenv("AUTO_MIGRATE"), "true"),
		RedisAddr:   firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getEnv("MONGO_DB", "prepwise"),

		Storage: StorageConfig{
			ResumeBucket:    getEnv("GCS_RESUME_BUCKET", "resumes"),
			VoiceBucket:     getEnv("GCS_VOICE_BUCKET", "voice-recordings"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		LLM: LLMConfig{
			Backend:        strings.ToLower(getEnv("LLM_BACKEND", "gateway")),
			GatewayURL:     getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
			GatewayAPIKey:  os.Getenv("AI_GATEWAY_API_KEY"),
			Model:          os.Getenv("AI_MODEL"),
			GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
			VertexProject:  os.Getenv("VERTEX_PROJECT_ID"),
			VertexLocation: getEnv("VERTEX_LOCATION", "us-central1"),
		},
		STT: STTConfig{
			Backend:  strings.ToLower(getEnv("STT_BACKEND", "gateway")),
			Language: getEnv("STT_LANGUAGE", "en-US"),
		},

		CachePrefix:    getEnv("CACHE_PREFIX", "prepwise:"),
		CacheTTL:       getEnvDuration("CACHE_TTL", 10*time.Minute),
		LockTTL:        getEnvDuration("LOCK_TTL", 2*time.Minute),
		EventTTL:       getEnvDuration("EVENT_TTL", 30*24*time.Hour),
		MaxResumeBytes: getEnvInt64("MAX_RESUME_BYTES", 10<<20),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil && v > 0 {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}

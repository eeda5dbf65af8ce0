package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	OpenAIKey      string
	OpenAIEndpoint string
	OpenAIModel    string
	Database       string
	UploadDir      string

	// Grading fallback tuning. The overlap threshold and substring floor
	// are product knobs, not derived invariants.
	OverlapThreshold float64
	SubstringFloor   int

	// Generation input cap in characters; text beyond it is truncated
	// before the reasoning call.
	MaxInputChars int

	SessionTTL           time.Duration
	DefaultQuestionCount int
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIEndpoint:       getEnv("OPENAI_API_ENDPOINT", "https://api.openai.com/v1"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		Database:             getEnv("DATABASE_PATH", "./data/quizium.db"),
		UploadDir:            getEnv("UPLOAD_DIR", "./uploads"),
		OverlapThreshold:     getEnvFloat("QUIZ_OVERLAP_THRESHOLD", 0.7),
		SubstringFloor:       getEnvInt("QUIZ_SUBSTRING_FLOOR", 5),
		MaxInputChars:        getEnvInt("QUIZ_MAX_INPUT_CHARS", 100000),
		SessionTTL:           getEnvDuration("QUIZ_SESSION_TTL", 24*time.Hour),
		DefaultQuestionCount: getEnvInt("QUIZ_DEFAULT_QUESTIONS", 10),
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to ensure upload dir %s: %v", cfg.UploadDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		log.Fatalf("failed to ensure database dir %s: %v", cfg.Database, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Printf("ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		log.Printf("ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("ignoring invalid %s=%q", key, val)
	}
	return fallback
}

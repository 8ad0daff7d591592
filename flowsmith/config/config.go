package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBDriver string
	DBURL    string
	DBName   string

	LLMProvider  string
	LLMModel     string
	LLMBaseURL   string
	GeminiAPIKey string
	OpenAIAPIKey string
	GroqAPIKey   string
	PromptsFile  string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	LogDir      string
	CORSOrigins []string
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() Config {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8001"),

		DBDriver: getEnv("DB_DRIVER", "postgres"),
		DBURL:    getEnv("DB_URL", ""),
		DBName:   getEnv("DB_NAME", ""),

		LLMProvider:  strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:     getEnv("LLM_MODEL", ""),
		LLMBaseURL:   getEnv("LLM_BASE_URL", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		PromptsFile:  getEnv("PROMPTS_FILE", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "workflows"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),

		LogDir:      getEnv("LOG_DIR", "./logs"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// Validate reports settings without which the process must not start.
func (c Config) Validate() error {
	var errs []error
	if c.DBURL == "" {
		errs = append(errs, errors.New("DB_URL must be set"))
	}
	if c.DBName == "" {
		errs = append(errs, errors.New("DB_NAME must be set"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or sqlite"))
	}
	return errors.Join(errs...)
}

// ArchiveEnabled reports whether the MinIO workflow mirror is configured.
func (c Config) ArchiveEnabled() bool {
	return c.MinIOEndpoint != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_URL", "host=localhost user=flow")
	t.Setenv("DB_NAME", "flowsmith")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := LoadConfig()

	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.ArchiveEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := LoadConfig()

	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.ArchiveEnabled())
	assert.True(t, cfg.MinIOUseSSL)
}

func TestValidateMissingStore(t *testing.T) {
	cfg := Config{DBDriver: "postgres"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL")
	assert.Contains(t, err.Error(), "DB_NAME")

	cfg = Config{DBDriver: "mongo", DBURL: "x", DBName: "y"}
	assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
}

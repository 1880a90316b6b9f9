package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/video-notemaker/internal/video"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Provider.APIURL)
	assert.Equal(t, "en", cfg.Extract.Language)
	assert.Equal(t, video.ModeAuto, cfg.Mode())
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	assert.Equal(t, "0 3 * * *", cfg.Cache.SweepCron)
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("NOTEMAKER_MODE", "captions")
	t.Setenv("NOTEMAKER_CONCURRENCY", "8")
	t.Setenv("WHISPER_MODEL", "small")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, video.ModeCaptions, cfg.Mode())
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, "small", cfg.Extract.WhisperModel)
}

func TestNewFromEnvRequiresProviderKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestNewFromEnvGeminiProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEYS", "key-one, key-two")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Provider.GeminiAPIKeys)
}

func TestNewFromEnvNoProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "none")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Provider.Name)
}

func TestNewFromEnvRejectsBadMode(t *testing.T) {
	t.Setenv("AI_PROVIDER", "none")
	t.Setenv("NOTEMAKER_MODE", "telepathy")

	_, err := NewFromEnv()
	require.Error(t, err)
}

func TestWithFileOverlay(t *testing.T) {
	t.Setenv("AI_PROVIDER", "none")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
extract:
  language: ja
  whisper_model: medium
batch:
  concurrency: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := NewFromEnv(WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, "ja", cfg.Extract.Language)
	assert.Equal(t, "medium", cfg.Extract.WhisperModel)
	assert.Equal(t, 5, cfg.Batch.Concurrency)
	// Fields the file does not set keep their defaults.
	assert.Equal(t, "auto", cfg.Extract.Mode)
}

func TestWithFileMissing(t *testing.T) {
	t.Setenv("AI_PROVIDER", "none")

	_, err := NewFromEnv(WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestWithFileMalformed(t *testing.T) {
	t.Setenv("AI_PROVIDER", "none")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extract: [not-a-map"), 0644))

	_, err := NewFromEnv(WithFile(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

// Package config assembles application configuration from environment
// variables, optionally overlaid with a YAML file. File values replace
// environment values for the fields the file sets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MimeLyc/video-notemaker/internal/video"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Provider Configuration:
// - AI_PROVIDER: Note provider, "openai" or "gemini" or "none" (default: openai)
// - LLM_API_KEY: API key for the OpenAI-compatible provider
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-4o-mini)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 4000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 60)
// - GEMINI_API_KEYS: Comma-separated Gemini API keys
// - GEMINI_MODEL: Gemini model name (default: gemini-2.0-flash)
//
// Extraction Configuration:
// - NOTEMAKER_LANGUAGE: Preferred transcript language (default: en)
// - NOTEMAKER_MODE: Extraction mode auto/captions/audio (default: auto)
// - WHISPER_MODEL: Whisper model size (default: base)
// - NOTEMAKER_WORK_DIR: Scratch directory for downloads (default: os temp)
//
// Cache Configuration:
// - NOTEMAKER_CACHE_PATH: SQLite cache path (default: ~/.notemaker/cache.db)
// - CACHE_SWEEP_CRON: Cron expression for expired-entry sweeps (default: 0 3 * * *)
//
// Batch Configuration:
// - NOTEMAKER_CONCURRENCY: Parallel videos per batch (default: 3)
// - NOTEMAKER_OUTPUT_DIR: Directory for exported notes (default: ./notes)
// - NOTEMAKER_INBOX_DIR: Watch-mode inbox directory (default: ./inbox)
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Extract  ExtractConfig  `yaml:"extract"`
	Cache    CacheConfig    `yaml:"cache"`
	Batch    BatchConfig    `yaml:"batch"`
}

// ProviderConfig selects and configures the note-generation backend.
type ProviderConfig struct {
	Name          string   `yaml:"name"`
	APIKey        string   `yaml:"api_key"`
	APIURL        string   `yaml:"api_url"`
	Model         string   `yaml:"model"`
	MaxTokens     int      `yaml:"max_tokens"`
	Temperature   float64  `yaml:"temperature"`
	Timeout       int      `yaml:"timeout"`
	GeminiAPIKeys []string `yaml:"gemini_api_keys"`
	GeminiModel   string   `yaml:"gemini_model"`
}

type ExtractConfig struct {
	Language     string `yaml:"language"`
	Mode         string `yaml:"mode"`
	WhisperModel string `yaml:"whisper_model"`
	WorkDir      string `yaml:"work_dir"`
}

type CacheConfig struct {
	Path      string `yaml:"path"`
	SweepCron string `yaml:"sweep_cron"`
}

type BatchConfig struct {
	Concurrency int    `yaml:"concurrency"`
	OutputDir   string `yaml:"output_dir"`
	InboxDir    string `yaml:"inbox_dir"`
}

// Option is a function type for configuring Config
type Option func(*Config) error

// NewFromEnv creates a new Config instance with values from environment
// variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Provider: ProviderConfig{
			Name:          getEnvString("AI_PROVIDER", "openai"),
			APIKey:        getEnvString("LLM_API_KEY", ""),
			APIURL:        getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:         getEnvString("LLM_MODEL", "openai/gpt-4o-mini"),
			MaxTokens:     getEnvInt("LLM_MAX_TOKENS", 4000),
			Temperature:   getEnvFloat("LLM_TEMPERATURE", 0.3),
			Timeout:       getEnvInt("LLM_TIMEOUT", 60),
			GeminiAPIKeys: getEnvList("GEMINI_API_KEYS"),
			GeminiModel:   getEnvString("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Extract: ExtractConfig{
			Language:     getEnvString("NOTEMAKER_LANGUAGE", "en"),
			Mode:         getEnvString("NOTEMAKER_MODE", "auto"),
			WhisperModel: getEnvString("WHISPER_MODEL", "base"),
			WorkDir:      getEnvString("NOTEMAKER_WORK_DIR", ""),
		},
		Cache: CacheConfig{
			Path:      getEnvString("NOTEMAKER_CACHE_PATH", defaultCachePath()),
			SweepCron: getEnvString("CACHE_SWEEP_CRON", "0 3 * * *"),
		},
		Batch: BatchConfig{
			Concurrency: getEnvInt("NOTEMAKER_CONCURRENCY", 3),
			OutputDir:   getEnvString("NOTEMAKER_OUTPUT_DIR", "./notes"),
			InboxDir:    getEnvString("NOTEMAKER_INBOX_DIR", "./inbox"),
		},
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WithFile overlays values from a YAML file. Only fields the file sets
// replace the environment-derived values.
func WithFile(path string) Option {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		// Unmarshal into the existing struct so unset fields keep their
		// current values.
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	switch strings.ToLower(c.Provider.Name) {
	case "openai":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for the openai provider")
		}
	case "gemini":
		if len(c.Provider.GeminiAPIKeys) == 0 {
			return fmt.Errorf("GEMINI_API_KEYS is required for the gemini provider")
		}
	case "none":
	default:
		return fmt.Errorf("unknown AI provider %q", c.Provider.Name)
	}

	if _, err := video.ParseMode(c.Extract.Mode); err != nil {
		return err
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	return nil
}

// Mode returns the parsed extraction mode. validate guarantees it parses.
func (c *Config) Mode() video.Mode {
	mode, _ := video.ParseMode(c.Extract.Mode)
	return mode
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "notemaker-cache.db"
	}
	return home + "/.notemaker/cache.db"
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated list from environment variables
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

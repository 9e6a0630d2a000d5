package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/aruvell/marksub/internal/translator"
	"github.com/aruvell/marksub/pkg/log"
)

// Config holds all application configuration. Values come from
// environment variables with sensible defaults; runtime settings loaded
// from the settings file are layered on top via options.
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-3.5-turbo)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
// - LLM_TIMEOUT: Request timeout in seconds (default: 30)
// - LLM_SITE_URL: Site URL for HTTP referer header (optional)
// - LLM_APP_NAME: Application name for X-Title header (optional)
//
// Translation Configuration:
// - TARGET_LANGUAGE: BCP 47 tag of the translation target (default: zh)
// - BATCH_SIZE: Cues per translation request (default: 20)
// - PROMPT_TEMPLATE: Inline prompt template (optional)
// - PROMPT_TEMPLATE_FILE: Path to a prompt template file (optional)
// - CRON_EXPR: Schedule for library scans (default: 0 0 * * *)
//
// Library Configuration:
// - LIBRARY_DIRS: List of directories to scan, separated by the OS list
//   separator (default: /library)
//
// System Configuration:
// - DATA_DIR: Directory for the database and job state (default: /app/data)
// - LOG_LEVEL: debug, info, warn, or error (default: info)
// - HTTP_ADDR: Listen address for the API server (default: :8080)
type Config struct {
	// LLM Configuration
	LLM LLMConfig `json:"llm"`

	// Library Configuration
	Library LibraryConfig `json:"library"`

	// System Configuration
	System SystemConfig `json:"system"`

	// Translate Configuration
	Translate TranslateConfig `json:"translate"`

	// HTTP Configuration
	HTTP HTTPConfig `json:"http"`
}

// TranslateConfig holds the translation pipeline configuration.
type TranslateConfig struct {
	TargetLanguage language.Tag `json:"target_language"`
	CronExpr       string       `json:"cron_expr"`
	BatchSize      int          `json:"batch_size"`
	PromptTemplate string       `json:"prompt_template"`
}

// TargetLanguageName returns the English display name of the target
// language, the form the prompt template expects ("French", not "fr").
func (c TranslateConfig) TargetLanguageName() string {
	if name := display.English.Languages().Name(c.TargetLanguage); name != "" {
		return name
	}
	return c.TargetLanguage.String()
}

// LLMConfig holds the configuration for the LLM client.
// Supports any provider speaking the OpenAI wire format.
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
	SiteURL     string  `json:"site_url"`
	AppName     string  `json:"app_name"`
}

// LibraryConfig holds the configuration for library scanning.
type LibraryConfig struct {
	Dirs []string `json:"dirs"`
}

// SystemConfig holds the system configuration.
type SystemConfig struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
}

// HTTPConfig holds the configuration for the API server.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// DBPath returns the location of the sqlite database under DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "marksub.db")
}

// TranslatorSettings assembles the pipeline settings from the current
// configuration.
func (c *Config) TranslatorSettings() translator.Settings {
	return translator.Settings{
		BatchSize:      c.Translate.BatchSize,
		TargetLanguage: c.Translate.TargetLanguageName(),
		PromptTemplate: c.Translate.PromptTemplate,
	}
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	targetLanguage, err := language.Parse(getEnvString("TARGET_LANGUAGE", "zh"))
	if err != nil {
		return nil, fmt.Errorf("invalid TARGET_LANGUAGE: %w", err)
	}

	promptTemplate, err := promptTemplateFromEnv()
	if err != nil {
		return nil, err
	}

	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		Library: LibraryConfig{
			Dirs: getEnvDirs("LIBRARY_DIRS", "/library"),
		},
		System: SystemConfig{
			DataDir:  getEnvString("DATA_DIR", "/app/data"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
		Translate: TranslateConfig{
			TargetLanguage: targetLanguage,
			CronExpr:       getEnvString("CRON_EXPR", "0 0 * * *"),
			BatchSize:      getEnvInt("BATCH_SIZE", 20),
			PromptTemplate: promptTemplate,
		},
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Info("config loaded: model=%s target=%s batch=%d cron=%q dirs=%v",
		config.LLM.Model, config.Translate.TargetLanguage, config.Translate.BatchSize,
		config.Translate.CronExpr, config.Library.Dirs)

	return config, nil
}

// validate checks if all required configuration is properly set.
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if err := c.TranslatorSettings().Validate(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.Translate.CronExpr); err != nil {
		return fmt.Errorf("invalid CRON_EXPR: %w", err)
	}
	return nil
}

// promptTemplateFromEnv resolves the prompt template: inline env value
// first, then a template file, then the built-in default.
func promptTemplateFromEnv() (string, error) {
	if inline := os.Getenv("PROMPT_TEMPLATE"); inline != "" {
		return inline, nil
	}
	if path := os.Getenv("PROMPT_TEMPLATE_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read PROMPT_TEMPLATE_FILE: %w", err)
		}
		return string(data), nil
	}
	return translator.DefaultPromptTemplate, nil
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

// getEnvDirs splits a list-separated directory value, dropping empty
// entries.
func getEnvDirs(key, defaultValue string) []string {
	value := getEnvString(key, defaultValue)
	var dirs []string
	for _, dir := range filepath.SplitList(value) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

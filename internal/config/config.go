// Package config holds process configuration and logger setup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider identifies the hosted model backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values. Static process configuration only:
// nothing here is negotiated at runtime.
type Config struct {
	// Model invocation
	LLMProvider     Provider
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	AWSRegion       string

	// Confidence display threshold for the presentation layer.
	ConfidenceThreshold float64

	// HTTP server
	ServerPort     string
	AllowedOrigins []string
	SessionTTL     time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from the environment, with an optional .env file
// and an optional YAML overlay named by COPILOT_CONFIG.
func Load() Config {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Config{
		LLMProvider:     Provider(strings.ToLower(getEnv("COPILOT_LLM_PROVIDER", "openai"))),
		LLMModel:        getEnv("COPILOT_LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		ConfidenceThreshold: getEnvFloat("COPILOT_CONFIDENCE_THRESHOLD", 0.65),

		ServerPort:     getEnv("COPILOT_SERVER_PORT", "8487"),
		AllowedOrigins: splitList(getEnv("COPILOT_ALLOWED_ORIGINS", "*")),
		SessionTTL:     getEnvDuration("COPILOT_SESSION_TTL", 30*time.Minute),

		LogFile:  getEnv("COPILOT_LOG_FILE", "/tmp/copilot.log"),
		LogLevel: parseLogLevel(getEnv("COPILOT_LOG_LEVEL", "INFO")),
	}

	if path := os.Getenv("COPILOT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			slog.Warn("config file ignored", "path", path, "error", err)
		}
	}

	return cfg
}

// fileConfig is the YAML overlay shape. Only set fields override env values.
type fileConfig struct {
	Provider            string   `yaml:"provider"`
	Model               string   `yaml:"model"`
	ConfidenceThreshold *float64 `yaml:"confidence_threshold"`
	ServerPort          string   `yaml:"server_port"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
	SessionTTL          string   `yaml:"session_ttl"`
	LogFile             string   `yaml:"log_file"`
	LogLevel            string   `yaml:"log_level"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Provider != "" {
		c.LLMProvider = Provider(strings.ToLower(fc.Provider))
	}
	if fc.Model != "" {
		c.LLMModel = fc.Model
	}
	if fc.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = *fc.ConfidenceThreshold
	}
	if fc.ServerPort != "" {
		c.ServerPort = fc.ServerPort
	}
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.SessionTTL != "" {
		d, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("parse session_ttl: %w", err)
		}
		c.SessionTTL = d
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package config provides application-wide configuration. Values come from
// three layers: safe defaults, an optional YAML file, then environment
// variables (highest precedence). The binaries run locally without any setup;
// in particular a missing provider credential never prevents startup.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the gateway and the chat client.
type Config struct {
	// Gateway
	Provider string `yaml:"provider"` // LLM_PROVIDER — default: "gemini"
	Port     int    `yaml:"port"`     // PORT — default: 3002
	AuditDB  string `yaml:"audit_db"` // CHARLA_AUDIT_DB — default: "charla-audit.db"; "" disables the audit log

	// Providers
	GeminiAPIKey  string `yaml:"gemini_api_key"`  // GEMINI_API_KEY — no default
	GeminiBaseURL string `yaml:"gemini_base_url"` // GEMINI_BASE_URL
	GeminiModel   string `yaml:"gemini_model"`    // GEMINI_MODEL
	OpenAIAPIKey  string `yaml:"openai_api_key"`  // OPENAI_API_KEY — no default
	OpenAIBaseURL string `yaml:"openai_base_url"` // OPENAI_BASE_URL
	OpenAIModel   string `yaml:"openai_model"`    // OPENAI_MODEL
	OllamaBaseURL string `yaml:"ollama_base_url"` // OLLAMA_BASE_URL
	OllamaModel   string `yaml:"ollama_model"`    // OLLAMA_MODEL

	// Chat client
	ServerURL string `yaml:"server_url"` // CHARLA_SERVER_URL — default: "http://localhost:3002"
	DataPath  string `yaml:"data_path"`  // CHARLA_DATA — default: ~/.charla/charla.bolt
}

// defaultConfigFile is consulted when CHARLA_CONFIG is not set.
const defaultConfigFile = "charla.yml"

// Load builds the configuration: defaults, then the YAML file (if present),
// then environment variables. A missing or unreadable file is not an error.
func Load() Config {
	cfg := defaults()
	applyFile(&cfg, envOr("CHARLA_CONFIG", defaultConfigFile))
	applyEnv(&cfg)
	return cfg
}

func defaults() Config {
	return Config{
		Provider:      "gemini",
		Port:          3002,
		AuditDB:       "charla-audit.db",
		GeminiBaseURL: "https://generativelanguage.googleapis.com",
		GeminiModel:   "gemini-2.0-flash",
		OpenAIBaseURL: "https://api.openai.com",
		OpenAIModel:   "gpt-4.1-mini",
		OllamaBaseURL: "http://localhost:11434",
		OllamaModel:   "llama3.2:3b",
		ServerURL:     "http://localhost:3002",
		DataPath:      defaultDataPath(),
	}
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "charla.bolt"
	}
	return filepath.Join(home, ".charla", "charla.bolt")
}

// applyFile overlays values from a YAML config file. Malformed or missing
// files are skipped silently: configuration must never block startup.
func applyFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from CHARLA_CONFIG or the fixed default
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	cfg.Provider = envOr("LLM_PROVIDER", cfg.Provider)
	cfg.Port = envIntOr("PORT", cfg.Port)
	// An empty CHARLA_AUDIT_DB is meaningful: it disables the audit log.
	if v, ok := os.LookupEnv("CHARLA_AUDIT_DB"); ok {
		cfg.AuditDB = v
	}
	cfg.GeminiAPIKey = envOr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiBaseURL = envOr("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.GeminiModel = envOr("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = envOr("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OllamaBaseURL = envOr("OLLAMA_BASE_URL", cfg.OllamaBaseURL)
	cfg.OllamaModel = envOr("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.ServerURL = envOr("CHARLA_SERVER_URL", cfg.ServerURL)
	cfg.DataPath = envOr("CHARLA_DATA", cfg.DataPath)
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOr returns the integer value of the environment variable key, or
// fallback if unset or not a number.
func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

package server

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Default upstream: Gemini's OpenAI-compatible chat endpoint.
const defaultUpstreamBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Config holds the server's environment configuration.
type Config struct {
	Addr            string // listen address
	GeminiAPIKey    string // server-side model credential
	UpstreamBaseURL string // OpenAI-compatible chat-completions root
	DefaultModel    string // model used when the payload names none
	MaterialsURL    string // optional base URL for linguistic reference files
	LogLevel        string
}

// LoadConfig reads configuration from the environment, after loading a .env
// file when one is present. The model credential is required: the whole point
// of this process is keeping it off the client.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:            envOr("ADDR", ":8080"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		UpstreamBaseURL: envOr("UPSTREAM_BASE_URL", defaultUpstreamBaseURL),
		DefaultModel:    envOr("DEFAULT_MODEL", "gemini-1.5-flash"),
		MaterialsURL:    os.Getenv("MATERIALS_BASE_URL"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

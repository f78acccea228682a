// Package config loads service configuration from environment variables.
// Every knob has a default; only provider credentials are genuinely
// required, and even those are validated at the point of use rather than
// here.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration of the service.
type Config struct {
	// Port the HTTP server binds to.
	Port string

	// AllowedOrigins is the CORS allow-list. Empty or ["*"] allows all.
	AllowedOrigins []string

	// Provider selects the generation backend: "anthropic" or any
	// OpenAI-compatible provider ("openai", "groq", ...).
	Provider string

	// Model is the generation model name. Empty uses the backend default.
	Model string

	// APIKey authenticates OpenAI-compatible providers.
	APIKey string

	// AnthropicKey authenticates the Anthropic backend.
	AnthropicKey string

	// BaseURL overrides the endpoint for OpenAI-compatible providers.
	BaseURL string

	// GenTimeout bounds each generation call.
	GenTimeout time.Duration

	// CorpusDir holds the document corpus. Empty disables retrieval.
	CorpusDir string

	// MemoryTopK, RecentTurns, MaxContextLines tune the memory context.
	MemoryTopK      int
	RecentTurns     int
	MaxContextLines int

	// EmbeddingCacheSize caps the embedding cache entry count.
	EmbeddingCacheSize int64
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:               stringOr("PORT", "8080"),
		AllowedOrigins:     sliceOr("ALLOWED_ORIGINS", nil),
		Provider:           stringOr("LLM_PROVIDER", "anthropic"),
		Model:              os.Getenv("LLM_MODEL"),
		APIKey:             os.Getenv("LLM_API_KEY"),
		AnthropicKey:       os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL:            os.Getenv("LLM_BASE_URL"),
		GenTimeout:         time.Duration(intOr("LLM_TIMEOUT", 120)) * time.Second,
		CorpusDir:          os.Getenv("CORPUS_DIR"),
		MemoryTopK:         intOr("MEMORY_TOP_K", 6),
		RecentTurns:        intOr("MEMORY_RECENT_TURNS", 6),
		MaxContextLines:    intOr("MEMORY_MAX_LINES", 12),
		EmbeddingCacheSize: int64(intOr("EMBEDDING_CACHE_SIZE", 4096)),
	}
}

func stringOr(name, defaultValue string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultValue
}

func intOr(name string, defaultValue int) int {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func sliceOr(name string, defaultValue []string) []string {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

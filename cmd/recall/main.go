// Command recall runs the conversational assistant service: session-scoped
// memory, optional document retrieval, and a pluggable generation backend
// behind an HTTP/WebSocket API.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/contextmesh/recall/config"
	"github.com/contextmesh/recall/llm"
	"github.com/contextmesh/recall/memory"
	"github.com/contextmesh/recall/memory/embedder/cached"
	"github.com/contextmesh/recall/qa"
	"github.com/contextmesh/recall/rag"
	ragchromem "github.com/contextmesh/recall/rag/chromem"
	"github.com/contextmesh/recall/server"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// One embedder serves both the session memory and the document corpus so
	// everything lives in a single vector space.
	base, err := newEmbedder()
	if err != nil {
		log.Fatalf("embedder setup: %v", err)
	}
	embedder, err := cached.New(base, cfg.EmbeddingCacheSize)
	if err != nil {
		log.Fatalf("embedding cache setup: %v", err)
	}
	defer embedder.Close()

	store := memory.NewSessionStore(embedder)
	if err := store.SelfCheck(context.Background()); err != nil {
		log.Fatalf("embedder self-check: %v", err)
	}
	log.Printf("[MAIN] Memory engine ready (dim=%d)", base.Dimensions())

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatalf("generator setup: %v", err)
	}

	opts := []qa.Option{
		qa.WithGenerationTimeout(cfg.GenTimeout),
		qa.WithContextOptions(memory.ContextOptions{
			TopK:       cfg.MemoryTopK,
			RecentK:    cfg.RecentTurns,
			MaxLines:   cfg.MaxContextLines,
			SystemHint: qa.SystemHint,
		}),
	}

	// Document retrieval is a capability decided here, once. No corpus dir,
	// or a corpus that fails to load, means the assistant runs on
	// conversational memory alone.
	if retriever := loadCorpus(cfg, embedder); retriever != nil {
		opts = append(opts, qa.WithRetriever(retriever))
	}

	engine := qa.New(store, generator, opts...)

	srv := server.New(engine, store, cfg.AllowedOrigins)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func newGenerator(cfg config.Config) (llm.Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", cfg.Provider)
		}
		return llm.NewAnthropicGenerator(cfg.AnthropicKey, cfg.Model, 0), nil
	default:
		// Groq, Together, Fireworks and friends all speak the OpenAI API.
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for provider %q", cfg.Provider)
		}
		return llm.NewOpenAIGenerator(llm.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	}
}

func loadCorpus(cfg config.Config, embedder memory.Embedder) rag.Retriever {
	if cfg.CorpusDir == "" {
		log.Printf("[MAIN] Document retrieval disabled (no CORPUS_DIR)")
		return nil
	}

	chunks, err := rag.LoadDir(cfg.CorpusDir, rag.DefaultSplitter())
	if err != nil {
		log.Printf("[MAIN] Document retrieval disabled: %v", err)
		return nil
	}
	if len(chunks) == 0 {
		log.Printf("[MAIN] Document retrieval disabled (empty corpus)")
		return nil
	}

	corpus, err := ragchromem.New(embedder)
	if err != nil {
		log.Printf("[MAIN] Document retrieval disabled: %v", err)
		return nil
	}
	if err := corpus.Ingest(context.Background(), chunks); err != nil {
		log.Printf("[MAIN] Document retrieval disabled: %v", err)
		return nil
	}

	log.Printf("[MAIN] Document corpus ready (%d chunks)", corpus.Count())
	return corpus
}

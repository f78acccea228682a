// Package qa sequences a full question-answering turn: memory context,
// document context, prompt composition, the generation call, and turn
// persistence. Every failure below this boundary is degraded or recovered;
// Answer never fails its caller.
package qa

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/contextmesh/recall/core"
	"github.com/contextmesh/recall/llm"
	"github.com/contextmesh/recall/memory"
	"github.com/contextmesh/recall/rag"
)

// FallbackAnswer is returned when the generation backend fails or produces
// nothing. The turn is still persisted so the transcript stays coherent.
const FallbackAnswer = "No answer could be generated from the available context."

// DefaultSessionID is substituted when the caller supplies no session id.
const DefaultSessionID = "default"

// Engine orchestrates one answer per call. The memory store and generator
// are required; the document retriever is an optional capability decided at
// composition time.
type Engine struct {
	store      *memory.SessionStore
	generator  llm.Generator
	retriever  rag.Retriever
	genTimeout time.Duration
	docTopK    int
	ctxOpts    memory.ContextOptions
}

// Option configures the engine.
type Option func(*Engine)

// WithRetriever enables document retrieval. Absent, the engine answers from
// conversational memory alone.
func WithRetriever(r rag.Retriever) Option {
	return func(e *Engine) {
		e.retriever = r
	}
}

// WithGenerationTimeout bounds the generation call. Default 120s.
func WithGenerationTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.genTimeout = d
		}
	}
}

// WithDocumentTopK sets how many passages are fetched per question.
func WithDocumentTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.docTopK = k
		}
	}
}

// WithContextOptions overrides the memory context tuning.
func WithContextOptions(opts memory.ContextOptions) Option {
	return func(e *Engine) {
		e.ctxOpts = opts
	}
}

// New creates an engine with the assistant's shipped defaults: memory k=6,
// recency window 6, 12 context lines, 4 document passages, 120s generation
// timeout.
func New(store *memory.SessionStore, generator llm.Generator, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		generator:  generator,
		genTimeout: 120 * time.Second,
		docTopK:    4,
		ctxOpts:    memory.DefaultContextOptions(),
	}
	e.ctxOpts.SystemHint = SystemHint
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer runs the full sequence for one question and returns the answer
// text. It never returns an error: generation failures become
// FallbackAnswer, and anything unexpected becomes a user-visible error
// string.
//
// The memory context is built from the history as it stood before this
// question; the user and assistant turns are persisted only after
// generation, in that order, so the question never matches against itself.
func (e *Engine) Answer(ctx context.Context, question, sessionID string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[QA] Panic answering question: %v", r)
			answer = fmt.Sprintf("Error processing the question: %v", r)
		}
	}()

	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	memoryContext := e.buildMemoryContext(ctx, sessionID, question)
	documentContext := e.fetchDocumentContext(ctx, question)

	prompt := buildPrompt(memoryContext, documentContext, question)

	text := e.generate(ctx, prompt)

	// Persist after generation so a slow backend never holds session state,
	// and a failed one still leaves a coherent transcript.
	if err := e.store.AddMessage(ctx, sessionID, core.RoleUser, question); err != nil {
		log.Printf("[QA] Failed to record user turn: %v", err)
	}
	if err := e.store.AddMessage(ctx, sessionID, core.RoleAssistant, text); err != nil {
		log.Printf("[QA] Failed to record assistant turn: %v", err)
	}
	log.Printf("[QA] Session %q now has %d turns", sessionID, e.store.TurnCount(sessionID))

	return text
}

// buildMemoryContext degrades an assembler failure to the bare system hint;
// losing memory context must not lose the answer.
func (e *Engine) buildMemoryContext(ctx context.Context, sessionID, question string) string {
	memoryContext, err := e.store.BuildContext(ctx, sessionID, question, e.ctxOpts)
	if err != nil {
		log.Printf("[QA] Memory context failed: %v", err)
		return strings.TrimSpace(e.ctxOpts.SystemHint)
	}
	return memoryContext
}

// fetchDocumentContext returns the joined passage texts, or "" when the
// retriever is absent, empty, or failing.
func (e *Engine) fetchDocumentContext(ctx context.Context, question string) string {
	if e.retriever == nil {
		return ""
	}

	passages, err := e.retriever.Retrieve(ctx, question, e.docTopK)
	if err != nil {
		log.Printf("[QA] Document retrieval failed: %v", err)
		return ""
	}
	if len(passages) == 0 {
		return ""
	}

	texts := make([]string, 0, len(passages))
	for i, p := range passages {
		log.Printf("[QA] Passage %d: source=%s page=%d", i+1, p.Source, p.Page)
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n\n")
}

// generate calls the backend under the configured timeout and recovers any
// failure into FallbackAnswer.
func (e *Engine) generate(ctx context.Context, prompt string) string {
	genCtx, cancel := context.WithTimeout(ctx, e.genTimeout)
	defer cancel()

	text, err := e.generator.Generate(genCtx, prompt, SystemRole)
	if err != nil {
		log.Printf("[QA] Generation failed: %v", err)
		return FallbackAnswer
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackAnswer
	}
	return text
}

package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/contextmesh/recall/core"
	"github.com/contextmesh/recall/memory"
	"github.com/contextmesh/recall/memory/embedder/mock"
)

// stubGenerator records every prompt and replies with a canned text or
// error.
type stubGenerator struct {
	prompts []string
	systems []string
	text    string
	err     error
	panics  bool
}

func (g *stubGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.systems = append(g.systems, system)
	if g.panics {
		panic("generator exploded")
	}
	return g.text, g.err
}

// stubRetriever returns fixed passages or a fixed error.
type stubRetriever struct {
	passages []core.Passage
	err      error
	calls    int
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string, k int) ([]core.Passage, error) {
	r.calls++
	return r.passages, r.err
}

func newTestStore() *memory.SessionStore {
	return memory.NewSessionStore(mock.New(32))
}

func TestAnswerSuccessPersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	gen := &stubGenerator{text: "SSO means single sign-on."}

	engine := New(store, gen)
	answer := engine.Answer(ctx, "What is SSO?", "s1")

	if answer != "SSO means single sign-on." {
		t.Fatalf("answer = %q", answer)
	}
	if got := store.TurnCount("s1"); got != 2 {
		t.Fatalf("TurnCount = %d, want 2 (user + assistant)", got)
	}

	// The transcript orders user before assistant.
	block, err := store.BuildContext(ctx, "s1", "SSO", memory.DefaultContextOptions())
	if err != nil {
		t.Fatal(err)
	}
	userAt := strings.Index(block, "user: What is SSO?")
	asstAt := strings.Index(block, "assistant: SSO means single sign-on.")
	if userAt < 0 || asstAt < 0 || asstAt < userAt {
		t.Fatalf("transcript out of order:\n%s", block)
	}
}

func TestAnswerBuildsContextBeforePersisting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	gen := &stubGenerator{text: "answer one"}
	engine := New(store, gen)

	engine.Answer(ctx, "unique question text", "s1")

	// First call: the question was not yet in the session, so it must not
	// appear as a remembered turn in its own prompt.
	if strings.Contains(gen.prompts[0], "user: unique question text") {
		t.Fatalf("first prompt already contains the current question as memory:\n%s", gen.prompts[0])
	}

	gen.text = "answer two"
	engine.Answer(ctx, "unique question text", "s1")

	// Second call: the first exchange is history now and must be visible.
	if !strings.Contains(gen.prompts[1], "user: unique question text") {
		t.Fatalf("second prompt is missing the first exchange:\n%s", gen.prompts[1])
	}
	if !strings.Contains(gen.prompts[1], "assistant: answer one") {
		t.Fatalf("second prompt is missing the first answer:\n%s", gen.prompts[1])
	}
}

func TestAnswerGenerationFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	gen := &stubGenerator{err: errors.New("deadline exceeded")}
	engine := New(store, gen)

	answer := engine.Answer(ctx, "What is SSO?", "s1")
	if answer != FallbackAnswer {
		t.Fatalf("answer = %q, want the fallback", answer)
	}

	// The failed turn still leaves a coherent transcript: the question plus
	// the fallback as the assistant turn.
	if got := store.TurnCount("s1"); got != 2 {
		t.Fatalf("TurnCount = %d, want 2", got)
	}
	block, err := store.BuildContext(ctx, "s1", "SSO", memory.DefaultContextOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(block, "assistant: "+FallbackAnswer) {
		t.Fatalf("fallback missing from transcript:\n%s", block)
	}
}

func TestAnswerEmptyCompletionFallsBack(t *testing.T) {
	store := newTestStore()
	gen := &stubGenerator{text: "   \n  "}
	engine := New(store, gen)

	if answer := engine.Answer(context.Background(), "hello", "s1"); answer != FallbackAnswer {
		t.Fatalf("answer = %q, want the fallback for blank completions", answer)
	}
}

func TestAnswerDefaultSessionID(t *testing.T) {
	store := newTestStore()
	gen := &stubGenerator{text: "hi"}
	engine := New(store, gen)

	engine.Answer(context.Background(), "hello", "")

	if got := store.TurnCount(DefaultSessionID); got != 2 {
		t.Fatalf("TurnCount(%q) = %d, want 2", DefaultSessionID, got)
	}
}

func TestAnswerRetrieverAbsent(t *testing.T) {
	store := newTestStore()
	gen := &stubGenerator{text: "fine"}
	engine := New(store, gen)

	engine.Answer(context.Background(), "hello", "s1")

	if strings.Contains(gen.prompts[0], "=== DOCUMENT CONTEXT ===") {
		t.Fatalf("prompt has a document block without a retriever:\n%s", gen.prompts[0])
	}
}

func TestAnswerRetrieverErrorDegrades(t *testing.T) {
	store := newTestStore()
	gen := &stubGenerator{text: "fine"}
	retr := &stubRetriever{err: errors.New("index not reachable")}
	engine := New(store, gen, WithRetriever(retr))

	answer := engine.Answer(context.Background(), "hello", "s1")

	if answer != "fine" {
		t.Fatalf("answer = %q, retrieval failure must not fail the answer", answer)
	}
	if retr.calls != 1 {
		t.Fatalf("retriever calls = %d, want 1", retr.calls)
	}
	if strings.Contains(gen.prompts[0], "=== DOCUMENT CONTEXT ===") {
		t.Fatal("prompt has a document block despite retrieval failure")
	}
}

func TestAnswerIncludesDocumentContext(t *testing.T) {
	store := newTestStore()
	gen := &stubGenerator{text: "fine"}
	retr := &stubRetriever{passages: []core.Passage{
		{Text: "SAML assertions carry identity.", Source: "sso.md", Page: 2},
		{Text: "OIDC uses ID tokens.", Source: "oidc.md", Page: 1},
	}}
	engine := New(store, gen, WithRetriever(retr))

	engine.Answer(context.Background(), "How does SSO work?", "s1")

	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "=== DOCUMENT CONTEXT ===") {
		t.Fatalf("prompt missing document block:\n%s", prompt)
	}
	if !strings.Contains(prompt, "SAML assertions carry identity.") ||
		!strings.Contains(prompt, "OIDC uses ID tokens.") {
		t.Fatalf("prompt missing passage text:\n%s", prompt)
	}
	if !strings.Contains(prompt, "=== QUESTION ===\nHow does SSO work?\n=== ANSWER ===") {
		t.Fatalf("prompt missing question/answer frame:\n%s", prompt)
	}
}

func TestAnswerRecoversFromPanic(t *testing.T) {
	store := newTestStore()
	gen := &stubGenerator{panics: true}
	engine := New(store, gen)

	answer := engine.Answer(context.Background(), "hello", "s1")
	if !strings.HasPrefix(answer, "Error processing the question:") {
		t.Fatalf("answer = %q, want a recovered error string", answer)
	}
}

func TestAnswerSendsSystemRole(t *testing.T) {
	store := newTestStore()
	gen := &stubGenerator{text: "ok"}
	engine := New(store, gen)

	engine.Answer(context.Background(), "hello", "s1")

	if gen.systems[0] != SystemRole {
		t.Fatalf("system = %q, want %q", gen.systems[0], SystemRole)
	}
}

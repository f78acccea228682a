package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/contextmesh/recall/core"
)

func TestAddMessageAlignment(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newStubEmbedder(8))

	for i := 0; i < 25; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		if err := store.AddMessage(ctx, "s1", role, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("AddMessage #%d: %v", i, err)
		}

		sess, ok := store.lookup("s1")
		if !ok {
			t.Fatal("session s1 missing after write")
		}
		if len(sess.turns) != sess.index.Count() {
			t.Fatalf("after %d adds: %d turns vs %d index entries", i+1, len(sess.turns), sess.index.Count())
		}
	}

	if got := store.TurnCount("s1"); got != 25 {
		t.Fatalf("TurnCount = %d, want 25", got)
	}
}

func TestAddMessageConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newStubEmbedder(8))

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// Writers hit a shared session and their own session, plus
				// concurrent context reads.
				_ = store.AddMessage(ctx, "shared", core.RoleUser, fmt.Sprintf("w%d turn %d", w, i))
				_ = store.AddMessage(ctx, fmt.Sprintf("own-%d", w), core.RoleUser, fmt.Sprintf("turn %d", i))
				_, _ = store.BuildContext(ctx, "shared", "anything", DefaultContextOptions())
			}
		}(w)
	}
	wg.Wait()

	sess, ok := store.lookup("shared")
	if !ok {
		t.Fatal("shared session missing")
	}
	if len(sess.turns) != workers*perWorker {
		t.Fatalf("shared session has %d turns, want %d", len(sess.turns), workers*perWorker)
	}
	if len(sess.turns) != sess.index.Count() {
		t.Fatalf("alignment broken: %d turns vs %d index entries", len(sess.turns), sess.index.Count())
	}

	for w := 0; w < workers; w++ {
		id := fmt.Sprintf("own-%d", w)
		if got := store.TurnCount(id); got != perWorker {
			t.Fatalf("session %s has %d turns, want %d", id, got, perWorker)
		}
	}
}

func TestAddMessageBlankInputsAreNoOps(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newStubEmbedder(8))

	if err := store.AddMessage(ctx, "", core.RoleUser, "hello"); err != nil {
		t.Fatalf("empty session id: %v", err)
	}
	if err := store.AddMessage(ctx, "s1", core.RoleUser, ""); err != nil {
		t.Fatalf("empty content: %v", err)
	}
	if err := store.AddMessage(ctx, "s1", core.RoleUser, "   \n\t"); err != nil {
		t.Fatalf("blank content: %v", err)
	}

	if got := store.TurnCount("s1"); got != 0 {
		t.Fatalf("TurnCount = %d, want 0 after no-op writes", got)
	}
}

func TestAddMessageEmbedFailureIsIndependent(t *testing.T) {
	ctx := context.Background()
	embedder := &failingEmbedder{inner: newStubEmbedder(8), marker: "poison"}
	store := NewSessionStore(embedder)

	if err := store.AddMessage(ctx, "s1", core.RoleUser, "first good turn"); err != nil {
		t.Fatalf("good turn: %v", err)
	}
	if err := store.AddMessage(ctx, "s1", core.RoleUser, "poison turn"); !errors.Is(err, errEmbedUnavailable) {
		t.Fatalf("poisoned turn: got %v, want errEmbedUnavailable", err)
	}
	if err := store.AddMessage(ctx, "s1", core.RoleUser, "second good turn"); err != nil {
		t.Fatalf("good turn after failure: %v", err)
	}

	if got := store.TurnCount("s1"); got != 2 {
		t.Fatalf("TurnCount = %d, want 2 (failure must only lose its own turn)", got)
	}

	sess, _ := store.lookup("s1")
	if len(sess.turns) != sess.index.Count() {
		t.Fatalf("alignment broken after partial failure: %d vs %d", len(sess.turns), sess.index.Count())
	}
}

func TestWipeKeepsSessionWritable(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newStubEmbedder(8))

	if err := store.AddMessage(ctx, "s1", core.RoleUser, "before wipe"); err != nil {
		t.Fatal(err)
	}
	store.Wipe("s1")

	if got := store.TurnCount("s1"); got != 0 {
		t.Fatalf("TurnCount after wipe = %d, want 0", got)
	}

	if err := store.AddMessage(ctx, "s1", core.RoleUser, "after wipe"); err != nil {
		t.Fatalf("write after wipe: %v", err)
	}
	if got := store.TurnCount("s1"); got != 1 {
		t.Fatalf("TurnCount after post-wipe write = %d, want 1", got)
	}
}

func TestWipeMissingSessionIsNoOp(t *testing.T) {
	store := NewSessionStore(newStubEmbedder(8))
	store.Wipe("never-seen") // must not panic or create the session

	if _, ok := store.lookup("never-seen"); ok {
		t.Fatal("Wipe created a session")
	}
}

func TestDropThenWriteRecreates(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newStubEmbedder(8))

	if err := store.AddMessage(ctx, "s1", core.RoleUser, "original"); err != nil {
		t.Fatal(err)
	}
	store.Drop("s1")
	store.Drop("s1") // absent: no-op

	if _, ok := store.lookup("s1"); ok {
		t.Fatal("session still present after Drop")
	}

	if err := store.AddMessage(ctx, "s1", core.RoleUser, "fresh start"); err != nil {
		t.Fatalf("write after drop: %v", err)
	}
	if got := store.TurnCount("s1"); got != 1 {
		t.Fatalf("TurnCount after recreate = %d, want 1", got)
	}
}

func TestClearAllIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newStubEmbedder(8))

	_ = store.AddMessage(ctx, "a", core.RoleUser, "x")
	_ = store.AddMessage(ctx, "b", core.RoleUser, "y")

	store.ClearAll()
	store.ClearAll()

	if store.TurnCount("a") != 0 || store.TurnCount("b") != 0 {
		t.Fatal("sessions survived ClearAll")
	}

	if err := store.AddMessage(ctx, "a", core.RoleUser, "again"); err != nil {
		t.Fatalf("write after ClearAll: %v", err)
	}
}

func TestSelfCheck(t *testing.T) {
	ctx := context.Background()

	if err := NewSessionStore(newStubEmbedder(8)).SelfCheck(ctx); err != nil {
		t.Fatalf("SelfCheck with honest embedder: %v", err)
	}

	store := NewSessionStore(&lyingEmbedder{declared: 8, actual: 4})
	if err := store.SelfCheck(ctx); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("SelfCheck with lying embedder: got %v, want ErrDimensionMismatch", err)
	}
}

package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// ContextOptions controls how BuildContext blends recency and similarity.
type ContextOptions struct {
	// TopK is the number of similarity matches to consider. Clamped to
	// [1, turn count] at query time.
	TopK int

	// RecentK is the size of the recency window. Zero or negative disables
	// the window.
	RecentK int

	// MaxLines bounds the merged list; the oldest-merged entries are dropped
	// first. Zero or negative means unbounded.
	MaxLines int

	// SystemHint is rendered as a leading [System] block when non-empty.
	SystemHint string
}

// DefaultContextOptions mirrors the tuning the assistant shipped with.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{TopK: 6, RecentK: 6, MaxLines: 12}
}

// BuildContext produces the bounded memory block for a (session, query)
// pair: a [System] block if a hint is given, then a [Relevant memory] block
// listing the last RecentK turns followed by the TopK most similar turns,
// deduplicated in first-seen order and truncated to MaxLines.
//
// A missing or empty session is the normal "new conversation" path and
// returns just the trimmed hint. Recency wins over similarity when a turn
// appears in both. Truncation drops the oldest-merged entries, a deliberate
// simplicity tradeoff over relevance-based truncation.
func (s *SessionStore) BuildContext(ctx context.Context, sessionID, query string, opts ContextOptions) (string, error) {
	hint := strings.TrimSpace(opts.SystemHint)

	sess, ok := s.lookup(sessionID)
	if !ok {
		return hint, nil
	}

	sess.mu.RLock()
	count := len(sess.turns)
	sess.mu.RUnlock()
	if count == 0 {
		return hint, nil
	}

	// Embed the query before taking the session lock; a concurrent write may
	// land in between, which just means we see the pre- or post-write state.
	q, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	k := opts.TopK
	if k < 1 {
		k = 1
	}

	sess.mu.RLock()
	turns := sess.turns
	if k > len(turns) {
		k = len(turns)
	}
	ordinals, err := sess.index.Search(q, k)
	sess.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("search index: %w", err)
	}

	var recent []string
	if opts.RecentK > 0 {
		start := len(turns) - opts.RecentK
		if start < 0 {
			start = 0
		}
		recent = turns[start:]
	}

	sem := make([]string, 0, len(ordinals))
	for _, i := range ordinals {
		if i < 0 || i >= len(turns) {
			continue
		}
		sem = append(sem, turns[i])
	}

	merged := mergeUnique(recent, sem)
	if opts.MaxLines > 0 && len(merged) > opts.MaxLines {
		merged = merged[len(merged)-opts.MaxLines:]
	}

	log.Printf("[MEMORY] Context for session %q: %d recent, %d similar, %d merged",
		sessionID, len(recent), len(sem), len(merged))

	var blocks []string
	if hint != "" {
		blocks = append(blocks, "[System]\n"+hint)
	}
	if len(merged) > 0 {
		blocks = append(blocks, "[Relevant memory]\n"+strings.Join(merged, "\n"))
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n")), nil
}

// mergeUnique concatenates recent then sem, keeping the first occurrence of
// each text. Recency therefore wins placement on duplicates.
func mergeUnique(recent, sem []string) []string {
	merged := make([]string, 0, len(recent)+len(sem))
	seen := make(map[string]struct{}, len(recent)+len(sem))
	for _, t := range append(append([]string{}, recent...), sem...) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}

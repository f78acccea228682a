package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/contextmesh/recall/core"
)

// SessionStore owns the session registry: one turn log plus one vector index
// per session id. Sessions are created lazily on first use and exist only in
// process memory.
//
// The registry map is guarded by its own lock; each session carries a second
// lock serializing mutations so that the turn log and the index never drift
// out of alignment. Reads on one session never block writes on another.
type SessionStore struct {
	embedder Embedder
	dim      int

	mu       sync.RWMutex
	sessions map[string]*session
}

// session pairs an ordered turn log with the vector index over the same
// ordinal positions. turns[i] is always the text embedded at index entry i.
type session struct {
	mu    sync.RWMutex
	turns []string
	index *VectorIndex
}

// NewSessionStore creates a store that embeds turns with the given embedder.
func NewSessionStore(embedder Embedder) *SessionStore {
	return &SessionStore{
		embedder: embedder,
		dim:      embedder.Dimensions(),
		sessions: make(map[string]*session),
	}
}

// SelfCheck embeds a probe text and verifies the embedder actually produces
// vectors of its declared dimension. Call once at composition time; a
// mismatch here is a configuration error and should abort startup.
func (s *SessionStore) SelfCheck(ctx context.Context) error {
	vec, err := s.embedder.Embed(ctx, "dimension self-check")
	if err != nil {
		return fmt.Errorf("self-check embed: %w", err)
	}
	if len(vec) != s.dim {
		return fmt.Errorf("%w: embedder returned %d, declared %d", ErrDimensionMismatch, len(vec), s.dim)
	}
	return nil
}

// AddMessage renders, embeds, and appends one turn to the session, creating
// the session if needed. Empty session ids and blank content are silently
// ignored. Each call is independent: an embedding failure loses only the
// turn it was asked to store.
func (s *SessionStore) AddMessage(ctx context.Context, sessionID string, role core.Role, content string) error {
	if sessionID == "" || strings.TrimSpace(content) == "" {
		return nil
	}

	text := strings.TrimSpace(core.Turn{Role: role, Content: content}.String())

	// Embed outside any lock: this is the only slow operation in the store.
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed turn: %w", err)
	}

	sess := s.getOrCreate(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.index.Add(vec); err != nil {
		return fmt.Errorf("index turn: %w", err)
	}
	sess.turns = append(sess.turns, text)
	return nil
}

// Wipe clears a session's turns and resets its index. The id stays valid for
// future writes. No-op if the session does not exist.
func (s *SessionStore) Wipe(sessionID string) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.turns = nil
	sess.index.Reset()
	sess.mu.Unlock()
	log.Printf("[MEMORY] Wiped session %q", sessionID)
}

// Drop removes the session entirely. A later write recreates it empty.
// No-op if absent.
func (s *SessionStore) Drop(sessionID string) {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		log.Printf("[MEMORY] Dropped session %q", sessionID)
	}
}

// ClearAll empties the registry. Idempotent.
func (s *SessionStore) ClearAll() {
	s.mu.Lock()
	s.sessions = make(map[string]*session)
	s.mu.Unlock()
	log.Printf("[MEMORY] Cleared all sessions")
}

// TurnCount returns the number of turns recorded for the session, zero if
// the session does not exist.
func (s *SessionStore) TurnCount(sessionID string) int {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return len(sess.turns)
}

// getOrCreate returns the session for an id, creating it on first use.
func (s *SessionStore) getOrCreate(sessionID string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}

	sess = &session{index: NewVectorIndex(s.dim)}
	s.sessions[sessionID] = sess
	return sess
}

// lookup returns the session for an id without creating it.
func (s *SessionStore) lookup(sessionID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

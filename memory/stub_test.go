package memory

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
)

// stubEmbedder returns pinned vectors for known texts and a deterministic
// hash-derived vector otherwise, so tests can control similarity exactly
// where it matters and still embed arbitrary text.
type stubEmbedder struct {
	dim  int
	vecs map[string][]float32
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{dim: dim, vecs: make(map[string][]float32)}
}

func (s *stubEmbedder) pin(text string, vec []float32) {
	s.vecs[text] = vec
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.vecs[text]; ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float32, s.dim)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return vec, nil
}

func (s *stubEmbedder) Dimensions() int {
	return s.dim
}

// failingEmbedder fails on texts containing a marker substring, to verify
// that one turn's embedding failure never affects another turn.
type failingEmbedder struct {
	inner  *stubEmbedder
	marker string
}

var errEmbedUnavailable = errors.New("embedding backend unavailable")

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.marker != "" && strings.Contains(text, f.marker) {
		return nil, errEmbedUnavailable
	}
	return f.inner.Embed(ctx, text)
}

func (f *failingEmbedder) Dimensions() int {
	return f.inner.Dimensions()
}

// lyingEmbedder declares one dimension but produces another, for the
// startup self-check test.
type lyingEmbedder struct {
	declared int
	actual   int
}

func (l *lyingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, l.actual), nil
}

func (l *lyingEmbedder) Dimensions() int {
	return l.declared
}

package memory

import (
	"context"
	"errors"
)

// ErrDimensionMismatch reports a vector whose length differs from the fixed
// dimension of an index or embedder. This is a configuration error: it is
// checked once at composition time (see SessionStore.SelfCheck) and should
// never surface per call in a correctly wired process.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder converts text to vector embeddings.
// Implementations: mock.Embedder (testing), onnx.Embedder (local, build tag
// "onnx"), cached.Embedder (ristretto decorator over either).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size. Fixed for the lifetime
	// of the embedder.
	Dimensions() int
}

// Package rag provides the static document corpus side of the assistant:
// loading documents, splitting them into overlapping chunks, and the
// Retriever interface the orchestrator consumes. The corpus is a pre-built
// similarity index, entirely separate from conversational memory.
package rag

import (
	"context"

	"github.com/contextmesh/recall/core"
)

// Retriever answers similarity queries over the document corpus.
// Implementations: chromem.Corpus (embedded vector database).
//
// The retriever is an optional capability: composition wires either a real
// retriever or none at all, and the orchestrator degrades to answering from
// memory alone when it is absent.
type Retriever interface {
	// Retrieve returns up to k passages ranked by similarity to the query.
	// An empty result means "no data"; an error means the collaborator
	// itself failed.
	Retrieve(ctx context.Context, query string, k int) ([]core.Passage, error)
}

// Chunk is one embeddable slice of a source document.
type Chunk struct {
	Text   string
	Source string
	Page   int
}

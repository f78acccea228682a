//go:build !onnx

package main

import (
	"log"

	"github.com/contextmesh/recall/memory"
	"github.com/contextmesh/recall/memory/embedder/mock"
)

// newEmbedder returns the hash-based embedder used in default builds.
// Build with -tags onnx for real semantic embeddings.
func newEmbedder() (memory.Embedder, error) {
	log.Printf("[MAIN] Using mock embedder (build with -tags onnx for semantic search)")
	return mock.New(384), nil
}

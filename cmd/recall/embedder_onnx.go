//go:build onnx

package main

import (
	"log"
	"os"

	"github.com/contextmesh/recall/memory"
	"github.com/contextmesh/recall/memory/embedder/onnx"
)

// newEmbedder loads the all-MiniLM-L6-v2 ONNX model. Model and tokenizer
// paths come from the environment so deployments can mount them anywhere.
func newEmbedder() (memory.Embedder, error) {
	modelPath := os.Getenv("ONNX_MODEL_PATH")
	if modelPath == "" {
		modelPath = "models/all-MiniLM-L6-v2/model.onnx"
	}
	tokenizerPath := os.Getenv("ONNX_TOKENIZER_PATH")
	if tokenizerPath == "" {
		tokenizerPath = "models/all-MiniLM-L6-v2/tokenizer.json"
	}

	log.Printf("[MAIN] Using ONNX embedder (%s)", modelPath)
	return onnx.New(onnx.Config{
		ModelPath:     modelPath,
		TokenizerPath: tokenizerPath,
		Dimensions:    384,
	})
}

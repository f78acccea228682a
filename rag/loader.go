package rag

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir reads every .txt and .md file under dir and splits each into
// chunks. The Page field numbers chunks within their file starting at 1,
// standing in for PDF page numbers in citations.
//
// Unreadable files are skipped with a log line rather than failing the whole
// corpus load.
func LoadDir(dir string, splitter Splitter) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var chunks []Chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Printf("[RAG] Skipping %s: %v", entry.Name(), err)
			continue
		}

		parts := splitter.Split(string(data))
		for i, part := range parts {
			chunks = append(chunks, Chunk{
				Text:   part,
				Source: entry.Name(),
				Page:   i + 1,
			})
		}
		log.Printf("[RAG] Loaded %s: %d chunks", entry.Name(), len(parts))
	}
	return chunks, nil
}

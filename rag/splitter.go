package rag

import "strings"

// Splitter cuts document text into chunks of roughly Size characters with
// Overlap characters carried over between consecutive chunks. It prefers to
// break at newlines, then sentence ends, then spaces, falling back to a hard
// cut for pathological input.
type Splitter struct {
	Size    int
	Overlap int
}

// DefaultSplitter matches the corpus indexing parameters the assistant was
// tuned with.
func DefaultSplitter() Splitter {
	return Splitter{Size: 500, Overlap: 50}
}

var separators = []string{"\n", ".", " "}

// Split returns the chunks of text. Blank chunks are dropped.
func (s Splitter) Split(text string) []string {
	size := s.Size
	if size <= 0 {
		size = 500
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(text); {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			end = s.cutPoint(text, start, end)
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// cutPoint finds the latest separator in (start, limit] so chunks end on a
// natural boundary when one exists in the window.
func (s Splitter) cutPoint(text string, start, limit int) int {
	window := text[start:limit]
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i > 0 {
			return start + i + len(sep)
		}
	}
	return limit
}

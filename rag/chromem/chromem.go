// Package chromem backs the document corpus with chromem-go, a pure Go
// embedded vector database. Chunks are embedded once at ingestion; queries
// run cosine similarity over the collection.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/contextmesh/recall/core"
	"github.com/contextmesh/recall/memory"
	"github.com/contextmesh/recall/rag"
)

const collectionName = "documents"

// Corpus is a chromem-go backed rag.Retriever.
type Corpus struct {
	db       *chromem.DB
	col      *chromem.Collection
	embedder memory.Embedder
}

// New creates an empty corpus using the given embedder for both ingestion
// and queries. The two must share one vector space, which a single embedder
// guarantees.
func New(embedder memory.Embedder) (*Corpus, error) {
	db := chromem.NewDB()

	// Embeddings are supplied by us; no embedding func or custom distance.
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Corpus{db: db, col: col, embedder: embedder}, nil
}

// Ingest embeds and indexes the chunks. A chunk whose embedding fails is
// skipped with a log line; the rest of the batch still lands.
func (c *Corpus) Ingest(ctx context.Context, chunks []rag.Chunk) error {
	stored := 0
	for i, chunk := range chunks {
		vec, err := c.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			log.Printf("[RAG] Failed to embed chunk #%d (%s): %v", i+1, chunk.Source, err)
			continue
		}

		doc := chromem.Document{
			ID:        fmt.Sprintf("%s-%d", chunk.Source, chunk.Page),
			Content:   chunk.Text,
			Embedding: vec,
			Metadata: map[string]string{
				"source": chunk.Source,
				"page":   strconv.Itoa(chunk.Page),
			},
		}
		if err := c.col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}
		stored++
	}

	log.Printf("[RAG] Indexed %d/%d chunks", stored, len(chunks))
	return nil
}

// Count returns the number of indexed chunks.
func (c *Corpus) Count() int {
	return c.col.Count()
}

// Retrieve returns up to k passages ranked by similarity to the query.
// k is clamped to the collection size; an empty corpus yields no passages
// and no error.
func (c *Corpus) Retrieve(ctx context.Context, query string, k int) ([]core.Passage, error) {
	count := c.col.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := c.col.QueryEmbedding(ctx, vec, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}

	passages := make([]core.Passage, 0, len(results))
	for _, res := range results {
		page, _ := strconv.Atoi(res.Metadata["page"])
		passages = append(passages, core.Passage{
			Text:   res.Content,
			Source: res.Metadata["source"],
			Page:   page,
		})
	}
	return passages, nil
}

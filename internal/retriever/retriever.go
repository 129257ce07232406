// Package retriever finds the schema documents most relevant to a question.
// Documents are embedded once at ingest time; at query time the question is
// embedded and scored against the stored vectors by cosine similarity.
package retriever

import (
	"context"
	"fmt"
	"time"

	"github.com/queryloom/queryloom/internal/observability"
)

// Document is a retrieval hit returned to the caller, highest score first.
type Document struct {
	Title string  `json:"title"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// IndexedDocument is a schema document with its embedding, ready to store.
type IndexedDocument struct {
	Title     string
	Text      string
	Embedding []float32
}

// Store persists embedded documents and answers nearest-neighbor queries.
type Store interface {
	Add(ctx context.Context, docs []IndexedDocument) error
	Search(ctx context.Context, embedding []float32, topK int) ([]Document, error)
	Count(ctx context.Context) (int, error)
}

// Embedder turns texts into vectors. Implementations batch as they see fit.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever glues an embedder to a store.
type Retriever struct {
	embedder Embedder
	store    Store
	topK     int
}

func New(embedder Embedder, store Store, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve embeds the question and returns the topK closest documents.
// Non-positive topK falls back to the configured default.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]Document, error) {
	if topK <= 0 {
		topK = r.topK
	}
	start := time.Now()
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed question: got %d vectors, want 1", len(vectors))
	}
	docs, err := r.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	observability.ObserveRetrieval(time.Since(start))
	return docs, nil
}

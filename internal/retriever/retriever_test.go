package retriever

import (
	"context"
	"math"
	"testing"
)

type fixedEmbedder struct {
	vector []float32
}

func (e fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 2}, []float32{1, 0, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("cosineSimilarity() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSQLiteStoreSearchRanksByScore(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	docs := []IndexedDocument{
		{Title: "patients", Text: "CREATE TABLE patients (Id TEXT);", Embedding: []float32{1, 0, 0}},
		{Title: "conditions", Text: "CREATE TABLE conditions (Id TEXT);", Embedding: []float32{0.9, 0.1, 0}},
		{Title: "payers", Text: "CREATE TABLE payers (Id TEXT);", Embedding: []float32{0, 0, 1}},
	}
	if err := store.Add(ctx, docs); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search() returned %d hits, want 2", len(hits))
	}
	if hits[0].Title != "patients" || hits[1].Title != "conditions" {
		t.Fatalf("Search() order = %q, %q", hits[0].Title, hits[1].Title)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("Search() scores not descending: %v, %v", hits[0].Score, hits[1].Score)
	}
}

func TestSQLiteStoreAddIsIdempotentPerTitle(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	doc := IndexedDocument{Title: "patients", Text: "v1", Embedding: []float32{1}}
	if err := store.Add(ctx, []IndexedDocument{doc}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	doc.Text = "v2"
	if err := store.Add(ctx, []IndexedDocument{doc}); err != nil {
		t.Fatalf("second Add() error = %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("Count() = %d, want 1 after re-ingest", count)
	}
	hits, err := store.Search(ctx, []float32{1}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if hits[0].Text != "v2" {
		t.Fatalf("document body = %q, want updated text", hits[0].Text)
	}
}

func TestRetrieverEmbedsQuestionAndSearches(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Add(ctx, []IndexedDocument{
		{Title: "patients", Text: "CREATE TABLE patients (Id TEXT);", Embedding: []float32{1, 0}},
		{Title: "payers", Text: "CREATE TABLE payers (Id TEXT);", Embedding: []float32{0, 1}},
	}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	r := New(fixedEmbedder{vector: []float32{1, 0}}, store, 1)
	hits, err := r.Retrieve(ctx, "how many patients are there", 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "patients" {
		t.Fatalf("Retrieve() = %#v, want the patients schema", hits)
	}
}

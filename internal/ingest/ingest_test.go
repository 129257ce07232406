package ingest

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/queryloom/queryloom/internal/retriever"
	"github.com/queryloom/queryloom/internal/schema"
)

type recordingEmbedder struct {
	texts []string
}

func (e *recordingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.texts = append(e.texts, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i + 1)}
	}
	return out, nil
}

func TestExportSchemasJoinsWithDelimiter(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, ddl := range []string{
		"CREATE TABLE patients (Id TEXT PRIMARY KEY, FIRST TEXT, LAST TEXT)",
		"CREATE TABLE conditions (Id TEXT, PATIENT TEXT, DESCRIPTION TEXT)",
	} {
		if _, err := db.Exec(ddl); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	var out strings.Builder
	count, err := ExportSchemas(context.Background(), db, &out)
	if err != nil {
		t.Fatalf("ExportSchemas() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("ExportSchemas() count = %d, want 2", count)
	}

	corpus := out.String()
	chunks := schema.SplitCorpus(corpus)
	if len(chunks) != 2 {
		t.Fatalf("exported corpus splits into %d chunks, want 2:\n%s", len(chunks), corpus)
	}
	for _, chunk := range chunks {
		if !strings.HasSuffix(chunk, ";") {
			t.Fatalf("statement not terminated: %q", chunk)
		}
	}
	if schema.Parse(chunks[0]).Title != "conditions" {
		t.Fatalf("first exported table = %q, want alphabetical order", schema.Parse(chunks[0]).Title)
	}
}

func TestPipelineEmbedsAndStoresEveryChunk(t *testing.T) {
	store, err := retriever.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	corpus := "CREATE TABLE patients (Id TEXT);\n&\nCREATE TABLE conditions (Id TEXT);"
	embedder := &recordingEmbedder{}
	pipeline := Pipeline{Embedder: embedder, Store: store, Logger: slog.New(slog.DiscardHandler)}

	count, err := pipeline.Run(context.Background(), corpus)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("Run() count = %d, want 2", count)
	}
	if len(embedder.texts) != 2 {
		t.Fatalf("embedded %d texts, want 2", len(embedder.texts))
	}

	stored, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if stored != 2 {
		t.Fatalf("stored %d documents, want 2", stored)
	}
}

func TestPipelineRejectsEmptyCorpus(t *testing.T) {
	store, err := retriever.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	pipeline := Pipeline{Embedder: &recordingEmbedder{}, Store: store, Logger: slog.New(slog.DiscardHandler)}
	if _, err := pipeline.Run(context.Background(), "   \n  "); err == nil {
		t.Fatal("Run() expected error for empty corpus")
	}
}

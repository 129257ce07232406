// Package ingest holds the offline tooling that prepares the retrieval
// index: exporting a database's DDL into the flat corpus format and loading
// a corpus into the vector store.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/queryloom/queryloom/internal/retriever"
	"github.com/queryloom/queryloom/internal/schema"
)

// ExportSchemas writes every user table's CREATE TABLE statement to w,
// terminated with ";" and separated by the corpus delimiter line. Internal
// sqlite_* tables are skipped.
func ExportSchemas(ctx context.Context, db *sql.DB, w io.Writer) (int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT sql FROM sqlite_master
		 WHERE type = 'table' AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return 0, fmt.Errorf("read sqlite_master: %w", err)
	}
	defer func() { _ = rows.Close() }()

	statements := make([]string, 0)
	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			return 0, fmt.Errorf("scan ddl: %w", err)
		}
		ddl = strings.TrimSpace(ddl)
		if !strings.HasSuffix(ddl, ";") {
			ddl += ";"
		}
		statements = append(statements, ddl)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read sqlite_master: %w", err)
	}

	joined := strings.Join(statements, "\n"+schema.CorpusDelimiter+"\n")
	if _, err := io.WriteString(w, joined); err != nil {
		return 0, fmt.Errorf("write corpus: %w", err)
	}
	return len(statements), nil
}

// Pipeline embeds a schema corpus and loads it into a vector store.
type Pipeline struct {
	Embedder retriever.Embedder
	Store    retriever.Store
	Logger   *slog.Logger
}

// Run ingests the corpus text and returns the number of documents stored.
// Documents without a CREATE TABLE statement keep their full text and get a
// positional title.
func (p Pipeline) Run(ctx context.Context, corpus string) (int, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chunks := schema.SplitCorpus(corpus)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("corpus contains no documents")
	}

	vectors, err := p.Embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed corpus: got %d vectors for %d documents", len(vectors), len(chunks))
	}

	docs := make([]retriever.IndexedDocument, 0, len(chunks))
	for i, chunk := range chunks {
		parsed := schema.Parse(chunk)
		title := parsed.Title
		if title == "" {
			title = fmt.Sprintf("document-%d", i+1)
		}
		docs = append(docs, retriever.IndexedDocument{
			Title:     title,
			Text:      chunk,
			Embedding: vectors[i],
		})
		logger.Info("ingesting schema document", slog.String("title", title))
	}

	if err := p.Store.Add(ctx, docs); err != nil {
		return 0, fmt.Errorf("store corpus: %w", err)
	}
	return len(docs), nil
}

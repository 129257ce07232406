package retriever

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps embedded documents in a single SQLite table. Embeddings
// are stored as JSON arrays and scored in process; the corpus is a few dozen
// schema documents, so a brute-force scan beats maintaining an ANN index.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_documents (
		title TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		embedding TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate vector store: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Add(ctx context.Context, docs []IndexedDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO schema_documents (title, body, embedding) VALUES (?, ?, ?)
		 ON CONFLICT(title) DO UPDATE SET body = excluded.body, embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("prepare add: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, doc := range docs {
		encoded, err := json.Marshal(doc.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding for %q: %w", doc.Title, err)
		}
		if _, err := stmt.ExecContext(ctx, doc.Title, doc.Text, string(encoded)); err != nil {
			return fmt.Errorf("store %q: %w", doc.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, embedding []float32, topK int) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, body, embedding FROM schema_documents`)
	if err != nil {
		return nil, fmt.Errorf("scan vector store: %w", err)
	}
	defer func() { _ = rows.Close() }()

	scored := make([]Document, 0)
	for rows.Next() {
		var title, body, encoded string
		if err := rows.Scan(&title, &body, &encoded); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var stored []float32
		if err := json.Unmarshal([]byte(encoded), &stored); err != nil {
			return nil, fmt.Errorf("decode embedding for %q: %w", title, err)
		}
		scored = append(scored, Document{
			Title: title,
			Text:  body,
			Score: cosineSimilarity(embedding, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan vector store: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

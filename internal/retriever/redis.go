package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per document under a shared index prefix.
// Search walks the prefix with SCAN and scores in process, same as the
// SQLite backend; the redis option exists so several API replicas can share
// one index, not for scale.
type RedisStore struct {
	client *redis.Client
	index  string
}

func NewRedisStore(client *redis.Client, index string) *RedisStore {
	if index == "" {
		index = "queryloom"
	}
	return &RedisStore{client: client, index: index}
}

func (s *RedisStore) key(title string) string {
	return fmt.Sprintf("%s:doc:%s", s.index, title)
}

func (s *RedisStore) Add(ctx context.Context, docs []IndexedDocument) error {
	pipe := s.client.Pipeline()
	for _, doc := range docs {
		encoded, err := json.Marshal(doc.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding for %q: %w", doc.Title, err)
		}
		pipe.HSet(ctx, s.key(doc.Title), map[string]any{
			"title":     doc.Title,
			"body":      doc.Text,
			"embedding": string(encoded),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}
	return nil
}

func (s *RedisStore) Search(ctx context.Context, embedding []float32, topK int) ([]Document, error) {
	scored := make([]Document, 0)
	iter := s.client.Scan(ctx, 0, s.index+":doc:*", 0).Iterator()
	for iter.Next(ctx) {
		fields, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", iter.Val(), err)
		}
		var stored []float32
		if err := json.Unmarshal([]byte(fields["embedding"]), &stored); err != nil {
			return nil, fmt.Errorf("decode embedding for %q: %w", iter.Val(), err)
		}
		scored = append(scored, Document{
			Title: fields["title"],
			Text:  fields["body"],
			Score: cosineSimilarity(embedding, stored),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, s.index+":doc:*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan index: %w", err)
	}
	return count, nil
}

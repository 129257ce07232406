// Package metrics tracks two running totals that outlive a single process
// run: cumulative completion spend and visitor count. The Prometheus
// collectors in observability reset with the process; these do not.
package metrics

import "context"

// Snapshot is the current state of both counters.
type Snapshot struct {
	TotalCost    float64 `json:"total_cost"`
	VisitorCount int64   `json:"visitor_count"`
}

// Store is implemented by the file, redis, and in-memory backends. All
// methods are safe for concurrent use.
type Store interface {
	AddCost(ctx context.Context, delta float64) (float64, error)
	IncrementVisitors(ctx context.Context) (int64, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}

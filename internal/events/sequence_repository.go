package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
)

type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type Store interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresSequenceRepository struct {
	store Store
}

func NewPostgresSequenceRepository(store Store) *PostgresSequenceRepository {
	return &PostgresSequenceRepository{store: store}
}

// NextSequence atomically increments and returns the next sequence for a partition.
func (r *PostgresSequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}

	var seq int64
	err := r.store.QueryRow(ctx, `
		INSERT INTO event_sequences (partition_key, last_sequence)
		VALUES ($1, 1)
		ON CONFLICT (partition_key)
		DO UPDATE SET last_sequence = event_sequences.last_sequence + 1, updated_at = now()
		RETURNING last_sequence
	`, partitionKey).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// MemorySequenceRepository numbers events per partition for the lifetime of
// the process. Used when no PostgreSQL database is configured.
type MemorySequenceRepository struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewMemorySequenceRepository() *MemorySequenceRepository {
	return &MemorySequenceRepository{last: make(map[string]int64)}
}

func (r *MemorySequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[partitionKey]++
	return r.last[partitionKey], nil
}

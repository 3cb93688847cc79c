package cart

import (
	"context"
	"errors"
	"fmt"
)

// StorageKey is the fixed key the cart snapshot is stored under, scoped per session.
const StorageKey = "farmCart"

// ErrKeyNotFound is returned by KeyValue backends for a key that was never written.
var ErrKeyNotFound = errors.New("key not found")

// ErrCorruptSnapshot marks a stored cart that exists but cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// Repository is the persistence port a Store reads its initial state from
// and writes every post-mutation snapshot to.
type Repository interface {
	Load(ctx context.Context, sessionID string) ([]LineItem, error)
	Save(ctx context.Context, sessionID string, items []LineItem) error
}

// KeyValue is a durable string-keyed blob store.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type SnapshotRepository struct {
	kv KeyValue
}

func NewSnapshotRepository(kv KeyValue) *SnapshotRepository {
	return &SnapshotRepository{kv: kv}
}

func SnapshotKey(sessionID string) string {
	return sessionID + "/" + StorageKey
}

func (r *SnapshotRepository) Load(ctx context.Context, sessionID string) ([]LineItem, error) {
	data, err := r.kv.Get(ctx, SnapshotKey(sessionID))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}
	items, err := DecodeItems(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return items, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, sessionID string, items []LineItem) error {
	data, err := EncodeItems(items)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := r.kv.Set(ctx, SnapshotKey(sessionID), data); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

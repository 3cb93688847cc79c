package cart

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSaveTimeout = 3 * time.Second
	defaultLoadTimeout = 3 * time.Second
)

// Store owns the line items of one session's cart. Mutations are serialized;
// each one is persisted and announced to subscribers before it returns.
// Persistence failures are logged and never surface to callers.
type Store struct {
	sessionID   string
	repo        Repository
	logger      *zap.Logger
	saveTimeout time.Duration

	mu      sync.Mutex
	items   []LineItem
	version uint64

	// notifyMu orders delivery; never held together with mu by a mutator.
	notifyMu  sync.Mutex
	delivered uint64

	subMu   sync.Mutex
	subs    map[uint64]func(Snapshot)
	nextSub uint64
}

// NewStore builds a store and reads the persisted snapshot exactly once.
// Any read failure starts the session with an empty cart.
func NewStore(ctx context.Context, sessionID string, repo Repository, logger *zap.Logger) *Store {
	s, _ := openStore(ctx, sessionID, repo, logger)
	return s
}

// openStore is NewStore that also reports a load failure which is not the
// snapshot's fault (unreachable storage, timeout). The returned store is
// empty in that case and must not be kept.
func openStore(ctx context.Context, sessionID string, repo Repository, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		sessionID:   sessionID,
		repo:        repo,
		logger:      logger.With(zap.String("session_id", sessionID)),
		saveTimeout: defaultSaveTimeout,
		subs:        make(map[uint64]func(Snapshot)),
	}

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultLoadTimeout)
	defer cancel()

	items, err := repo.Load(loadCtx, sessionID)
	if err != nil {
		s.logger.Warn("discarding unreadable cart snapshot", zap.Error(err))
		if !errors.Is(err, ErrCorruptSnapshot) {
			return s, err
		}
		items = nil
	}
	s.items = items
	return s, nil
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// AddToCart accumulates quantity onto an existing (id, kind) entry, keeping
// the stored descriptive fields, or appends a new entry. A quantity below one
// counts as one. Items with a negative price are ignored since they could not
// be restored from the snapshot.
func (s *Store) AddToCart(ctx context.Context, item LineItem) {
	if item == nil || !item.Key().Kind.Valid() {
		return
	}
	if item.UnitPrice() < 0 {
		s.logger.Warn("ignoring item with negative price", zap.Stringer("key", item.Key()))
		return
	}
	qty := item.Qty()
	if qty < 1 {
		qty = 1
	}
	key := item.Key()

	s.mutate(ctx, "add", func(items []LineItem) ([]LineItem, bool) {
		next := slices.Clone(items)
		if i := indexOf(next, key); i >= 0 {
			next[i] = next[i].withQuantity(next[i].Qty() + qty)
			return next, true
		}
		return append(next, item.withQuantity(qty)), true
	})
}

func (s *Store) RemoveFromCart(ctx context.Context, id int64, kind Kind) {
	key := Key{ID: id, Kind: kind}
	s.mutate(ctx, "remove", func(items []LineItem) ([]LineItem, bool) {
		i := indexOf(items, key)
		if i < 0 {
			return items, false
		}
		return slices.Delete(slices.Clone(items), i, i+1), true
	})
}

// UpdateQuantity sets the quantity exactly. Anything below one removes the item.
func (s *Store) UpdateQuantity(ctx context.Context, id int64, kind Kind, quantity int) {
	if quantity < 1 {
		s.RemoveFromCart(ctx, id, kind)
		return
	}
	key := Key{ID: id, Kind: kind}
	s.mutate(ctx, "update_quantity", func(items []LineItem) ([]LineItem, bool) {
		i := indexOf(items, key)
		if i < 0 {
			return items, false
		}
		if items[i].Qty() == quantity {
			return items, false
		}
		next := slices.Clone(items)
		next[i] = next[i].withQuantity(quantity)
		return next, true
	})
}

func (s *Store) ClearCart(ctx context.Context) {
	s.mutate(ctx, "clear", func([]LineItem) ([]LineItem, bool) {
		return nil, true
	})
}

// ClearCheckedOut removes what snap held. When nothing changed since snap it
// empties the cart; otherwise it subtracts snap's quantities so that anything
// added afterwards stays. It reports whether the cart ended up empty.
func (s *Store) ClearCheckedOut(ctx context.Context, snap Snapshot) bool {
	empty := false
	s.mutate(ctx, "clear_checked_out", func(items []LineItem) ([]LineItem, bool) {
		if s.version == snap.Version {
			empty = true
			return nil, true
		}
		next := make([]LineItem, 0, len(items))
		for _, it := range items {
			if i := indexOf(snap.Items, it.Key()); i >= 0 {
				left := it.Qty() - snap.Items[i].Qty()
				if left < 1 {
					continue
				}
				it = it.withQuantity(left)
			}
			next = append(next, it)
		}
		empty = len(next) == 0
		return next, true
	})
	return empty
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.items)
}

// Total sums quantity times unit price over both kinds. Equipment day rates
// are added as-is, so the result mixes one-off cost with cost per day.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

func (s *Store) OrderItems() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterKind(s.items, KindOrder)
}

func (s *Store) EquipmentItems() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterKind(s.items, KindEquipment)
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive snapshots produced by later mutations.
// Versions only increase; when mutations race, a subscriber may skip straight
// to the newest snapshot. fn may read the store but must not mutate it.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Subscribers reports how many subscriptions are active.
func (s *Store) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store) mutate(ctx context.Context, op string, fn func([]LineItem) ([]LineItem, bool)) {
	s.mu.Lock()
	next, changed := fn(s.items)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.items = next
	s.version++
	s.persistLocked(ctx, op)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) notify(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version
	for _, sub := range s.subscribers() {
		sub(snap)
	}
}

func (s *Store) persistLocked(ctx context.Context, op string) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	if err := s.repo.Save(saveCtx, s.sessionID, s.items); err != nil {
		s.logger.Error("persist cart snapshot",
			zap.String("op", op),
			zap.Uint64("version", s.version),
			zap.Error(err),
		)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	items := slices.Clone(s.items)
	return Snapshot{
		SessionID: s.sessionID,
		Version:   s.version,
		Items:     items,
		ItemCount: itemCount(items),
		Total:     total(items),
	}
}

func (s *Store) subscribers() []func(Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func indexOf(items []LineItem, key Key) int {
	return slices.IndexFunc(items, func(it LineItem) bool {
		return it.Key() == key
	})
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrMissingSession = errors.New("session id is required")
	// ErrUnavailable wraps a snapshot load that failed for reasons other than
	// a corrupt snapshot. Nothing is cached, so a later call retries.
	ErrUnavailable = errors.New("cart storage unavailable")
)

type entry struct {
	store    *Store
	lastUsed time.Time
}

// Provider hands out the single Store of each session. Stores are built on
// first use, which is also the only time their snapshot is read back.
type Provider struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time

	loads singleflight.Group

	mu     sync.Mutex
	stores map[string]*entry
}

func NewProvider(repo Repository, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		stores: make(map[string]*entry),
	}
}

func (p *Provider) Store(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	if s, ok := p.cached(sessionID); ok {
		return s, nil
	}

	v, err, _ := p.loads.Do(sessionID, func() (any, error) {
		if s, ok := p.cached(sessionID); ok {
			return s, nil
		}
		s, err := openStore(ctx, sessionID, p.repo, p.logger)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.stores[sessionID] = &entry{store: s, lastUsed: p.now()}
		p.mu.Unlock()

		p.logger.Debug("cart session opened", zap.String("session_id", sessionID), zap.Int("items", len(s.items)))
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return v.(*Store), nil
}

func (p *Provider) cached(sessionID string) (*Store, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.stores[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = p.now()
	return e.store, true
}

// Sessions reports how many carts are held in memory.
func (p *Provider) Sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stores)
}

// EvictIdle drops stores that have not been asked for within ttl and have no
// subscribers. Their state is already persisted and is reloaded on next use.
func (p *Provider) EvictIdle(ttl time.Duration) int {
	cutoff := p.now().Add(-ttl)

	p.mu.Lock()
	defer p.mu.Unlock()

	evicted := 0
	for id, e := range p.stores {
		if e.lastUsed.Before(cutoff) && e.store.Subscribers() == 0 {
			delete(p.stores, id)
			evicted++
		}
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (p *Provider) RunEviction(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.EvictIdle(ttl); n > 0 {
				p.logger.Debug("evicted idle cart sessions", zap.Int("count", n), zap.Int("remaining", p.Sessions()))
			}
		}
	}
}

package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderReturnsOneStorePerSession(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{}
	p := NewProvider(repo, nil)

	a, err := p.Store(ctx, "a")
	require.NoError(t, err)
	again, err := p.Store(ctx, "a")
	require.NoError(t, err)
	b, err := p.Store(ctx, "b")
	require.NoError(t, err)

	require.Same(t, a, again)
	require.NotSame(t, a, b)
	require.Equal(t, 2, repo.loads)
	require.Equal(t, 2, p.Sessions())

	a.AddToCart(ctx, seeds(1))
	require.Equal(t, 1, again.ItemCount())
	require.Zero(t, b.ItemCount())
}

func TestProviderRejectsEmptySession(t *testing.T) {
	p := NewProvider(&fakeRepository{}, nil)
	_, err := p.Store(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingSession)
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(NewSnapshotRepository(newFakeKV()), nil)
	s, err := p.Store(ctx, "busy")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddToCart(ctx, seeds(1))
			s.AddToCart(ctx, tractor(1))
		}()
	}
	wg.Wait()

	require.Len(t, s.Items(), 2)
	require.Equal(t, 100, s.ItemCount())
	require.EqualValues(t, 50*100+50*800, s.Total())
}

// ctxKV fails reads whose context is already done, like a real driver.
type ctxKV struct {
	*fakeKV
}

func (c ctxKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.fakeKV.Get(ctx, key)
}

func TestProviderFirstLoadOutlivesCallerContext(t *testing.T) {
	kv := ctxKV{newFakeKV()}
	repo := NewSnapshotRepository(kv)
	require.NoError(t, repo.Save(context.Background(), "s1", []LineItem{seeds(5)}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewProvider(repo, nil).Store(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 5, s.ItemCount())
}

func TestProviderDoesNotCacheFailedLoad(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	repo := NewSnapshotRepository(kv)
	require.NoError(t, repo.Save(ctx, "s1", []LineItem{seeds(5)}))
	sets := kv.sets

	p := NewProvider(repo, nil)
	kv.mu.Lock()
	kv.getErr = errBoom
	kv.mu.Unlock()

	_, err := p.Store(ctx, "s1")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, p.Sessions())

	kv.mu.Lock()
	kv.getErr = nil
	kv.mu.Unlock()

	s, err := p.Store(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 5, s.ItemCount())
	require.Equal(t, sets, kv.sets)
}

func TestProviderKeepsCorruptSnapshotAsEmpty(t *testing.T) {
	kv := newFakeKV()
	kv.data[SnapshotKey("s1")] = []byte(`{"not":"an array"}`)

	p := NewProvider(NewSnapshotRepository(kv), nil)
	s, err := p.Store(context.Background(), "s1")
	require.NoError(t, err)
	require.Empty(t, s.Items())
	require.Equal(t, 1, p.Sessions())
}

type gatedRepository struct {
	mu      sync.Mutex
	loads   map[string]int
	started chan struct{}
	release chan struct{}
}

func (g *gatedRepository) Load(ctx context.Context, sessionID string) ([]LineItem, error) {
	g.mu.Lock()
	g.loads[sessionID]++
	g.mu.Unlock()
	if sessionID == "slow" {
		g.started <- struct{}{}
		<-g.release
	}
	return nil, nil
}

func (g *gatedRepository) Save(ctx context.Context, sessionID string, items []LineItem) error {
	return nil
}

func TestProviderSlowLoadDoesNotBlockOtherSessions(t *testing.T) {
	ctx := context.Background()
	repo := &gatedRepository{
		loads:   make(map[string]int),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	p := NewProvider(repo, nil)

	slow := make(chan *Store, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s, err := p.Store(ctx, "slow")
			assert.NoError(t, err)
			slow <- s
		}()
	}
	<-repo.started

	fast, err := p.Store(ctx, "fast")
	require.NoError(t, err)
	require.NotNil(t, fast)

	close(repo.release)
	a, b := <-slow, <-slow
	require.Same(t, a, b)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Equal(t, 1, repo.loads["slow"])
}

func TestProviderEvictIdle(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{}
	p := NewProvider(repo, nil)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	idle, err := p.Store(ctx, "idle")
	require.NoError(t, err)
	watched, err := p.Store(ctx, "watched")
	require.NoError(t, err)
	unsubscribe := watched.Subscribe(func(Snapshot) {})

	now = now.Add(10 * time.Minute)
	_, err = p.Store(ctx, "recent")
	require.NoError(t, err)

	require.Equal(t, 1, p.EvictIdle(5*time.Minute))
	require.Equal(t, 2, p.Sessions())

	again, err := p.Store(ctx, "idle")
	require.NoError(t, err)
	require.NotSame(t, idle, again)
	require.Equal(t, 4, repo.loads)

	unsubscribe()
	now = now.Add(10 * time.Minute)
	require.Equal(t, 3, p.EvictIdle(5*time.Minute))
	require.Zero(t, p.Sessions())
}

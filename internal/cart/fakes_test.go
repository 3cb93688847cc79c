package cart

import (
	"context"
	"errors"
	"sync"
)

type fakeKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

type fakeRepository struct {
	loadItems []LineItem
	loadErr   error
	saveErr   error

	loads int
	saved [][]LineItem
}

func (f *fakeRepository) Load(ctx context.Context, sessionID string) ([]LineItem, error) {
	f.loads++
	return f.loadItems, f.loadErr
}

func (f *fakeRepository) Save(ctx context.Context, sessionID string, items []LineItem) error {
	f.saved = append(f.saved, items)
	return f.saveErr
}

func (f *fakeRepository) lastSaved() []LineItem {
	if len(f.saved) == 0 {
		return nil
	}
	return f.saved[len(f.saved)-1]
}

var errBoom = errors.New("boom")

package backendfake

import (
	"context"
	"sync"

	"github.com/ankitmishra23v/micro-fit/credentials"
)

var _ credentials.Backend = (*FakeBackend)(nil)

// FakeBackend is an in-memory device storage backend for tests. FailWith
// makes every subsequent operation return the given error, simulating
// storage I/O failure.
type FakeBackend struct {
	items        map[string]string
	err          error
	setsUntilErr int
	setErr       error
	lock         sync.RWMutex
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{items: make(map[string]string)}
}

// FailWith forces all subsequent operations to fail with err. Pass nil to
// restore normal behavior.
func (b *FakeBackend) FailWith(err error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.err = err
}

// FailSetsAfter lets n SetItem calls succeed and fails every one after
// that with err, simulating a partial write sequence. Other operations are
// unaffected.
func (b *FakeBackend) FailSetsAfter(n int, err error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.setsUntilErr = n
	b.setErr = err
}

func (b *FakeBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.err != nil {
		return "", false, b.err
	}
	value, ok := b.items[key]
	return value, ok, nil
}

func (b *FakeBackend) SetItem(_ context.Context, key, value string) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.err != nil {
		return b.err
	}
	if b.setErr != nil {
		if b.setsUntilErr <= 0 {
			return b.setErr
		}
		b.setsUntilErr--
	}
	b.items[key] = value
	return nil
}

func (b *FakeBackend) RemoveItems(_ context.Context, keys ...string) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.err != nil {
		return b.err
	}
	for _, key := range keys {
		delete(b.items, key)
	}
	return nil
}

// Len reports how many keys are currently stored
func (b *FakeBackend) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.items)
}

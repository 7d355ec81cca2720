// Package lock serializes submissions for the same survey.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// entry is one key's lock. holders counts the goroutines holding or waiting
// on it; the entry is dropped from the table when it reaches zero.
type entry struct {
	sem     chan struct{}
	holders int
}

// Keyed is an in-process lock keyed by string. Distinct keys never share a lock.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Lock blocks until key is free or ctx is done.
func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	e := k.acquire(key)
	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				k.release(key)
			})
		}, nil
	case <-ctx.Done():
		k.release(key)
		return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
	}
}

func (k *Keyed) acquire(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.holders++
	return e
}

func (k *Keyed) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		return
	}
	e.holders--
	if e.holders == 0 {
		delete(k.entries, key)
	}
}

package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func TestKeyedSerializesSameKey(t *testing.T) {
	locks := NewKeyed()
	ctx := context.Background()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(ctx, "survey:1")
			if err != nil {
				t.Error(err)
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestKeyedHonoursContext(t *testing.T) {
	locks := NewKeyed()
	unlock, err := locks.Lock(context.Background(), "survey:2")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "survey:2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeyedReleases(t *testing.T) {
	locks := NewKeyed()
	for range 3 {
		unlock, err := locks.Lock(context.Background(), "survey:3")
		require.NoError(t, err)
		unlock()
	}
}

func TestKeyedDistinctKeysDoNotBlock(t *testing.T) {
	locks := NewKeyed()
	unlock, err := locks.Lock(context.Background(), "survey:1")
	require.NoError(t, err)
	defer unlock()

	for i := 2; i <= 300; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		other, err := locks.Lock(ctx, fmt.Sprintf("survey:%d", i))
		cancel()
		require.NoError(t, err, "survey:%d waited on survey:1", i)
		other()
	}
}

func TestKeyedDropsIdleKeys(t *testing.T) {
	locks := NewKeyed()
	unlock, err := locks.Lock(context.Background(), "survey:5")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "survey:5")
	require.Error(t, err)
	assert.Equal(t, 1, locks.size())

	unlock()
	unlock()
	assert.Equal(t, 0, locks.size())

	again, err := locks.Lock(context.Background(), "survey:5")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, locks.size())
}

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (k *KeyedLock) waiting(key string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if q, ok := k.keys[key]; ok {
		return len(q.waiters)
	}
	return 0
}

func TestKeyedLock_FIFO(t *testing.T) {
	ctx := context.Background()
	k := NewKeyedLock()

	unlock, err := k.Lock(ctx, "s1")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := k.Lock(ctx, "s1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			release()
		}()
		require.Eventually(t, func() bool { return k.waiting("s1") == i+1 }, time.Second, time.Millisecond)
	}

	unlock()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Zero(t, k.Len())
}

func TestKeyedLock_DistinctKeysDoNotBlock(t *testing.T) {
	ctx := context.Background()
	k := NewKeyedLock()

	unlockA, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctxB, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctxB, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedLock_Cancellation(t *testing.T) {
	k := NewKeyedLock()

	unlock, err := k.Lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, k.waiting("s1"))

	// The abandoned waiter must not swallow the next grant.
	unlock()
	done := make(chan struct{})
	go func() {
		release, err := k.Lock(context.Background(), "s1")
		assert.NoError(t, err)
		release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not granted after cancelled waiter")
	}
}

func TestKeyedLock_UnlockIsIdempotent(t *testing.T) {
	k := NewKeyedLock()

	unlock, err := k.Lock(context.Background(), "s1")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := k.Lock(context.Background(), "s1")
	require.NoError(t, err)
	again()
	assert.Zero(t, k.Len())
}

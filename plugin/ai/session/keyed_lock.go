package session

import (
	"context"
	"sync"
)

// KeyedLock is a per-key mutex that grants the lock in the order Lock was
// called. Different keys never contend.
type KeyedLock struct {
	mu   sync.Mutex
	keys map[string]*keyQueue
}

type keyQueue struct {
	waiters []chan struct{}
}

// NewKeyedLock creates an empty KeyedLock.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{keys: make(map[string]*keyQueue)}
}

// Lock blocks until key is free or ctx is done. The returned func releases
// the lock and is safe to call more than once.
func (k *KeyedLock) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	q, held := k.keys[key]
	if !held {
		k.keys[key] = &keyQueue{}
		k.mu.Unlock()
		return k.unlocker(key), nil
	}
	ch := make(chan struct{})
	q.waiters = append(q.waiters, ch)
	k.mu.Unlock()

	select {
	case <-ch:
		return k.unlocker(key), nil
	case <-ctx.Done():
	}

	k.mu.Lock()
	select {
	case <-ch:
		// Granted while giving up; pass it on.
		k.mu.Unlock()
		k.release(key)
	default:
		for i, w := range q.waiters {
			if w == ch {
				q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
				break
			}
		}
		k.mu.Unlock()
	}
	return nil, ctx.Err()
}

// Len returns the number of keys currently held.
func (k *KeyedLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}

func (k *KeyedLock) unlocker(key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { k.release(key) })
	}
}

func (k *KeyedLock) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	q, ok := k.keys[key]
	if !ok {
		return
	}
	if len(q.waiters) == 0 {
		delete(k.keys, key)
		return
	}
	next := q.waiters[0]
	q.waiters = q.waiters[1:]
	close(next)
}

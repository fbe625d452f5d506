package session

import (
	"hash/fnv"
	"sync"
)

const shardCount = 64

// shardedMutex serializes work per session id without a global lock.
type shardedMutex struct {
	shards [shardCount]sync.Mutex
}

func (m *shardedMutex) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &m.shards[h.Sum32()%shardCount]
	mu.Lock()
	return mu.Unlock
}

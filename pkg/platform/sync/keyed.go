package sync

import (
	"hash/fnv"
	"sync"
)

// KeyedMutex provides fine-grained locking using sharded mutexes. Instead of
// a single global lock, operations are distributed across N shards based on a
// hash of the resource key, reducing contention under concurrent load.
//
// The credential store uses it to serialize read-modify-write cycles per
// principal: failed-attempt increments and refresh-handle rotation must not
// interleave for the same principal, but independent principals should not
// contend.
type KeyedMutex struct {
	shards [64]sync.Mutex
}

// NewKeyedMutex creates a KeyedMutex with 64 shards.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the lock for the given key's shard and returns the matching
// unlock function.
//
//	defer locks.Lock(principalID.String())()
func (m *KeyedMutex) Lock(key string) func() {
	shard := &m.shards[m.shardFor(key)]
	shard.Lock()
	return shard.Unlock
}

// shardFor returns the shard index for the given key. Empty keys default to
// shard 0.
func (m *KeyedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}

package sync

import (
	"fmt"
	base "sync"
)

const (
	ringEntriesPerStripe = 200
)

// StripedLock partitions an unbounded key space across a fixed set of
// mutexes. It allows serializing operations against individual listings
// without holding a lock per listing address.
type StripedLock struct {
	locks    []base.RWMutex
	hashRing *ring
}

// NewStripedLock returns a StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	ringEntries := make(map[string]interface{})
	for i := 0; i < int(stripes); i++ {
		ringEntries[fmt.Sprintf("stripe%d", i)] = i
	}

	return &StripedLock{
		locks:    make([]base.RWMutex, stripes),
		hashRing: newRing(ringEntries, ringEntriesPerStripe),
	}
}

// Get returns the lock guarding the key's stripe. All calls with the same
// key observe the same lock.
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	stripe := l.hashRing.shard(key).(int)
	return &l.locks[stripe]
}

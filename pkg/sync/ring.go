package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently maps an unbounded key space (eg. listing or token account
// addresses) onto a fixed set of entries. Each entry is hashed onto the ring
// at replicationFactor positions to smooth out the distribution.
type ring struct {
	hashRing *treemap.Map

	// Cached value of the ring's minimum entry, since treemap.Map.Min()
	// is O(log n) and shard falls back to it on every wraparound.
	wraparoundValue interface{}
}

func newRing(entries map[string]interface{}, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for k, v := range entries {
		entryHash, _ := murmur3.Sum128([]byte(k))
		entryHashBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(entryHashBytes, entryHash)
		for i := 0; i < int(replicationFactor); i++ {
			hasher := murmur3.New128()
			hasher.Write(entryHashBytes)
			replicaBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(replicaBytes, uint32(i))
			hasher.Write(replicaBytes)
			position, _ := hasher.Sum128()
			hashRing.Put(int64(position), v)
		}
	}

	_, wraparoundValue := hashRing.Min()

	return &ring{
		hashRing:        hashRing,
		wraparoundValue: wraparoundValue,
	}
}

// shard returns the entry value owning the key's position on the ring
func (r *ring) shard(key []byte) interface{} {
	hasher := murmur3.New128()
	hasher.Write(key)
	raw, _ := hasher.Sum128()
	_, owner := r.hashRing.Ceiling(int64(raw))
	if owner != nil {
		return owner
	}
	return r.wraparoundValue
}

package lock

import (
	"sort"
	"sync"
)

const defaultShardCount = 64

// KeyedMutex 依 (flightID, seatNumber) 鍵值分片的互斥鎖。
// 不同座位的操作可以完全平行，同一座位的 check-then-act 序列則被序列化。
type KeyedMutex struct {
	shards []shard
}

type shard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	km := &KeyedMutex{shards: make([]shard, defaultShardCount)}
	for i := range km.shards {
		km.shards[i].locks = make(map[string]*sync.Mutex)
	}
	return km
}

// Key builds the canonical exclusion key for a seat.
func Key(flightID, seatNumber string) string {
	return flightID + "/" + seatNumber
}

// FlightKey 整班航班資料列的互斥鍵。座位鍵序列化單一座位的
// check-then-act；航班以單一資料列整列寫回，load-modify-save 必須
// 另以航班鍵序列化，否則只持座位鍵的平行操作會互相覆蓋寫回。
// 鎖定順序固定為先座位鍵（排序後）再航班鍵。
func FlightKey(flightID string) string {
	return flightID
}

func (km *KeyedMutex) shardFor(key string) *shard {
	h := uint32(2166136261)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return &km.shards[h%uint32(len(km.shards))]
}

func (km *KeyedMutex) mutexFor(key string) *sync.Mutex {
	s := km.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

// Lock 取得單一座位鍵的互斥鎖
func (km *KeyedMutex) Lock(key string) {
	km.mutexFor(key).Lock()
}

// Unlock 釋放單一座位鍵的互斥鎖
func (km *KeyedMutex) Unlock(key string) {
	km.mutexFor(key).Unlock()
}

// LockAll acquires every key in a canonical sorted order, so two callers
// locking overlapping seat sets can never deadlock. The returned function
// releases them in reverse order.
func (km *KeyedMutex) LockAll(keys []string) (unlock func()) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	// Duplicate keys would self-deadlock.
	deduped := sorted[:0]
	for i, k := range sorted {
		if i == 0 || sorted[i-1] != k {
			deduped = append(deduped, k)
		}
	}

	for _, k := range deduped {
		km.Lock(k)
	}
	return func() {
		for i := len(deduped) - 1; i >= 0; i-- {
			km.Unlock(deduped[i])
		}
	}
}

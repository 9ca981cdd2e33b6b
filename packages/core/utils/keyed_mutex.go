package utils

import (
	"sort"
	"sync"
)

// KeyedMutex hands out one mutex per key, created on first use and dropped
// once no caller holds or waits for it.
type KeyedMutex struct {
	mapMu sync.Mutex
	muMap map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		muMap: make(map[string]*refMutex),
	}
}

func (k *KeyedMutex) acquire(key string) *refMutex {
	k.mapMu.Lock()
	defer k.mapMu.Unlock()

	rm, exists := k.muMap[key]
	if !exists {
		rm = &refMutex{}
		k.muMap[key] = rm
	}
	rm.refs++
	return rm
}

func (k *KeyedMutex) release(key string, rm *refMutex) {
	k.mapMu.Lock()
	defer k.mapMu.Unlock()

	rm.refs--
	if rm.refs == 0 {
		delete(k.muMap, key)
	}
}

// Lock acquires every key in sorted order so two callers locking overlapping
// sets can never deadlock. Duplicate keys are locked once. The returned
// function releases them all.
func (k *KeyedMutex) Lock(keys ...string) (unlock func()) {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			sorted = append(sorted, key)
		}
	}
	sort.Strings(sorted)

	locks := make([]*refMutex, 0, len(sorted))
	for _, key := range sorted {
		rm := k.acquire(key)
		rm.mu.Lock()
		locks = append(locks, rm)
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].mu.Unlock()
			k.release(sorted[i], locks[i])
		}
	}
}

// Len reports how many keys currently have a mutex in the table.
func (k *KeyedMutex) Len() int {
	k.mapMu.Lock()
	defer k.mapMu.Unlock()
	return len(k.muMap)
}

func PlayerKey(id string) string {
	return "player:" + id
}

func MatchKey(id string) string {
	return "match:" + id
}

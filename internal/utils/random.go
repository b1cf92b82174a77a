package utils

import (
	"math/rand"
	"sync"
	"time"
)

var (
	seededRand *rand.Rand
	randMu     sync.Mutex
	randOnce   sync.Once
)

// GetRand returns a process-wide seeded random source guarded by randMu.
// Callers must not retain the returned *rand.Rand across goroutines; use
// the helper functions below for concurrent access.
func GetRand() *rand.Rand {
	randOnce.Do(func() {
		seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	})
	return seededRand
}

// Jitter returns a random duration in [0, max). Used to spread out retries
// under lock contention so concurrent writers do not collide repeatedly.
func Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	randMu.Lock()
	defer randMu.Unlock()
	return time.Duration(GetRand().Int63n(int64(max)))
}

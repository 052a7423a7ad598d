package service

import (
	"sync"

	"github.com/wxproxy/weather-proxy/internal/models"
)

// stampedeTracker counts concurrent cache misses per key. The proxy
// deliberately lets racing misses each fetch upstream (no single-flight);
// the tracker only makes that visible in metrics.
type stampedeTracker struct {
	mu           sync.Mutex
	activeMisses map[models.CacheKey]int
}

func newStampedeTracker() *stampedeTracker {
	return &stampedeTracker{
		activeMisses: make(map[models.CacheKey]int),
	}
}

// missStarted records a cache miss for key and returns the number of misses
// currently in flight for it. Caller must pair with missFinished.
func (st *stampedeTracker) missStarted(key models.CacheKey) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.activeMisses[key]++
	return st.activeMisses[key]
}

// missFinished records completion of a miss for key.
func (st *stampedeTracker) missFinished(key models.CacheKey) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if count, ok := st.activeMisses[key]; ok && count > 0 {
		st.activeMisses[key]--
		if st.activeMisses[key] == 0 {
			delete(st.activeMisses, key)
		}
	}
}

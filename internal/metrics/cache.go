package metrics

import "sync"

// Snapshot holds counter values reported by the status API.
type Snapshot struct {
	ButtonTransitions uint64
	PublishFailures   uint64
	MessagesReceived  uint64
	MessagesRejected  uint64
	Renders           uint64
}

var (
	cache   Snapshot
	cacheMu sync.RWMutex
)

// GetSnapshot returns a copy of the current counter values.
func GetSnapshot() Snapshot {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	return cache
}

func updateCache(update func(*Snapshot)) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	update(&cache)
}

package app

import (
	"sort"
	"sync"

	"github.com/bft-labs/posefeed/internal/domain"
)

// LatestSlot holds the most recent sample per entity. The lock covers only the
// map read or overwrite, never decoding or callbacks.
type LatestSlot struct {
	mu      sync.Mutex
	samples map[string]domain.PoseSample
	last    string
	hasLast bool
}

// NewLatestSlot creates an empty slot.
func NewLatestSlot() *LatestSlot {
	return &LatestSlot{samples: make(map[string]domain.PoseSample)}
}

// Write stores s as the latest sample for its entity. A sample older than the
// stored one is rejected and Write returns false.
func (l *LatestSlot) Write(s domain.PoseSample) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.samples[s.EntityID]; ok && s.Timestamp < prev.Timestamp {
		return false
	}
	l.samples[s.EntityID] = s
	l.last = s.EntityID
	l.hasLast = true
	return true
}

// Read returns the latest sample for entityID. An empty id reads the most
// recently written sample of any entity.
func (l *LatestSlot) Read(entityID string) (domain.PoseSample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entityID == "" {
		if !l.hasLast {
			return domain.PoseSample{}, false
		}
		entityID = l.last
	}
	s, ok := l.samples[entityID]
	return s, ok
}

// Snapshot returns a copy of all latest samples.
func (l *LatestSlot) Snapshot() map[string]domain.PoseSample {
	l.mu.Lock()
	out := make(map[string]domain.PoseSample, len(l.samples))
	for k, v := range l.samples {
		out[k] = v
	}
	l.mu.Unlock()
	return out
}

// Entities returns the tracked entity ids in sorted order.
func (l *LatestSlot) Entities() []string {
	l.mu.Lock()
	ids := make([]string, 0, len(l.samples))
	for k := range l.samples {
		ids = append(ids, k)
	}
	l.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of tracked entities.
func (l *LatestSlot) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Reset forgets every sample. Called at the start of a connection epoch.
func (l *LatestSlot) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = make(map[string]domain.PoseSample)
	l.last = ""
	l.hasLast = false
}

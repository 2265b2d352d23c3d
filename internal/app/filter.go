package app

import (
	"strings"
	"sync/atomic"
)

// EntityFilter restricts which entities reach the latest-state slot. An empty
// name admits every entity. It can be replaced while the loop runs.
type EntityFilter struct {
	name atomic.Pointer[string]
}

// NewEntityFilter creates a filter for name.
func NewEntityFilter(name string) *EntityFilter {
	f := &EntityFilter{}
	f.Set(name)
	return f
}

// Set replaces the filter name.
func (f *EntityFilter) Set(name string) {
	f.name.Store(&name)
}

// Name returns the filter name.
func (f *EntityFilter) Name() string {
	if p := f.name.Load(); p != nil {
		return *p
	}
	return ""
}

// Match reports whether entityID passes the filter. A name matches the entity
// itself and its sensors ("name:<sensor>").
func (f *EntityFilter) Match(entityID string) bool {
	name := f.Name()
	if name == "" || entityID == name {
		return true
	}
	i := strings.LastIndexByte(entityID, ':')
	return i > 0 && entityID[:i] == name
}

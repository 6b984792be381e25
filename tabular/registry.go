//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tabular

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry is a concurrency-safe set of loaded sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*Source)}
}

// Add stores src, assigning an id when it has none, and returns the id.
// A source with the same name replaces the earlier one.
func (r *Registry) Add(src *Source) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if src.ID == "" {
		src.ID = "excel_" + uuid.NewString()
	}
	for id, s := range r.sources {
		if s.Name == src.Name && id != src.ID {
			r.removeLocked(id)
		}
	}
	if _, ok := r.sources[src.ID]; !ok {
		r.order = append(r.order, src.ID)
	}
	r.sources[src.ID] = src
	return src.ID
}

// Get returns the source with the given id.
func (r *Registry) Get(id string) (*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// ByName returns the source whose name matches.
func (r *Registry) ByName(name string) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if s := r.sources[id]; s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Remove deletes a source.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.removeLocked(id)
	return nil
}

func (r *Registry) removeLocked(id string) {
	delete(r.sources, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// List returns the sources in the order they were added.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.sources[id])
	}
	return out
}

// Len returns the number of sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

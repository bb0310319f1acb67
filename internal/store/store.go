// Package store owns the committed measurement groups of a session.
package store

import (
	"strconv"
	"sync"

	"github.com/philipparndt/armeasure/internal/measurement"
)

// Store keeps measurement groups in insertion order with an id index and a
// plane index. Every mutation updates all three under one lock.
type Store struct {
	mu      sync.RWMutex
	groups  []measurement.Group
	byID    map[string]int
	byPlane map[string]map[string]struct{}
	nextID  uint64
}

// New creates an empty store whose first id is "1"
func New() *Store {
	return &Store{
		byID:    make(map[string]int),
		byPlane: make(map[string]map[string]struct{}),
		nextID:  1,
	}
}

// Add assigns the next id to g, appends it and returns the stored snapshot
func (s *Store) Add(g measurement.Group) measurement.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = strconv.FormatUint(s.nextID, 10)
	s.nextID++
	s.insert(g)
	return g
}

// Restore appends previously persisted groups keeping their ids. The id
// counter moves past the highest numeric id so ids are never reused.
// Groups whose id is already present are skipped.
func (s *Store) Restore(groups []measurement.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range groups {
		if _, exists := s.byID[g.ID]; exists || g.ID == "" {
			continue
		}
		if n, err := strconv.ParseUint(g.ID, 10, 64); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
		s.insert(g)
	}
}

func (s *Store) insert(g measurement.Group) {
	s.byID[g.ID] = len(s.groups)
	s.groups = append(s.groups, g)
	if g.PlaneID != "" {
		s.indexPlane(g.PlaneID, g.ID)
	}
}

func (s *Store) indexPlane(planeID, id string) {
	ids, ok := s.byPlane[planeID]
	if !ok {
		ids = make(map[string]struct{})
		s.byPlane[planeID] = ids
	}
	ids[id] = struct{}{}
}

func (s *Store) unindexPlane(planeID, id string) {
	ids, ok := s.byPlane[planeID]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.byPlane, planeID)
	}
}

// Get returns the group with the given id
func (s *Store) Get(id string) (measurement.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return measurement.Group{}, false
	}
	return s.groups[idx], true
}

// Remove deletes one group and returns its last state, or nil if absent
func (s *Store) Remove(id string) *measurement.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil
	}
	removed := s.groups[idx]
	s.removeWhere(func(g measurement.Group) bool { return g.ID == id })
	return &removed
}

// RemoveByPlane deletes every group tagged with planeID, returning them in
// their original relative order
func (s *Store) RemoveByPlane(planeID string) []measurement.Group {
	if planeID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPlane[planeID]; !ok {
		return nil
	}
	return s.removeWhere(func(g measurement.Group) bool { return g.PlaneID == planeID })
}

// Edit replaces the label of a group. With clearPlaneID the group also loses
// its plane tag and becomes a plain point measurement.
func (s *Store) Edit(id, label string, clearPlaneID bool) *measurement.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil
	}
	g := &s.groups[idx]
	g.Label = label
	if clearPlaneID && g.PlaneID != "" {
		s.unindexPlane(g.PlaneID, g.ID)
		g.PlaneID = ""
	}
	updated := *g
	return &updated
}

// Clear removes all groups within scope and returns them
func (s *Store) Clear(scope measurement.Scope) []measurement.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeWhere(scope.Matches)
}

// List returns a copy of all groups in insertion order
func (s *Store) List() []measurement.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]measurement.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Last returns the most recently added group within scope
func (s *Store) Last(scope measurement.Scope) (measurement.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.groups) - 1; i >= 0; i-- {
		if scope.Matches(s.groups[i]) {
			return s.groups[i], true
		}
	}
	return measurement.Group{}, false
}

// Len returns the number of stored groups
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.groups)
}

// removeWhere drops matching groups and rebuilds both indices. Caller holds the lock.
func (s *Store) removeWhere(match func(measurement.Group) bool) []measurement.Group {
	var removed []measurement.Group
	kept := s.groups[:0]
	for _, g := range s.groups {
		if match(g) {
			removed = append(removed, g)
			continue
		}
		kept = append(kept, g)
	}
	if len(removed) == 0 {
		return nil
	}

	// Clear the tail of the backing array
	for i := len(kept); i < len(s.groups); i++ {
		s.groups[i] = measurement.Group{}
	}
	s.groups = kept

	s.byID = make(map[string]int, len(s.groups))
	s.byPlane = make(map[string]map[string]struct{})
	for i, g := range s.groups {
		s.byID[g.ID] = i
		if g.PlaneID != "" {
			s.indexPlane(g.PlaneID, g.ID)
		}
	}
	return removed
}

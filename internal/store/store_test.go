package store

import (
	"testing"

	"github.com/philipparndt/armeasure/internal/measurement"
	"github.com/philipparndt/armeasure/pkg/geometry"
)

func pointGroup(x float64) measurement.Group {
	return measurement.NewGroup(geometry.NewVector3(0, 0, 0), geometry.NewVector3(x, 0, 0), measurement.UnitMeters)
}

func planeGroup(planeID string, x float64) measurement.Group {
	g := pointGroup(x)
	g.PlaneID = planeID
	return g
}

func ids(groups []measurement.Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkIndices verifies that both indices point at live entries
func checkIndices(t *testing.T, s *Store) {
	t.Helper()
	if len(s.byID) != len(s.groups) {
		t.Fatalf("byID has %d entries for %d groups", len(s.byID), len(s.groups))
	}
	for id, idx := range s.byID {
		if idx >= len(s.groups) || s.groups[idx].ID != id {
			t.Fatalf("byID[%s] = %d does not index the group", id, idx)
		}
	}
	for planeID, set := range s.byPlane {
		for id := range set {
			idx, ok := s.byID[id]
			if !ok || s.groups[idx].PlaneID != planeID {
				t.Fatalf("byPlane[%s] contains stale id %s", planeID, id)
			}
		}
	}
}

func TestAddAllocatesMonotonicIDs(t *testing.T) {
	s := New()

	a := s.Add(pointGroup(1))
	b := s.Add(pointGroup(2))
	s.Remove(b.ID)
	c := s.Add(pointGroup(3))

	if a.ID != "1" || b.ID != "2" || c.ID != "3" {
		t.Errorf("ids failed: expected 1, 2, 3, got %s, %s, %s", a.ID, b.ID, c.ID)
	}
	checkIndices(t, s)
}

func TestRemoveAbsentIDIsNoop(t *testing.T) {
	s := New()
	s.Add(pointGroup(1))
	before := s.List()

	if removed := s.Remove("42"); removed != nil {
		t.Errorf("expected nil for absent id, got %+v", removed)
	}
	if !equalIDs(ids(before), ids(s.List())) {
		t.Errorf("list changed: expected %v, got %v", ids(before), ids(s.List()))
	}
}

func TestRemoveReturnsSnapshot(t *testing.T) {
	s := New()
	s.Add(pointGroup(1))
	g := s.Add(planeGroup("p1", 2))
	s.Add(pointGroup(3))

	removed := s.Remove(g.ID)
	if removed == nil || removed.ID != g.ID || removed.PlaneID != "p1" {
		t.Fatalf("Remove failed: got %+v", removed)
	}
	if got := ids(s.List()); !equalIDs(got, []string{"1", "3"}) {
		t.Errorf("order failed: expected [1 3], got %v", got)
	}
	if _, ok := s.byPlane["p1"]; ok {
		t.Error("plane index still references removed group")
	}
	checkIndices(t, s)
}

func TestRemoveByPlane(t *testing.T) {
	s := New()
	s.Add(planeGroup("p1", 1))
	s.Add(pointGroup(2))
	s.Add(planeGroup("p2", 3))
	s.Add(planeGroup("p1", 4))
	before := s.Len()

	removed := s.RemoveByPlane("p1")
	if got := ids(removed); !equalIDs(got, []string{"1", "4"}) {
		t.Errorf("RemoveByPlane failed: expected [1 4], got %v", got)
	}
	if s.Len() != before-len(removed) {
		t.Errorf("length failed: expected %d, got %d", before-len(removed), s.Len())
	}
	for _, g := range s.List() {
		if g.PlaneID == "p1" {
			t.Errorf("group %s still tagged with removed plane", g.ID)
		}
	}
	checkIndices(t, s)

	if removed := s.RemoveByPlane("missing"); len(removed) != 0 {
		t.Errorf("expected no groups for unknown plane, got %v", ids(removed))
	}
	if removed := s.RemoveByPlane(""); len(removed) != 0 {
		t.Errorf("empty plane id must not match point groups, got %v", ids(removed))
	}
}

func TestEdit(t *testing.T) {
	s := New()
	g := s.Add(planeGroup("p1", 1))

	updated := s.Edit(g.ID, "door", false)
	if updated == nil || updated.Label != "door" || updated.PlaneID != "p1" {
		t.Fatalf("Edit failed: got %+v", updated)
	}
	if updated.DistanceMeters != g.DistanceMeters {
		t.Errorf("Edit must not touch distance: expected %v, got %v", g.DistanceMeters, updated.DistanceMeters)
	}

	updated = s.Edit(g.ID, "window", true)
	if updated == nil || updated.PlaneID != "" {
		t.Fatalf("Edit with clearPlaneID failed: got %+v", updated)
	}
	if removed := s.RemoveByPlane("p1"); len(removed) != 0 {
		t.Errorf("group should no longer belong to p1, removed %v", ids(removed))
	}
	checkIndices(t, s)

	if s.Edit("nope", "x", false) != nil {
		t.Error("Edit of absent id should return nil")
	}
}

func TestClearScopes(t *testing.T) {
	newStore := func() *Store {
		s := New()
		s.Add(pointGroup(1))
		s.Add(planeGroup("p1", 2))
		s.Add(pointGroup(3))
		s.Add(planeGroup("p2", 4))
		return s
	}

	s := newStore()
	s.Clear(measurement.ScopePoints)
	if got := ids(s.List()); !equalIDs(got, []string{"2", "4"}) {
		t.Errorf("ScopePoints failed: expected [2 4], got %v", got)
	}
	checkIndices(t, s)

	s = newStore()
	s.Clear(measurement.ScopePlanes)
	if got := ids(s.List()); !equalIDs(got, []string{"1", "3"}) {
		t.Errorf("ScopePlanes failed: expected [1 3], got %v", got)
	}
	checkIndices(t, s)

	s = newStore()
	s.Clear(measurement.ScopeAll)
	if s.Len() != 0 || len(s.byPlane) != 0 {
		t.Errorf("ScopeAll failed: %d groups left", s.Len())
	}
	if g := s.Add(pointGroup(5)); g.ID != "5" {
		t.Errorf("ids must not be reused after clear, got %s", g.ID)
	}
}

func TestLast(t *testing.T) {
	s := New()
	s.Add(pointGroup(1))
	s.Add(planeGroup("p1", 2))

	if g, ok := s.Last(measurement.ScopeAll); !ok || g.ID != "2" {
		t.Errorf("Last(all) failed: got %v, %v", g.ID, ok)
	}
	if g, ok := s.Last(measurement.ScopePoints); !ok || g.ID != "1" {
		t.Errorf("Last(points) failed: got %v, %v", g.ID, ok)
	}
	if _, ok := New().Last(measurement.ScopeAll); ok {
		t.Error("Last on empty store should report false")
	}
}

func TestRestoreKeepsIDs(t *testing.T) {
	s := New()
	g1 := planeGroup("p1", 1)
	g1.ID = "4"
	g2 := pointGroup(2)
	g2.ID = "9"

	s.Restore([]measurement.Group{g1, g2, g1})

	if got := ids(s.List()); !equalIDs(got, []string{"4", "9"}) {
		t.Errorf("Restore failed: expected [4 9], got %v", got)
	}
	if g := s.Add(pointGroup(3)); g.ID != "10" {
		t.Errorf("expected next id 10 after restore, got %s", g.ID)
	}
	checkIndices(t, s)
}

func TestListReturnsCopy(t *testing.T) {
	s := New()
	s.Add(pointGroup(1))

	list := s.List()
	list[0].Label = "mutated"

	if g, _ := s.Get("1"); g.Label == "mutated" {
		t.Error("List must return a copy")
	}
}

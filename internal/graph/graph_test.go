package graph

import (
	"reflect"
	"testing"
)

// line builds 1-2-3-4 with a spur 2-5.
func line() *Universe {
	u := NewUniverse()
	for _, g := range [][2]int32{{1, 2}, {2, 3}, {3, 4}, {2, 5}} {
		u.AddGate(g[0], g[1])
		u.AddGate(g[1], g[0])
	}
	for id := int32(1); id <= 5; id++ {
		u.SetName(id, string(rune('A'+id-1)))
		u.SetSecurity(id, 1.0)
	}
	return u
}

func TestRoute_ExcludesOriginIncludesDest(t *testing.T) {
	u := line()
	path, ok := u.Route(1, 4)
	if !ok {
		t.Fatal("Route(1, 4) unreachable")
	}
	if want := []int32{2, 3, 4}; !reflect.DeepEqual(path, want) {
		t.Errorf("Route(1, 4) = %v, want %v", path, want)
	}
	if got := u.ShortestPath(4, 5); got != 3 {
		t.Errorf("ShortestPath(4, 5) = %d, want 3", got)
	}
}

func TestRoute_SameSystem(t *testing.T) {
	u := line()
	path, ok := u.Route(3, 3)
	if !ok || len(path) != 0 {
		t.Errorf("Route(3, 3) = %v, %v, want empty, true", path, ok)
	}
	if got := u.ShortestPath(3, 3); got != 0 {
		t.Errorf("ShortestPath(3, 3) = %d, want 0", got)
	}
}

func TestRoute_Unreachable(t *testing.T) {
	u := line()
	u.SetName(9, "island")
	if _, ok := u.Route(1, 9); ok {
		t.Error("Route to island should be unreachable")
	}
	if got := u.ShortestPath(1, 9); got != -1 {
		t.Errorf("ShortestPath = %d, want -1", got)
	}
}

func TestRoute_PrefersShorterOverFirstListed(t *testing.T) {
	u := line()
	// Long way 1-6-7-8-9-4 listed before the direct chain.
	u.Adj[1] = append([]int32{6}, u.Adj[1]...)
	u.AddGate(6, 7)
	u.AddGate(7, 8)
	u.AddGate(8, 9)
	u.AddGate(9, 4)
	path, _ := u.Route(1, 4)
	if len(path) != 3 {
		t.Errorf("Route(1, 4) = %v, want 3 hops", path)
	}
}

package graph

import "container/heap"

// ShortestPath returns the shortest jump count between origin and dest using Dijkstra.
// Returns -1 if no path exists.
func (u *Universe) ShortestPath(origin, dest int32) int {
	path, ok := u.Route(origin, dest)
	if !ok {
		return -1
	}
	return len(path)
}

// Route returns the systems visited on the shortest path from origin to
// dest, excluding origin and including dest. Ties between equal-length
// paths go to the gate listed first. ok is false when dest is unreachable.
func (u *Universe) Route(origin, dest int32) (path []int32, ok bool) {
	if origin == dest {
		return []int32{}, true
	}

	dist := map[int32]int{origin: 0}
	prev := make(map[int32]int32)

	pq := &priorityQueue{{systemID: origin, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		if item.systemID == dest {
			break
		}
		if d, ok := dist[item.systemID]; ok && item.dist > d {
			continue
		}
		for _, neighbor := range u.Adj[item.systemID] {
			nd := item.dist + 1
			if d, ok := dist[neighbor]; !ok || nd < d {
				dist[neighbor] = nd
				prev[neighbor] = item.systemID
				heap.Push(pq, pqItem{systemID: neighbor, dist: nd})
			}
		}
	}

	if _, reached := dist[dest]; !reached {
		return nil, false
	}
	for at := dest; at != origin; at = prev[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// Priority queue for Dijkstra
type pqItem struct {
	systemID int32
	dist     int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

package graphsim

import (
	"container/heap"
	"math"

	"github.com/ukydev/geo-payloads/internal/geo"
)

type queueItem struct {
	vertex int
	f      float64
	index  int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].f < pq[j].f
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// ShortestPath returns the edge ids of a shortest path from source to target
// using A* with the great-circle distance as heuristic. ok is false when
// target is unreachable. A path from a vertex to itself has no edges.
func (g *Graph) ShortestPath(source, target int) (edges []int, ok bool) {
	if source == target {
		return nil, true
	}

	n := len(g.vertices)
	dist := make([]float64, n)
	via := make([]int, n) // edge used to reach the vertex
	closed := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		via[i] = -1
	}
	goal := g.vertices[target]
	h := func(v int) float64 { return geo.DistanceKm(g.vertices[v], goal) }

	dist[source] = 0
	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &queueItem{vertex: source, f: h(source)})

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*queueItem)
		u := current.vertex
		if closed[u] {
			continue
		}
		if u == target {
			break
		}
		closed[u] = true

		for _, id := range g.adjacency[u] {
			v := g.other(id, u)
			if closed[v] {
				continue
			}
			alt := dist[u] + g.edges[id].Distance
			if alt < dist[v] {
				dist[v] = alt
				via[v] = id
				heap.Push(pq, &queueItem{vertex: v, f: alt + h(v)})
			}
		}
	}

	if via[target] == -1 {
		return nil, false
	}
	for v := target; v != source; v = g.other(via[v], v) {
		edges = append(edges, via[v])
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges, true
}

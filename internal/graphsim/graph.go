// Package graphsim drives vehicles along a street graph built from raw line
// geometries, without a routing engine.
package graphsim

import (
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/geo"
	"github.com/ukydev/geo-payloads/internal/models"
)

// JunctionKm is the distance under which points of two different lines are
// joined by a junction edge.
const JunctionKm = 0.003

// Edge joins two vertices. Distance is the great-circle length in km.
type Edge struct {
	From     int
	To       int
	Distance float64
}

// Graph is an undirected multigraph over street line points. It is never
// modified after Build returns and may be shared between walkers.
type Graph struct {
	vertices  []models.Location
	index     map[models.Location]int
	edges     []Edge
	adjacency [][]int // edge indices per vertex
	lines     [][]int // vertex indices per source line
}

// Build creates the graph for the given lines. Identical coordinates share a
// vertex. Consecutive points of a line are joined, and points of different
// lines closer than JunctionKm get a junction edge.
func Build(lines [][]models.Location) *Graph {
	g := &Graph{index: make(map[models.Location]int)}

	for _, line := range lines {
		ids := make([]int, 0, len(line))
		for _, p := range line {
			ids = append(ids, g.addVertex(p))
		}
		if len(ids) > 0 {
			g.lines = append(g.lines, ids)
		}
	}

	for _, ids := range g.lines {
		for i := 0; i < len(ids)-1; i++ {
			if ids[i] != ids[i+1] {
				g.addEdge(ids[i], ids[i+1])
			}
		}
	}

	junctions := 0
	for i := 0; i < len(g.lines); i++ {
		for k := i + 1; k < len(g.lines); k++ {
			for _, a := range g.lines[i] {
				for _, b := range g.lines[k] {
					if a == b {
						continue
					}
					if geo.DistanceKm(g.vertices[a], g.vertices[b]) < JunctionKm {
						g.addEdge(a, b)
						junctions++
					}
				}
			}
		}
	}

	log.WithFields(log.Fields{
		"lines":     len(g.lines),
		"vertices":  len(g.vertices),
		"edges":     len(g.edges),
		"junctions": junctions,
	}).Info("Built street graph")
	return g
}

func (g *Graph) addVertex(p models.Location) int {
	if id, ok := g.index[p]; ok {
		return id
	}
	id := len(g.vertices)
	g.vertices = append(g.vertices, p)
	g.adjacency = append(g.adjacency, nil)
	g.index[p] = id
	return id
}

func (g *Graph) addEdge(a, b int) {
	id := len(g.edges)
	g.edges = append(g.edges, Edge{From: a, To: b, Distance: geo.DistanceKm(g.vertices[a], g.vertices[b])})
	g.adjacency[a] = append(g.adjacency[a], id)
	g.adjacency[b] = append(g.adjacency[b], id)
}

// Vertex returns the location of vertex id.
func (g *Graph) Vertex(id int) models.Location {
	return g.vertices[id]
}

// VertexID returns the vertex at exactly p.
func (g *Graph) VertexID(p models.Location) (int, bool) {
	id, ok := g.index[p]
	return id, ok
}

// Edge returns edge id.
func (g *Graph) Edge(id int) Edge {
	return g.edges[id]
}

func (g *Graph) NumVertices() int { return len(g.vertices) }
func (g *Graph) NumEdges() int    { return len(g.edges) }
func (g *Graph) NumLines() int    { return len(g.lines) }

// LineStart returns the first vertex of line i.
func (g *Graph) LineStart(i int) int {
	return g.lines[i][0]
}

func (g *Graph) other(edgeID, from int) int {
	e := g.edges[edgeID]
	if e.From == from {
		return e.To
	}
	return e.From
}

// Package paramgraph merges the parameter lists of a type's constructors into
// a prefix-shared DAG running from Begin to End. Every Begin→End path spells
// out exactly one constructor's parameter order.
package paramgraph

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/invakid404/fluid/catalog"
)

var (
	ErrUnreachable = errors.New("paramgraph: vertex not reachable from begin")
	ErrDeadEnd     = errors.New("paramgraph: vertex has no path to end")
)

// Vertex is one (property, type) pair at a fixed position of a constructor
// prefix. Begin and End are the shared sentinels and carry no pair.
type Vertex struct {
	ID          string
	Prefix      string
	Property    string
	Type        reflect.Type
	Constructor *catalog.Constructor

	sentinel string
}

var (
	Begin = &Vertex{ID: "BEGIN", sentinel: "BEGIN"}
	End   = &Vertex{ID: "END", sentinel: "END"}
)

// IsSentinel reports whether v is Begin or End.
func (v *Vertex) IsSentinel() bool {
	return v.sentinel != ""
}

func (v *Vertex) String() string {
	if v.IsSentinel() {
		return v.sentinel
	}

	return v.Property + " " + catalog.TypeName(v.Type)
}

// Graph is immutable once returned by Build.
type Graph struct {
	vertices []*Vertex
	byID     map[string]*Vertex
	out      map[*Vertex][]*Vertex
	in       map[*Vertex]int
	edges    int
}

func newGraph() *Graph {
	g := &Graph{
		byID: make(map[string]*Vertex),
		out:  make(map[*Vertex][]*Vertex),
		in:   make(map[*Vertex]int),
	}
	g.addVertex(Begin)
	g.addVertex(End)

	return g
}

func (g *Graph) addVertex(v *Vertex) *Vertex {
	if existing, ok := g.byID[v.ID]; ok {
		return existing
	}

	g.byID[v.ID] = v
	g.vertices = append(g.vertices, v)

	return v
}

func (g *Graph) addEdge(from, to *Vertex) {
	if g.HasEdge(from, to) {
		return
	}

	g.out[from] = append(g.out[from], to)
	g.in[to]++
	g.edges++
}

// Vertices returns every vertex, sentinels first, in insertion order.
func (g *Graph) Vertices() []*Vertex {
	return g.vertices
}

// Vertex looks a vertex up by ID.
func (g *Graph) Vertex(id string) (*Vertex, bool) {
	v, ok := g.byID[id]
	return v, ok
}

// Successors returns v's out-neighbours in insertion order.
func (g *Graph) Successors(v *Vertex) []*Vertex {
	return g.out[v]
}

func (g *Graph) InDegree(v *Vertex) int {
	return g.in[v]
}

func (g *Graph) EdgeCount() int {
	return g.edges
}

func (g *Graph) HasEdge(from, to *Vertex) bool {
	for _, successor := range g.out[from] {
		if successor == to {
			return true
		}
	}

	return false
}

// Empty reports whether the graph holds nothing but the sentinels, which is the
// case for a type whose only constructor takes no arguments.
func (g *Graph) Empty() bool {
	return len(g.vertices) == 2
}

// Paths enumerates every simple Begin→End path, excluding the sentinels
// themselves.
func (g *Graph) Paths() [][]*Vertex {
	var paths [][]*Vertex
	onPath := make(map[*Vertex]bool)

	var walk func(v *Vertex, path []*Vertex)
	walk = func(v *Vertex, path []*Vertex) {
		for _, next := range g.out[v] {
			if next == End {
				paths = append(paths, append([]*Vertex(nil), path...))
				continue
			}
			if onPath[next] {
				continue
			}

			onPath[next] = true
			walk(next, append(path, next))
			onPath[next] = false
		}
	}
	walk(Begin, nil)

	return paths
}

// Depth is the length of the shortest path from Begin to v, or -1 when v is
// unreachable.
func (g *Graph) Depth(v *Vertex) int {
	depth := map[*Vertex]int{Begin: 0}
	queue := []*Vertex{Begin}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == v {
			return depth[current]
		}

		for _, next := range g.out[current] {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[current] + 1
			queue = append(queue, next)
		}
	}

	return -1
}

// InvariantError reports a vertex breaking graph totality.
type InvariantError struct {
	Vertex *Vertex
	Cause  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: %s", e.Cause, e.Vertex)
}

func (e *InvariantError) Unwrap() error {
	return e.Cause
}

// Validate checks that every vertex other than End has a successor and every
// vertex other than Begin has a predecessor. Dead ends are reported first: a
// dead end also leaves End without predecessors, which would hide it.
func (g *Graph) Validate() error {
	for _, v := range g.vertices {
		if v != End && len(g.out[v]) == 0 {
			return &InvariantError{Vertex: v, Cause: ErrDeadEnd}
		}
	}

	for _, v := range g.vertices {
		if v != Begin && g.in[v] == 0 {
			return &InvariantError{Vertex: v, Cause: ErrUnreachable}
		}
	}

	return nil
}

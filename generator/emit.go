package generator

import (
	"fmt"
	"reflect"

	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/paramgraph"
	"github.com/rs/zerolog"
	"github.com/stoewer/go-strcase"
)

// Role says how a type block ends.
type Role int

const (
	// RoleFactory blocks end with a terminal method returning the built value.
	RoleFactory Role = iota
	// RoleChain blocks end by returning to the block that opened them. The
	// built value becomes the next element of the chain.
	RoleChain
)

func (r Role) String() string {
	if r == RoleChain {
		return "chain"
	}

	return "factory"
}

// DefaultTerminal closes type blocks unless a naming says otherwise.
const DefaultTerminal = "end"

type EmitOptions struct {
	Role     Role
	Terminal string
	Docs     Docs
	Logger   zerolog.Logger
}

type emitter struct {
	graph    *paramgraph.Graph
	target   reflect.Type
	typeName string
	opts     EmitOptions
	names    map[string]bool
	onPath   map[*paramgraph.Vertex]bool
}

// Emit turns the parameter graph of target into a block named after the
// type. Each vertex becomes a method opening the block for the rest of the
// path, and every vertex that may end a constructor carries the terminal
// method. A graph without edges has no usable constructor and yields nil.
func Emit(g *paramgraph.Graph, target reflect.Type, opts EmitOptions) *descriptor.Block {
	if g.EdgeCount() == 0 {
		return nil
	}
	if opts.Terminal == "" {
		opts.Terminal = DefaultTerminal
	}
	if opts.Docs == nil {
		opts.Docs = noDocs{}
	}

	e := &emitter{
		graph:    g,
		target:   target,
		typeName: catalog.TypeName(target),
		opts:     opts,
		names:    make(map[string]bool),
		onPath:   make(map[*paramgraph.Vertex]bool),
	}

	name := catalog.SimpleName(target)
	e.names[name] = true

	block := descriptor.NewBlock(name)
	block.Doc = opts.Docs.TypeDoc(e.typeName)
	e.children(block, paramgraph.Begin, name, false)

	return block
}

func (e *emitter) children(block *descriptor.Block, v *paramgraph.Vertex, path string, sliceSeen bool) {
	if e.graph.HasEdge(v, paramgraph.End) {
		e.terminal(block, v)
	}

	for _, next := range e.graph.Successors(v) {
		if next == paramgraph.End || e.onPath[next] {
			continue
		}
		e.vertex(block, next, path, sliceSeen)
	}
}

func (e *emitter) vertex(parent *descriptor.Block, v *paramgraph.Vertex, path string, sliceSeen bool) {
	e.onPath[v] = true
	defer delete(e.onPath, v)

	e.opts.Logger.Trace().
		Str("type", e.typeName).
		Str("property", v.Property).
		Int("depth", e.graph.Depth(v)).
		Msg("entering vertex")

	slice := catalog.IsSlice(v.Type)
	param := descriptor.Param{Name: v.Property, Type: catalog.TypeName(v.Type)}
	if slice && !sliceSeen && e.variadic(v) {
		param = descriptor.Param{Name: v.Property, Type: catalog.TypeName(v.Type.Elem()), Variadic: true}
	}

	path += strcase.UpperCamelCase(v.Property)
	block := descriptor.NewBlock(e.unique(path))

	parent.Add(&descriptor.Method{
		Signature: descriptor.Signature{Name: v.Property, Params: []descriptor.Param{param}},
		Mode:      descriptor.Last(),
		Block:     block,
	})

	e.children(block, v, path, sliceSeen || slice)
}

// variadic reports whether v can be rendered as a variadic parameter: it must
// close a variadic constructor and be followed by nothing but End.
func (e *emitter) variadic(v *paramgraph.Vertex) bool {
	successors := e.graph.Successors(v)
	if len(successors) != 1 || successors[0] != paramgraph.End {
		return false
	}

	return v.Constructor.Variadic && closes(v)
}

func (e *emitter) terminal(block *descriptor.Block, v *paramgraph.Vertex) {
	m := &descriptor.Method{
		Signature: descriptor.Signature{Name: e.opts.Terminal},
		Mode:      descriptor.Last(),
		Doc:       e.opts.Docs.TypeDoc(e.typeName),
	}
	if !v.IsSentinel() && closes(v) {
		m.Doc = e.opts.Docs.ConstructorDoc(e.typeName, v.Constructor.Name())
	}
	if e.opts.Role == RoleFactory {
		m.Returns = e.typeName
	}

	block.Add(m)
}

func (e *emitter) unique(name string) string {
	candidate := name
	for n := 2; e.names[candidate]; n++ {
		candidate = fmt.Sprintf("%s%d", name, n)
	}
	e.names[candidate] = true

	return candidate
}

// closes reports whether v is the last parameter of the constructor that
// introduced it.
func closes(v *paramgraph.Vertex) bool {
	c := v.Constructor
	last := len(c.Params) - 1

	return last >= 0 && c.Properties[last] == v.Property && c.Params[last] == v.Type
}

// Package pipe is a small tuple-stream assembly model: named pipes chained
// through their predecessors, plus the operations they apply. It serves as
// the default catalog for generation and as the runtime's test bed.
package pipe

import "strings"

// Pipe is one element of an assembly. Previous lists the elements feeding it.
type Pipe interface {
	Name() string
	Previous() []Pipe
	Trace() string
}

type element struct {
	name     string
	previous []Pipe
	trace    string
}

func (e *element) Name() string { return e.name }
func (e *element) Previous() []Pipe { return e.previous }
func (e *element) Trace() string { return e.trace }
func (e *element) SetTrace(t string) { e.trace = t }
func (e *element) String() string { return e.name }
func (e *element) inherit(prev Pipe) { e.name, e.previous = prev.Name(), []Pipe{prev} }

// Head starts a branch, or renames one when it has a predecessor.
type Head struct{ element }

func NewHead(name string) *Head {
	return &Head{element{name: name}}
}

func NewHeadFrom(previous Pipe, name string) *Head {
	return &Head{element{name: name, previous: []Pipe{previous}}}
}

// Each applies a function or filter to every tuple.
type Each struct {
	element
	ArgumentSelector Fields
	Operation        Operation
	OutputSelector   Fields
}

func NewEachFunction(previous Pipe, argumentSelector Fields, function Function, outputSelector Fields) *Each {
	each := &Each{ArgumentSelector: argumentSelector, Operation: function, OutputSelector: outputSelector}
	each.inherit(previous)
	return each
}

func NewEachFilter(previous Pipe, argumentSelector Fields, filter Filter) *Each {
	each := &Each{ArgumentSelector: argumentSelector, Operation: filter, OutputSelector: Results}
	each.inherit(previous)
	return each
}

// GroupBy groups tuples on GroupFields, optionally sorting within groups.
type GroupBy struct {
	element
	GroupFields Fields
	SortFields  Fields
}

func NewGroupBy(previous Pipe, groupFields Fields) *GroupBy {
	groupBy := &GroupBy{GroupFields: groupFields}
	groupBy.inherit(previous)
	return groupBy
}

func NewGroupBySorted(previous Pipe, groupFields Fields, sortFields Fields) *GroupBy {
	groupBy := &GroupBy{GroupFields: groupFields, SortFields: sortFields}
	groupBy.inherit(previous)
	return groupBy
}

// Every applies an aggregator or buffer to every group.
type Every struct {
	element
	ArgumentSelector Fields
	Operation        Operation
	OutputSelector   Fields
}

func NewEveryAggregator(previous Pipe, argumentSelector Fields, aggregator Aggregator, outputSelector Fields) *Every {
	every := &Every{ArgumentSelector: argumentSelector, Operation: aggregator, OutputSelector: outputSelector}
	every.inherit(previous)
	return every
}

func NewEveryBuffer(previous Pipe, argumentSelector Fields, buffer Buffer, outputSelector Fields) *Every {
	every := &Every{ArgumentSelector: argumentSelector, Operation: buffer, OutputSelector: outputSelector}
	every.inherit(previous)
	return every
}

// Checkpoint marks a place where intermediate results are kept.
type Checkpoint struct{ element }

func NewCheckpoint(previous Pipe) *Checkpoint {
	checkpoint := &Checkpoint{}
	checkpoint.inherit(previous)
	return checkpoint
}

// Merge combines several branches into one stream.
type Merge struct{ element }

func NewMerge(pipes ...Pipe) *Merge {
	return &Merge{element{name: joinNames(pipes, "+"), previous: pipes}}
}

// HashJoin joins the right-hand branch into the left-hand one.
type HashJoin struct {
	element
	LeftFields  Fields
	RightFields Fields
}

func NewHashJoin(lhs Pipe, lhsJoinFields Fields, rhs Pipe, rhsJoinFields Fields) *HashJoin {
	return &HashJoin{
		element:     element{name: joinNames([]Pipe{lhs, rhs}, "*"), previous: []Pipe{lhs, rhs}},
		LeftFields:  lhsJoinFields,
		RightFields: rhsJoinFields,
	}
}

func joinNames(pipes []Pipe, sep string) string {
	names := make([]string, len(pipes))
	for i, p := range pipes {
		names[i] = p.Name()
	}

	return strings.Join(names, sep)
}

// Chain walks from p back to the head of its branch, following the first
// predecessor.
func Chain(p Pipe) []Pipe {
	var chain []Pipe
	for p != nil {
		chain = append(chain, p)

		previous := p.Previous()
		if len(previous) == 0 {
			break
		}
		p = previous[0]
	}

	return chain
}

package factory

import "reflect"

// Args is an immutable list of (type, value) pairs. Appending returns a new
// list sharing the old one, so a child factory can take over its parent's
// arguments without copying.
type Args struct {
	last *argNode
	n    int
}

type argNode struct {
	typ   reflect.Type
	value any
	prev  *argNode
}

func (a Args) Append(typ reflect.Type, value any) Args {
	return Args{last: &argNode{typ: typ, value: value, prev: a.last}, n: a.n + 1}
}

// Concat appends every pair of other after a.
func (a Args) Concat(other Args) Args {
	types, values := other.Slices()
	for i := range types {
		a = a.Append(types[i], values[i])
	}

	return a
}

func (a Args) Len() int {
	return a.n
}

// Slices materializes the list in insertion order.
func (a Args) Slices() ([]reflect.Type, []any) {
	types := make([]reflect.Type, a.n)
	values := make([]any, a.n)

	i := a.n - 1
	for node := a.last; node != nil; node = node.prev {
		types[i] = node.typ
		values[i] = node.value
		i--
	}

	return types, values
}

package factory

import (
	"reflect"

	"github.com/invakid404/fluid/catalog"
)

var stringType = reflect.TypeFor[string]()

// Pipe threads every object it builds onto the active branch of its Context.
// The active branch's tail is passed as the leading constructor argument, or
// the branch name when the branch has no tail yet. Arguments that already
// carry branch tails (merges and joins) suppress the threading, and the
// branches they came from are folded into the result.
type Pipe struct {
	base
	result any
}

func NewPipe(registry *catalog.Registry, ctx *Context, opts ...Option) *Pipe {
	if ctx == nil {
		ctx = NewContext()
	}

	return &Pipe{base: newBase(registry, ctx, opts)}
}

func (f *Pipe) Kind() Kind { return KindPipe }

func (f *Pipe) AddPrior(prior Factory) { f.addPrior(f, prior) }

// Result is the last object this factory built.
func (f *Pipe) Result() any {
	return f.result
}

// Create builds the pending object, records it as the tail of its branch and
// resets the factory for the next segment. With no target bound it returns
// the previous result.
func (f *Pipe) Create() (any, error) {
	if f.creates == nil {
		return f.result, nil
	}

	types, values := f.args.Slices()

	consumed := f.consumedBranches(values)
	if len(consumed) == 0 {
		current := f.ctx.Current()
		if tail := f.ctx.Tail(current); tail != nil {
			types = append([]reflect.Type{reflect.TypeOf(tail)}, types...)
			values = append([]any{tail}, values...)
		} else {
			types = append(types, stringType)
			values = append(values, current)
		}
	}

	result, err := f.construct(KindPipe, types, values)
	if err != nil {
		return nil, err
	}

	named, ok := result.(Named)
	if !ok {
		return nil, &UnnamedResultError{Type: reflect.TypeOf(result)}
	}

	name := named.Name()
	for _, branch := range consumed {
		if branch != name {
			f.ctx.Remove(branch)
		}
	}
	f.ctx.SetCurrent(name)
	f.ctx.SetTail(name, result)

	f.result = result
	f.creates = nil
	f.trace = ""
	f.args = Args{}

	return result, nil
}

func (f *Pipe) consumedBranches(values []any) []string {
	var branches []string
	add := func(value any) {
		if branch, ok := f.ctx.branchOf(value); ok {
			branches = append(branches, branch)
		}
	}

	for _, value := range values {
		if value == nil {
			continue
		}

		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice {
			for i := range rv.Len() {
				add(rv.Index(i).Interface())
			}
			continue
		}
		add(value)
	}

	return branches
}

func isComparable(value any) bool {
	return value != nil && reflect.ValueOf(value).Comparable()
}

// Package assembly runs sessions of the generated assembly builder: the
// calls that manage branches directly instead of constructing an element.
package assembly

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/factory"
	"github.com/invakid404/fluid/generator"
	"github.com/invakid404/fluid/pipe"
	"github.com/invakid404/fluid/proxy"
)

var (
	ErrNoActiveBranch = errors.New("assembly: no active branch")
	ErrBadArguments   = errors.New("assembly: unexpected arguments")
)

var (
	headType       = reflect.TypeFor[*pipe.Head]()
	checkpointType = reflect.TypeFor[*pipe.Checkpoint]()
	stringType     = reflect.TypeFor[string]()
)

// Options returns the interpreter options every assembly session needs.
func Options() []proxy.Option {
	return []proxy.Option{
		proxy.WithOverride("startBranch", startBranch),
		proxy.WithOverride("continueBranch", continueBranch),
		proxy.WithOverride(generator.JoinBranch, joinBranch),
		proxy.WithOverride("pipe", renameBranch),
		proxy.WithOverride("checkpoint", checkpoint),
		proxy.WithOverride("completeBranch", completeBranch),
		proxy.WithOverride("completeAssembly", completeAssembly),
		proxy.WithTraceSkip(reflect.TypeFor[Session]().PkgPath()),
	}
}

// NewInterpreter returns an interpreter for the assembly table with the
// session overrides installed.
func NewInterpreter(registry *catalog.Registry, table *proxy.Table, opts ...proxy.Option) *proxy.Interpreter {
	return proxy.New(registry, table, append(Options(), opts...)...)
}

// Session is one assembly. It owns its Context; sessions never share
// branches. A session is not safe for concurrent use.
type Session struct {
	root *proxy.Proxy
}

// Start opens a session with an empty Context.
func Start(in *proxy.Interpreter) *Session {
	return &Session{root: in.Root(generator.AssemblyRoot, factory.NewContext())}
}

// Root is the proxy behind the session's root builder.
func (s *Session) Root() *proxy.Proxy {
	return s.root
}

func (s *Session) Context() *factory.Context {
	return s.root.Context()
}

// Tails returns the tail of every branch in creation order.
func (s *Session) Tails() []pipe.Pipe {
	return tails(s.root.Context())
}

// startBranch binds a fresh branch builder and seeds it with a head named
// after the branch. An existing branch of that name is replaced.
func startBranch(self *proxy.Proxy, args []any) (any, error) {
	slot, rest, err := slotArgs(args)
	if err != nil {
		return nil, err
	}
	name, ok := single[string](rest)
	if !ok {
		return nil, fmt.Errorf("%w: startBranch(%v)", ErrBadArguments, rest)
	}

	ctx := self.Context()
	ctx.Remove(name)
	ctx.SetCurrent(name)

	branch, err := bindBranch(self, slot)
	if err != nil {
		return nil, err
	}

	f := branch.Factory()
	f.SetCreatesType(headType)
	if _, err := f.Create(); err != nil {
		return nil, err
	}

	return nil, nil
}

// continueBranch makes previous the active tail and binds a branch builder
// continuing from it.
func continueBranch(self *proxy.Proxy, args []any) (any, error) {
	slot, rest, err := slotArgs(args)
	if err != nil {
		return nil, err
	}
	previous, ok := single[pipe.Pipe](rest)
	if !ok || previous == nil {
		return nil, fmt.Errorf("%w: continueBranch(%v)", ErrBadArguments, rest)
	}

	ctx := self.Context()
	ctx.SetTail(previous.Name(), previous)
	ctx.SetCurrent(previous.Name())

	_, err = bindBranch(self, slot)
	return nil, err
}

// joinBranch creates the join pending on self, which folds the joined
// branches into one, and binds a branch builder continuing from it.
func joinBranch(self *proxy.Proxy, args []any) (any, error) {
	slot, rest, err := slotArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %s(%v)", ErrBadArguments, generator.JoinBranch, rest)
	}

	f := self.Factory()
	if f == nil || f.CreatesType() == nil {
		return nil, fmt.Errorf("%w: nothing to join", ErrBadArguments)
	}
	if _, err := f.Create(); err != nil {
		return nil, err
	}

	if _, err := bindBranch(self, slot); err != nil {
		return nil, err
	}

	return nil, nil
}

// renameBranch appends a head carrying the new name to the active branch and
// drops the old branch entry.
func renameBranch(self *proxy.Proxy, args []any) (any, error) {
	name, ok := single[string](args)
	if !ok {
		return nil, fmt.Errorf("%w: pipe(%v)", ErrBadArguments, args)
	}

	ctx := self.Context()
	old := ctx.Current()
	if ctx.Tail(old) == nil {
		return nil, ErrNoActiveBranch
	}

	f, err := self.Interpreter().NewFactory(factory.KindPipe, ctx)
	if err != nil {
		return nil, err
	}
	f.SetCreatesType(headType)
	f.Add([]reflect.Type{stringType}, []any{name})
	if _, err := f.Create(); err != nil {
		return nil, err
	}

	if old != name {
		ctx.Remove(old)
	}

	return nil, nil
}

func checkpoint(self *proxy.Proxy, args []any) (any, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("%w: checkpoint(%v)", ErrBadArguments, args)
	}

	ctx := self.Context()
	if ctx.Tail(ctx.Current()) == nil {
		return nil, ErrNoActiveBranch
	}

	f, err := self.Interpreter().NewFactory(factory.KindPipe, ctx)
	if err != nil {
		return nil, err
	}
	f.SetCreatesType(checkpointType)
	_, err = f.Create()

	return nil, err
}

func completeBranch(self *proxy.Proxy, _ []any) (any, error) {
	ctx := self.Context()

	tail, ok := ctx.Tail(ctx.Current()).(pipe.Pipe)
	if !ok {
		return nil, ErrNoActiveBranch
	}

	return tail, nil
}

func completeAssembly(self *proxy.Proxy, _ []any) (any, error) {
	return tails(self.Context()), nil
}

func bindBranch(self *proxy.Proxy, slot *proxy.Slot) (*proxy.Proxy, error) {
	branch, err := self.Interpreter().Backed(slot.Block(), factory.KindPipe, self.Context())
	if err != nil {
		return nil, err
	}
	if err := slot.Bind(branch); err != nil {
		return nil, err
	}

	return branch, nil
}

func tails(ctx *factory.Context) []pipe.Pipe {
	values := ctx.Tails()

	result := make([]pipe.Pipe, 0, len(values))
	for _, value := range values {
		if p, ok := value.(pipe.Pipe); ok {
			result = append(result, p)
		}
	}

	return result
}

func slotArgs(args []any) (*proxy.Slot, []any, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("%w: missing result slot", ErrBadArguments)
	}

	slot, ok := args[0].(*proxy.Slot)
	if !ok || slot == nil {
		return nil, nil, fmt.Errorf("%w: missing result slot", ErrBadArguments)
	}

	return slot, args[1:], nil
}

func single[T any](args []any) (T, bool) {
	var zero T
	if len(args) != 1 {
		return zero, false
	}

	value, ok := args[0].(T)
	return value, ok
}

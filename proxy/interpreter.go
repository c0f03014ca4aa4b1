// Package proxy interprets calls on generated fluent builders. Every builder
// method forwards to Interpreter.Invoke with its method ID and arguments; the
// interpreter accumulates them in factories and builds objects when a chain
// completes.
package proxy

import (
	"fmt"
	"reflect"

	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/factory"
	"github.com/rs/zerolog"
)

// Override replaces the interpreter for a method name. It runs after any
// pending deferred construction on self has been flushed.
type Override func(self *Proxy, args []any) (any, error)

type Interpreter struct {
	registry    *catalog.Registry
	table       *Table
	overrides   map[string]Override
	factoryOpts []factory.Option
	logger      zerolog.Logger
	tracer      *tracer
}

type Option func(*Interpreter)

func WithOverride(name string, override Override) Option {
	return func(in *Interpreter) {
		in.overrides[name] = override
	}
}

func WithObserver(observer factory.Observer) Option {
	return func(in *Interpreter) {
		in.factoryOpts = append(in.factoryOpts, factory.WithObserver(observer))
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
		in.factoryOpts = append(in.factoryOpts, factory.WithLogger(logger))
	}
}

// WithTraceSkip excludes frames of the given packages from call-site traces,
// in addition to this package and generated files.
func WithTraceSkip(pkgPaths ...string) Option {
	return func(in *Interpreter) {
		in.tracer.skipPackages = append(in.tracer.skipPackages, pkgPaths...)
	}
}

func New(registry *catalog.Registry, table *Table, opts ...Option) *Interpreter {
	in := &Interpreter{
		registry:  registry,
		table:     table,
		overrides: make(map[string]Override),
		logger:    zerolog.Nop(),
		tracer:    newTracer(),
	}
	for _, opt := range opts {
		opt(in)
	}

	return in
}

func (in *Interpreter) Registry() *catalog.Registry {
	return in.registry
}

func (in *Interpreter) Table() *Table {
	return in.table
}

// Root returns a proxy without a factory for block, bound to ctx.
func (in *Interpreter) Root(block string, ctx *factory.Context) *Proxy {
	if ctx == nil {
		ctx = factory.NewContext()
	}

	return &Proxy{interp: in, block: block, ctx: ctx}
}

// Backed returns a proxy for block backed by a fresh factory of kind.
func (in *Interpreter) Backed(block string, kind factory.Kind, ctx *factory.Context) (*Proxy, error) {
	p := in.Root(block, ctx)

	f, err := in.NewFactory(kind, p.ctx)
	if err != nil {
		return nil, err
	}
	p.factory = f

	return p, nil
}

// NewFactory returns a factory of kind bound to ctx, carrying the
// interpreter's observer and logger.
func (in *Interpreter) NewFactory(kind factory.Kind, ctx *factory.Context) (factory.Factory, error) {
	return factory.New(kind, in.registry, ctx, in.factoryOpts...)
}

// Invoke interprets one builder call. Calls that open a block through a
// result slot return nil; calls that complete a chain return the built
// object.
func (in *Interpreter) Invoke(self *Proxy, id string, args ...any) (any, error) {
	if self == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, id)
	}

	spec, ok := in.table.Lookup(id)
	if !ok {
		return nil, &UnknownMethodError{ID: id}
	}

	if override, ok := in.overrides[spec.Name]; ok {
		if err := in.flush(self); err != nil {
			return nil, err
		}

		return override(self, args)
	}

	var (
		kind         factory.Kind
		creates      reflect.Type
		trace        string
		createOnNext bool
	)
	if meta := spec.Meta; meta != nil {
		kind, creates, createOnNext = meta.Factory, meta.Creates, meta.CreateOnNext
		trace = in.tracer.capture(meta.Method)
	}

	if receiver := self.factory; receiver != nil {
		if spec.Meta == nil && len(args) == 0 {
			return receiver.Create()
		}
		if err := in.flush(self); err != nil {
			return nil, err
		}
		if kind == factory.KindNone {
			kind = receiver.Kind()
		}
	}

	var (
		types    []reflect.Type
		values   []any
		children []*Proxy
	)
	for _, arg := range args {
		if slot, ok := arg.(*Slot); ok {
			child, err := in.spawn(self, spec, slot, kind, creates, trace, createOnNext)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
			continue
		}

		if len(types) >= len(spec.Params) {
			return nil, fmt.Errorf("%w: %s takes %d", ErrArity, id, len(spec.Params))
		}
		types = append(types, spec.Params[len(types)])
		values = append(values, arg)
	}

	if len(children) > 0 {
		for _, child := range children {
			if child.factory != nil {
				child.factory.Add(types, values)
			}
		}

		return nil, nil
	}

	target := self.factory
	if spec.Meta != nil || target == nil {
		if kind == factory.KindNone {
			return nil, nil
		}

		f, err := in.NewFactory(kind, self.ctx)
		if err != nil {
			return nil, err
		}
		f.SetCreatesType(creates)
		f.SetTrace(trace)
		f.SetCreateOnNext(createOnNext)
		target = f
	}

	target.Add(types, values)

	in.logger.Trace().
		Str("method", id).
		Int("args", target.Args().Len()).
		Msg("completing chain")

	return target.Create()
}

// flush builds a construction self deferred to its next call.
func (in *Interpreter) flush(self *Proxy) error {
	f := self.factory
	if f == nil || !f.CreateOnNext() || f.CreatesType() == nil {
		return nil
	}

	_, err := f.Create()
	return err
}

func (in *Interpreter) spawn(
	self *Proxy,
	spec MethodSpec,
	slot *Slot,
	kind factory.Kind,
	creates reflect.Type,
	trace string,
	createOnNext bool,
) (*Proxy, error) {
	if slot == nil {
		return nil, &SlotError{Method: spec.ID, Reason: "nil slot"}
	}
	if slot.proxy != nil {
		return nil, &SlotError{Method: spec.ID, Reason: "slot already bound"}
	}

	child := &Proxy{interp: in, block: slot.block, ctx: self.ctx}
	if kind != factory.KindNone {
		f, err := in.NewFactory(kind, self.ctx)
		if err != nil {
			return nil, err
		}
		f.SetCreatesType(creates)
		f.SetTrace(trace)
		f.SetCreateOnNext(createOnNext)
		if self.factory != nil {
			f.AddPrior(self.factory)
		}
		child.factory = f
	}

	if err := slot.Bind(child); err != nil {
		return nil, err
	}

	return child, nil
}

// Package factory accumulates constructor arguments over a chain of fluent
// calls and builds the target object once the chain ends.
package factory

import (
	"fmt"
	"reflect"
	"time"

	"github.com/invakid404/fluid/catalog"
	"github.com/rs/zerolog"
)

// Kind selects which factory variant backs a call.
type Kind int

const (
	KindNone Kind = iota
	KindPlain
	KindPipe
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "factory"
	case KindPipe:
		return "pipe"
	}

	return "none"
}

// ParseKind maps the descriptor spelling of a role back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "":
		return KindNone, nil
	case "factory":
		return KindPlain, nil
	case "pipe":
		return KindPipe, nil
	}

	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Traceable objects receive the call site that created them.
type Traceable interface {
	SetTrace(trace string)
}

// Named objects can be branch tails.
type Named interface {
	Name() string
}

// Factory gathers arguments for one target object.
type Factory interface {
	Kind() Kind
	CreatesType() reflect.Type
	SetCreatesType(typ reflect.Type)
	Trace() string
	SetTrace(trace string)
	CreateOnNext() bool
	SetCreateOnNext(createOnNext bool)
	Args() Args
	Context() *Context

	// Add appends (type, value) pairs. Mismatched lengths are not checked
	// here; they surface when no constructor accepts the arguments.
	Add(types []reflect.Type, values []any)
	// AddPrior takes over prior's target, trace and arguments if this factory
	// has no target yet. Merging the same prior twice has no effect.
	AddPrior(prior Factory)
	Create() (any, error)
}

type config struct {
	observer Observer
	logger   zerolog.Logger
}

type Option func(*config)

func WithObserver(observer Observer) Option {
	return func(c *config) {
		c.observer = observer
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates a factory of the given kind bound to ctx.
func New(kind Kind, registry *catalog.Registry, ctx *Context, opts ...Option) (Factory, error) {
	switch kind {
	case KindPlain:
		return NewSimple(registry, ctx, opts...), nil
	case KindPipe:
		return NewPipe(registry, ctx, opts...), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

type base struct {
	registry *catalog.Registry
	ctx      *Context
	cfg      config

	creates      reflect.Type
	trace        string
	createOnNext bool
	args         Args
	priors       map[Factory]struct{}
}

func newBase(registry *catalog.Registry, ctx *Context, opts []Option) base {
	cfg := config{
		observer: NoOpObserver{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return base{registry: registry, ctx: ctx, cfg: cfg}
}

func (b *base) CreatesType() reflect.Type { return b.creates }
func (b *base) SetCreatesType(typ reflect.Type) { b.creates = typ }
func (b *base) Trace() string { return b.trace }
func (b *base) SetTrace(trace string) { b.trace = trace }
func (b *base) CreateOnNext() bool { return b.createOnNext }
func (b *base) SetCreateOnNext(createOnNext bool) { b.createOnNext = createOnNext }
func (b *base) Args() Args { return b.args }
func (b *base) Context() *Context { return b.ctx }

func (b *base) Add(types []reflect.Type, values []any) {
	n := max(len(types), len(values))
	for i := range n {
		var typ reflect.Type
		if i < len(types) {
			typ = types[i]
		}
		var value any
		if i < len(values) {
			value = values[i]
		}
		b.args = b.args.Append(typ, value)
	}
}

func (b *base) addPrior(self, prior Factory) {
	if b.creates != nil || prior == nil || prior == self {
		return
	}
	if _, merged := b.priors[prior]; merged {
		return
	}
	if b.priors == nil {
		b.priors = make(map[Factory]struct{})
	}
	b.priors[prior] = struct{}{}

	b.creates = prior.CreatesType()
	b.trace = prior.Trace()
	if b.args.Len() == 0 {
		b.args = prior.Args()
	} else {
		b.args = prior.Args().Concat(b.args)
	}
	if b.ctx == nil {
		b.ctx = prior.Context()
	}
}

func (b *base) construct(kind Kind, types []reflect.Type, values []any) (any, error) {
	event := &ConstructEvent{Owner: b.creates, Kind: kind}
	defer func() {
		b.cfg.observer.OnConstruct(event)
	}()

	if b.creates == nil {
		event.Error = &UnboundTargetError{Types: types}
		return nil, event.Error
	}

	constructor, err := b.registry.Resolve(b.creates, types)
	if err != nil {
		event.Error = err
		return nil, err
	}

	b.cfg.logger.Debug().
		Str("constructor", constructor.String()).
		Str("trace", b.trace).
		Msg("creating")

	start := time.Now()
	result, err := constructor.Call(values)
	event.Duration = time.Since(start)
	if err != nil {
		event.Error = err
		return nil, err
	}

	if traceable, ok := result.(Traceable); ok && b.trace != "" {
		traceable.SetTrace(b.trace)
	}

	return result, nil
}

// Simple builds its target from exactly the accumulated arguments.
type Simple struct {
	base
}

func NewSimple(registry *catalog.Registry, ctx *Context, opts ...Option) *Simple {
	return &Simple{base: newBase(registry, ctx, opts)}
}

func (f *Simple) Kind() Kind { return KindPlain }

func (f *Simple) AddPrior(prior Factory) { f.addPrior(f, prior) }

func (f *Simple) Create() (any, error) {
	types, values := f.args.Slices()
	return f.construct(KindPlain, types, values)
}

package catalog

import (
	"cmp"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// TypeConstructors groups the surviving constructors of one target type.
type TypeConstructors struct {
	Type         reflect.Type
	Constructors []*Constructor
}

// Filter decides whether a constructor takes part in a query.
type Filter func(*Constructor) bool

type resolution struct {
	constructor *Constructor
	err         error
}

// Registry is the catalog of target types known to the generator and the
// runtime. It is populated once at startup and read afterwards; lookups may be
// shared between sessions.
type Registry struct {
	logger zerolog.Logger

	owners       []reflect.Type
	constructors map[reflect.Type][]*Constructor
	deprecated   map[reflect.Type]bool
	names        map[string]reflect.Type

	resolveMu sync.RWMutex
	resolved  map[string]resolution
}

type Option func(*Registry)

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:       zerolog.Nop(),
		constructors: make(map[reflect.Type][]*Constructor),
		deprecated:   make(map[reflect.Type]bool),
		names:        make(map[string]reflect.Type),
		resolved:     make(map[string]resolution),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register describes fn as a constructor of its first result type, naming each
// parameter in order. A constructor whose property count differs from its
// parameter count is rejected and logged; a duplicate property sequence for the
// same owner is ignored.
func (r *Registry) Register(fn any, properties ...string) error {
	constructor, err := describe(fn, properties)
	if err != nil {
		r.logger.Warn().Err(err).Strs("properties", properties).Msg("skipping constructor")
		return err
	}

	owner := constructor.Owner
	existing, known := r.constructors[owner]
	for _, other := range existing {
		if other.Key() == constructor.Key() {
			r.logger.Debug().
				Str("type", TypeName(owner)).
				Str("properties", constructor.Key()).
				Msg("ignoring duplicate constructor")
			return nil
		}
	}

	if !known {
		r.owners = append(r.owners, owner)
	}
	r.constructors[owner] = append(existing, constructor)

	r.RegisterType(owner)
	for _, param := range constructor.Params {
		r.RegisterType(param)
	}

	r.logger.Debug().
		Str("type", TypeName(owner)).
		Str("constructor", constructor.String()).
		Msg("adding constructor")

	r.resolveMu.Lock()
	clear(r.resolved)
	r.resolveMu.Unlock()

	return nil
}

// MustRegister is Register for static registrations that cannot fail.
func (r *Registry) MustRegister(fn any, properties ...string) {
	if err := r.Register(fn, properties...); err != nil {
		panic(err)
	}
}

// RegisterType makes typ resolvable by name through Lookup.
func (r *Registry) RegisterType(typ reflect.Type) {
	for {
		r.names[TypeName(typ)] = typ
		if typ.Kind() != reflect.Ptr && !IsSlice(typ) {
			return
		}
		typ = typ.Elem()
	}
}

// Deprecate excludes typ from subtype queries.
func (r *Registry) Deprecate(typ reflect.Type) {
	r.deprecated[typ] = true
}

// Lookup resolves a descriptor type name to a type, understanding "[]" and "*"
// prefixes and builtin names.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	if typ, ok := r.names[name]; ok {
		return typ, true
	}

	switch {
	case strings.HasPrefix(name, "[]"):
		elem, ok := r.Lookup(name[2:])
		if !ok {
			return nil, false
		}
		return reflect.SliceOf(elem), true
	case strings.HasPrefix(name, "*"):
		elem, ok := r.Lookup(name[1:])
		if !ok {
			return nil, false
		}
		return reflect.PointerTo(elem), true
	}

	typ, ok := builtinTypes[name]
	return typ, ok
}

// Constructors returns every constructor registered for owner, in
// registration order.
func (r *Registry) Constructors(owner reflect.Type) []*Constructor {
	return r.constructors[owner]
}

// SubTypes lists the concrete, exported, non-deprecated types assignable to
// base whose package path matches scope. An empty scope matches everything.
// Types left without constructors after filtering are omitted.
func (r *Registry) SubTypes(base reflect.Type, scope string, filters ...Filter) ([]TypeConstructors, error) {
	if scope != "" && !doublestar.ValidatePattern(scope) {
		return nil, doublestar.ErrBadPattern
	}

	var result []TypeConstructors
	for _, owner := range r.owners {
		if !isConcrete(owner) || !isExported(owner) || r.deprecated[owner] {
			continue
		}
		if !assignable(owner, base) {
			continue
		}

		if scope != "" {
			matched, err := doublestar.Match(scope, PkgPath(owner))
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
		}

		var constructors []*Constructor
		for _, constructor := range r.constructors[owner] {
			if keep(constructor, filters) {
				constructors = append(constructors, constructor)
			}
		}

		if len(constructors) == 0 {
			r.logger.Debug().Str("type", TypeName(owner)).Msg("no constructors left after filtering")
			continue
		}

		result = append(result, TypeConstructors{Type: owner, Constructors: constructors})
	}

	slices.SortFunc(result, func(a, b TypeConstructors) int {
		return cmp.Compare(TypeName(a.Type), TypeName(b.Type))
	})

	return result, nil
}

func keep(constructor *Constructor, filters []Filter) bool {
	for _, filter := range filters {
		if !filter(constructor) {
			return false
		}
	}

	return true
}

// NoReferences keeps constructors that take no parameter assignable to chain,
// counting slice and variadic parameters by their element type.
func NoReferences(chain reflect.Type) Filter {
	return func(c *Constructor) bool {
		count, slices := references(c, chain)
		return count == 0 && slices == 0
	}
}

// MultiReferences keeps constructors taking at least two chain parameters, or
// a slice of them.
func MultiReferences(chain reflect.Type) Filter {
	return func(c *Constructor) bool {
		count, slices := references(c, chain)
		return slices > 0 || count >= 2
	}
}

// references counts the parameters assignable to chain and, separately, the
// slice parameters whose element is.
func references(c *Constructor, chain reflect.Type) (count, slices int) {
	for _, param := range c.Params {
		switch {
		case assignable(param, chain):
			count++
		case IsSlice(param) && assignable(param.Elem(), chain):
			slices++
		}
	}

	return count, slices
}

// Resolve finds the single constructor of owner accepting types in order.
// Answers, including failures, are memoised per (owner, signature).
func (r *Registry) Resolve(owner reflect.Type, types []reflect.Type) (*Constructor, error) {
	key := TypeName(owner) + "(" + typeList(types) + ")"

	r.resolveMu.RLock()
	cached, ok := r.resolved[key]
	r.resolveMu.RUnlock()
	if ok {
		return cached.constructor, cached.err
	}

	var candidates []*Constructor
	for _, constructor := range r.constructors[owner] {
		if constructor.Accepts(types) {
			candidates = append(candidates, constructor)
		}
	}

	var res resolution
	if len(candidates) == 1 {
		res.constructor = candidates[0]
	} else {
		res.err = &ConstructorError{
			Owner:      owner,
			Types:      slices.Clone(types),
			Candidates: candidates,
		}
	}

	r.resolveMu.Lock()
	r.resolved[key] = res
	r.resolveMu.Unlock()

	return res.constructor, res.err
}

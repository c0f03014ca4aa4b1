// Package generator composes fluent API descriptors from the constructors in
// a catalog.
package generator

import (
	"context"
	"reflect"

	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/paramgraph"
	"github.com/rs/zerolog"
	"github.com/stoewer/go-strcase"
	"golang.org/x/sync/errgroup"
)

// DefaultPackageBase is the import path under which generated API packages
// live.
const DefaultPackageBase = "github.com/invakid404/fluid/api"

// Placeholder closes a block group whose base type has no usable subtypes.
const Placeholder = "done"

type Generator struct {
	registry    *catalog.Registry
	scope       string
	packageBase string
	docs        Docs
	trackPath   bool
	logger      zerolog.Logger
}

type Option func(*Generator)

// WithScope restricts subtype queries to packages matching a doublestar
// pattern.
func WithScope(scope string) Option {
	return func(g *Generator) {
		g.scope = scope
	}
}

func WithPackageBase(base string) Option {
	return func(g *Generator) {
		g.packageBase = base
	}
}

func WithDocs(docs Docs) Option {
	return func(g *Generator) {
		g.docs = docs
	}
}

func WithTrackPath(track bool) Option {
	return func(g *Generator) {
		g.trackPath = track
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

func New(registry *catalog.Registry, opts ...Option) *Generator {
	g := &Generator{
		registry:    registry,
		packageBase: DefaultPackageBase,
		docs:        noDocs{},
		trackPath:   true,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Naming derives the opener and terminal method names of a type block.
type Naming func(typ reflect.Type) (opener, terminal string)

// TypeNaming opens a block with the lower camel type name and closes it with
// DefaultTerminal.
func TypeNaming(typ reflect.Type) (string, string) {
	return strcase.LowerCamelCase(catalog.SimpleName(typ)), DefaultTerminal
}

// StartNaming produces startX/createX pairs.
func StartNaming(typ reflect.Type) (string, string) {
	name := catalog.SimpleName(typ)
	return "start" + name, "create" + name
}

type BlockOptions struct {
	Role Role
	// Factory is the descriptor factory role bound to the opener.
	Factory string
	// Mode applies to every opener.
	Mode descriptor.Mode
	// Exclusive hides a leading parameter of one of these types, and drops
	// constructors without one.
	Exclusive []reflect.Type
	Filters   []catalog.Filter
	Naming    Naming
}

// TypeBlocks emits one opener method per subtype of base, in type name order.
// Graphs are built and emitted concurrently.
func (g *Generator) TypeBlocks(ctx context.Context, base reflect.Type, opts BlockOptions) ([]*descriptor.Method, error) {
	types, err := g.registry.SubTypes(base, g.scope, opts.Filters...)
	if err != nil {
		return nil, err
	}
	if opts.Naming == nil {
		opts.Naming = TypeNaming
	}

	openers := make([]*descriptor.Method, len(types))

	eg, ctx := errgroup.WithContext(ctx)
	for i, tc := range types {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			opener, err := g.typeBlock(tc, opts)
			if err != nil {
				return err
			}
			openers[i] = opener

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := openers[:0]
	for _, opener := range openers {
		if opener != nil {
			result = append(result, opener)
		}
	}

	return result, nil
}

func (g *Generator) typeBlock(tc catalog.TypeConstructors, opts BlockOptions) (*descriptor.Method, error) {
	graph, err := paramgraph.Build(tc.Constructors,
		paramgraph.WithTrackPath(g.trackPath),
		paramgraph.WithExclusivePrefix(opts.Exclusive...),
		paramgraph.WithLogger(g.logger),
	)
	if err != nil {
		return nil, err
	}
	if graph.EdgeCount() == 0 {
		g.logger.Debug().Str("type", catalog.TypeName(tc.Type)).Msg("no usable constructors")
		return nil, nil
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	opener, terminal := opts.Naming(tc.Type)

	block := Emit(graph, tc.Type, EmitOptions{
		Role:     opts.Role,
		Terminal: terminal,
		Docs:     g.docs,
		Logger:   g.logger,
	})

	return &descriptor.Method{
		Signature: descriptor.Signature{Name: opener},
		Mode:      opts.Mode,
		Meta: &descriptor.Meta{
			Factory: opts.Factory,
			Creates: catalog.TypeName(tc.Type),
			Method:  signatureOf(tc),
		},
		Block: block,
		Doc:   block.Doc,
	}, nil
}

// SubTypeBlocks adds the openers of TypeBlocks to parent. When base has no
// usable subtypes the placeholder method is added instead, so parent still
// closes.
func (g *Generator) SubTypeBlocks(ctx context.Context, parent *descriptor.Block, base reflect.Type, opts BlockOptions) error {
	openers, err := g.TypeBlocks(ctx, base, opts)
	if err != nil {
		return err
	}

	if len(openers) == 0 {
		g.logger.Warn().Str("base", catalog.TypeName(base)).Msg("no subtypes found, adding placeholder")
		parent.Add(&descriptor.Method{
			Signature: descriptor.Signature{Name: Placeholder},
			Mode:      descriptor.Last(),
		})

		return nil
	}

	for _, opener := range openers {
		parent.Add(opener)
	}

	return nil
}

func (g *Generator) packagePath(name string) string {
	return g.packageBase + "/" + name
}

// signatureOf renders the primary constructor of tc, the one registered
// first.
func signatureOf(tc catalog.TypeConstructors) string {
	if len(tc.Constructors) == 0 {
		return catalog.SimpleName(tc.Type) + "()"
	}

	return tc.Constructors[0].String()
}

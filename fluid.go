// Package fluid wires the pipe catalog, its descriptors and the interpreters
// behind the generated builders into one Runtime.
package fluid

import (
	"context"
	"fmt"

	"github.com/invakid404/fluid/assembly"
	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/factory"
	"github.com/invakid404/fluid/generator"
	"github.com/invakid404/fluid/pipe"
	"github.com/invakid404/fluid/proxy"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type config struct {
	registry      *catalog.Registry
	logger        zerolog.Logger
	generatorOpts []generator.Option
	proxyOpts     []proxy.Option
}

type Option func(*config)

// WithRegistry replaces the default pipe catalog.
func WithRegistry(registry *catalog.Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithObserver(observer factory.Observer) Option {
	return func(c *config) {
		c.proxyOpts = append(c.proxyOpts, proxy.WithObserver(observer))
	}
}

func WithGeneratorOptions(opts ...generator.Option) Option {
	return func(c *config) {
		c.generatorOpts = append(c.generatorOpts, opts...)
	}
}

// Runtime holds one interpreter per descriptor. It is safe to share between
// goroutines as long as every goroutine runs its own sessions and chains.
type Runtime struct {
	registry      *catalog.Registry
	descriptors   []*descriptor.Descriptor
	assembly      *proxy.Interpreter
	operations    *proxy.Interpreter
	subAssemblies *proxy.Interpreter
}

// New composes the descriptors from the catalog and compiles them.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	cfg := &config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	registry := cfg.registry
	if registry == nil {
		var err error
		registry, err = pipe.NewRegistry(catalog.WithLogger(cfg.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to build the pipe catalog: %w", err)
		}
	}

	g := generator.New(registry, append([]generator.Option{generator.WithLogger(cfg.logger)}, cfg.generatorOpts...)...)

	descriptors, err := Describe(ctx, g)
	if err != nil {
		return nil, err
	}

	tables := make([]*proxy.Table, len(descriptors))
	for i, d := range descriptors {
		table, err := proxy.Compile(d, registry)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", d.Name(), err)
		}
		tables[i] = table
	}

	proxyOpts := append([]proxy.Option{proxy.WithLogger(cfg.logger)}, cfg.proxyOpts...)

	return &Runtime{
		registry:      registry,
		descriptors:   descriptors,
		assembly:      assembly.NewInterpreter(registry, tables[0], proxyOpts...),
		operations:    proxy.New(registry, tables[1], proxyOpts...),
		subAssemblies: proxy.New(registry, tables[2], proxyOpts...),
	}, nil
}

// Describe composes the assembly, operation and sub-assembly descriptors, in
// that order.
func Describe(ctx context.Context, g *generator.Generator) ([]*descriptor.Descriptor, error) {
	composers := []func(context.Context) (*descriptor.Descriptor, error){
		g.Assembly,
		g.Operations,
		g.SubAssemblies,
	}

	descriptors := make([]*descriptor.Descriptor, len(composers))

	eg, ctx := errgroup.WithContext(ctx)
	for i, compose := range composers {
		eg.Go(func() error {
			d, err := compose(ctx)
			if err != nil {
				return err
			}
			descriptors[i] = d

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return descriptors, nil
}

func (r *Runtime) Registry() *catalog.Registry {
	return r.registry
}

// Descriptors returns the assembly, operation and sub-assembly descriptors.
func (r *Runtime) Descriptors() []*descriptor.Descriptor {
	return r.descriptors
}

// Assembly opens a new assembly session.
func (r *Runtime) Assembly() *assembly.Session {
	return assembly.Start(r.assembly)
}

// Operation returns the root of a new operation chain.
func (r *Runtime) Operation() *proxy.Proxy {
	return r.operations.Root(generator.OperationRoot, nil)
}

// SubAssembly returns the root of a new partial aggregation chain.
func (r *Runtime) SubAssembly() *proxy.Proxy {
	return r.subAssemblies.Root(generator.SubAssemblyRoot, nil)
}

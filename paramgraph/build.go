package paramgraph

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/invakid404/fluid/catalog"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"
)

type config struct {
	trackPath bool
	exclusive []reflect.Type
	logger    zerolog.Logger
}

type Option func(*config)

// WithTrackPath controls whether a vertex is keyed by the path leading to it.
// When disabled, equal (property, type) pairs merge wherever they occur.
func WithTrackPath(track bool) Option {
	return func(c *config) {
		c.trackPath = track
	}
}

// WithExclusivePrefix restricts the graph to constructors whose first
// parameter has one of types. That parameter is consumed implicitly and gets
// no vertex.
func WithExclusivePrefix(types ...reflect.Type) Option {
	return func(c *config) {
		c.exclusive = append(c.exclusive, types...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

type vertexKey struct {
	Prefix   string
	Property string
	Type     string
}

func vertexID(prefix, property string, typ reflect.Type) (string, error) {
	hash, err := hashstructure.Hash(vertexKey{
		Prefix:   prefix,
		Property: property,
		Type:     catalog.TypeName(typ),
	}, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("paramgraph: hashing %s: %w", property, err)
	}

	return fmt.Sprintf("%016x", hash), nil
}

// Build merges constructors into a single graph. Constructors with an equal
// property sequence contribute once.
func Build(constructors []*catalog.Constructor, opts ...Option) (*Graph, error) {
	cfg := config{
		trackPath: true,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := newGraph()
	seen := make(map[string]bool)

	for _, constructor := range constructors {
		if seen[constructor.Key()] {
			continue
		}
		seen[constructor.Key()] = true

		params := constructor.Params
		properties := constructor.Properties

		if len(cfg.exclusive) > 0 {
			if len(params) == 0 || !slices.Contains(cfg.exclusive, params[0]) {
				cfg.logger.Trace().
					Str("constructor", constructor.String()).
					Msg("skipping constructor without exclusive prefix")
				continue
			}
			params = params[1:]
			properties = properties[1:]
		}

		last := Begin
		for i, param := range params {
			prefix := ""
			if cfg.trackPath {
				prefix = last.ID
			}

			id, err := vertexID(prefix, properties[i], param)
			if err != nil {
				return nil, err
			}

			current := g.addVertex(&Vertex{
				ID:          id,
				Prefix:      prefix,
				Property:    properties[i],
				Type:        param,
				Constructor: constructor,
			})
			g.addEdge(last, current)
			last = current
		}

		g.addEdge(last, End)
	}

	return g, nil
}

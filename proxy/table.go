package proxy

import (
	"fmt"
	"reflect"

	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/factory"
)

// Meta says what a method constructs.
type Meta struct {
	Factory      factory.Kind
	Creates      reflect.Type
	Method       string
	CreateOnNext bool
}

// MethodSpec is everything the interpreter knows about one generated method.
// Params holds the declared type of each plain (non-slot) argument.
type MethodSpec struct {
	ID     string
	Name   string
	Params []reflect.Type
	Meta   *Meta
}

// Table maps method IDs to their specs.
type Table struct {
	methods map[string]MethodSpec
}

func NewTable(specs ...MethodSpec) *Table {
	t := &Table{methods: make(map[string]MethodSpec, len(specs))}
	for _, spec := range specs {
		t.methods[spec.ID] = spec
	}

	return t
}

func (t *Table) Lookup(id string) (MethodSpec, bool) {
	spec, ok := t.methods[id]
	return spec, ok
}

func (t *Table) Len() int {
	return len(t.methods)
}

// Compile builds the table for a descriptor, resolving type names through
// registry. It yields the same specs as the literal table rendered into
// generated code.
func Compile(d *descriptor.Descriptor, registry *catalog.Registry) (*Table, error) {
	var specs []MethodSpec

	err := d.Root.Walk(func(b *descriptor.Block) error {
		for _, m := range b.Methods {
			spec, err := compileMethod(b, m, registry)
			if err != nil {
				return err
			}
			specs = append(specs, spec)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return NewTable(specs...), nil
}

func compileMethod(b *descriptor.Block, m *descriptor.Method, registry *catalog.Registry) (MethodSpec, error) {
	id := descriptor.MethodID(b.Name, m.ID)
	spec := MethodSpec{ID: id, Name: m.Signature.Name}

	for _, name := range m.Signature.ParamTypes() {
		typ, ok := registry.Lookup(name)
		if !ok {
			return MethodSpec{}, &UnknownTypeError{Method: id, Type: name}
		}
		spec.Params = append(spec.Params, typ)
	}

	if m.Meta != nil {
		kind, err := factory.ParseKind(m.Meta.Factory)
		if err != nil {
			return MethodSpec{}, fmt.Errorf("%s: %w", id, err)
		}

		creates, ok := registry.Lookup(m.Meta.Creates)
		if !ok {
			return MethodSpec{}, &UnknownTypeError{Method: id, Type: m.Meta.Creates}
		}

		spec.Meta = &Meta{
			Factory:      kind,
			Creates:      creates,
			Method:       m.Meta.Method,
			CreateOnNext: m.Meta.CreateOnNext,
		}
	}

	return spec, nil
}

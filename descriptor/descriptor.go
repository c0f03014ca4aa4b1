// Package descriptor holds the serializable model of a generated fluent API:
// a tree of blocks whose methods say how a call moves the chain and what the
// runtime should construct.
package descriptor

import (
	"fmt"
	"strings"

	"github.com/stoewer/go-strcase"
)

// FormatVersion is written into every descriptor. Readers accept any
// descriptor with the same major version.
const FormatVersion = "v1.2.0"

// Factory roles.
const (
	FactoryNone  = ""
	FactoryPlain = "factory"
	FactoryPipe  = "pipe"
)

// ModeKind says how often a method may be called within its block.
type ModeKind string

const (
	// ModeAny methods may be called repeatedly and keep the block open.
	ModeAny ModeKind = "any"
	// ModeLast methods close their block and return to the enclosing one.
	ModeLast ModeKind = "last"
	// ModeAfter methods only become callable once a method of Group was called.
	ModeAfter ModeKind = "after"
)

type Mode struct {
	Kind  ModeKind `yaml:"kind" json:"kind"`
	Group int      `yaml:"group,omitempty" json:"group,omitempty"`
}

func Any(group int) Mode { return Mode{Kind: ModeAny, Group: group} }
func Last() Mode { return Mode{Kind: ModeLast} }
func After(group int) Mode { return Mode{Kind: ModeAfter, Group: group} }

func (m Mode) String() string {
	switch m.Kind {
	case ModeAfter:
		return fmt.Sprintf("after(%d)", m.Group)
	case ModeAny:
		if m.Group != 0 {
			return fmt.Sprintf("any(%d)", m.Group)
		}
	}

	return string(m.Kind)
}

// Meta tells the runtime what a method constructs.
type Meta struct {
	Factory      string `yaml:"factory" json:"factory"`
	Creates      string `yaml:"creates" json:"creates"`
	Method       string `yaml:"method" json:"method"`
	CreateOnNext bool   `yaml:"createOnNext,omitempty" json:"createOnNext,omitempty"`
}

// Method is one call available in a block. A method either stays in its block,
// starts a nested Block, starts the named block Ref, or (when Returns is set)
// ends the chain with a value.
type Method struct {
	ID        string    `yaml:"id" json:"id"`
	Signature Signature `yaml:"signature" json:"signature"`
	Mode      Mode      `yaml:"mode" json:"mode"`
	Meta      *Meta     `yaml:"meta,omitempty" json:"meta,omitempty"`
	Returns   string    `yaml:"returns,omitempty" json:"returns,omitempty"`
	Block     *Block    `yaml:"block,omitempty" json:"block,omitempty"`
	Ref       string    `yaml:"ref,omitempty" json:"ref,omitempty"`
	Doc       string    `yaml:"doc,omitempty" json:"doc,omitempty"`
}

// Starts names the block this method opens, if any.
func (m *Method) Starts() string {
	if m.Block != nil {
		return m.Block.Name
	}

	return m.Ref
}

// Terminal reports whether the method ends the chain with a value.
func (m *Method) Terminal() bool {
	return m.Returns != ""
}

type Block struct {
	Name    string    `yaml:"name" json:"name"`
	Doc     string    `yaml:"doc,omitempty" json:"doc,omitempty"`
	Methods []*Method `yaml:"methods" json:"methods"`
}

func NewBlock(name string) *Block {
	return &Block{Name: name}
}

// Add appends m, deriving an ID unique within the block. Go has no
// overloading, so a repeated name gets its parameter names appended.
func (b *Block) Add(m *Method) *Method {
	id := m.Signature.Name
	if b.Method(id) != nil {
		var suffix strings.Builder
		for _, param := range m.Signature.Params {
			suffix.WriteString(strcase.UpperCamelCase(param.Name))
		}
		id += suffix.String()
	}
	for n := 2; b.Method(id) != nil; n++ {
		id = fmt.Sprintf("%s%d", m.Signature.Name, n)
	}

	m.ID = id
	b.Methods = append(b.Methods, m)

	return m
}

// Method finds a method by ID.
func (b *Block) Method(id string) *Method {
	for _, m := range b.Methods {
		if m.ID == id {
			return m
		}
	}

	return nil
}

// Walk visits b and every nested block depth-first, stopping at the first
// error.
func (b *Block) Walk(fn func(*Block) error) error {
	if err := fn(b); err != nil {
		return err
	}

	for _, m := range b.Methods {
		if m.Block == nil {
			continue
		}
		if err := m.Block.Walk(fn); err != nil {
			return err
		}
	}

	return nil
}

// Descriptor is one generated API: the root block plus where its Go code goes.
type Descriptor struct {
	Version string `yaml:"version" json:"version"`
	Package string `yaml:"package" json:"package"`
	Start   string `yaml:"start" json:"start"`
	Root    *Block `yaml:"root" json:"root"`
}

func New(pkg, name, start string) *Descriptor {
	return &Descriptor{
		Version: FormatVersion,
		Package: pkg,
		Start:   start,
		Root:    NewBlock(name),
	}
}

// Name is the root block name.
func (d *Descriptor) Name() string {
	return d.Root.Name
}

// Blocks indexes every block of the tree by name.
func (d *Descriptor) Blocks() map[string]*Block {
	blocks := make(map[string]*Block)
	_ = d.Root.Walk(func(b *Block) error {
		blocks[b.Name] = b
		return nil
	})

	return blocks
}

// MethodID is the fully qualified ID the runtime dispatches on.
func MethodID(block, method string) string {
	return block + "." + method
}

package generator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Docs supplies documentation for emitted methods. Lookups never fail; a
// missing entry yields "".
type Docs interface {
	TypeDoc(typeName string) string
	// ConstructorDoc documents one constructor of typeName, falling back to
	// the type's own documentation.
	ConstructorDoc(typeName, constructor string) string
}

// TypeDocs is the documentation of one type and its constructors, keyed by
// qualified constructor function name.
type TypeDocs struct {
	Doc          string            `yaml:"doc"`
	Constructors map[string]string `yaml:"constructors,omitempty"`
}

// DocSet is a Docs backed by a map from qualified type name to TypeDocs.
type DocSet map[string]TypeDocs

func (d DocSet) TypeDoc(typeName string) string {
	return d[typeName].Doc
}

func (d DocSet) ConstructorDoc(typeName, constructor string) string {
	info, ok := d[typeName]
	if !ok {
		return ""
	}
	if doc, ok := info.Constructors[constructor]; ok {
		return doc
	}

	return info.Doc
}

// Merge copies other into d. Entries of other win.
func (d DocSet) Merge(other DocSet) {
	for name, info := range other {
		d[name] = info
	}
}

// LoadDocs reads a DocSet from a YAML file.
func LoadDocs(path string) (DocSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read docs: %w", err)
	}

	docs := DocSet{}
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse docs %s: %w", path, err)
	}

	return docs, nil
}

type noDocs struct{}

func (noDocs) TypeDoc(string) string                { return "" }
func (noDocs) ConstructorDoc(string, string) string { return "" }

package pipe

import "strings"

// Fields selects tuple fields by name.
type Fields struct {
	names []string
}

var (
	All     = Fields{names: []string{"*"}}
	Results = Fields{names: []string{"$results"}}
)

func NewFields(names ...string) Fields {
	return Fields{names: append([]string(nil), names...)}
}

func (f Fields) Names() []string {
	return f.names
}

func (f Fields) Len() int {
	return len(f.names)
}

func (f Fields) String() string {
	return "[" + strings.Join(f.names, ", ") + "]"
}

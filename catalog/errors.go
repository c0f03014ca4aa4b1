package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrMalformed             = errors.New("catalog: malformed constructor")
	ErrNoConstructor         = errors.New("catalog: no matching constructor")
	ErrAmbiguousConstructor  = errors.New("catalog: ambiguous constructor")
	ErrConstructionFailed    = errors.New("catalog: construction failed")
	ErrNotAFunction          = errors.New("catalog: constructor is not a function")
	ErrInvalidConstructorOut = errors.New("catalog: constructor must return T or (T, error)")
)

// MalformedError is returned when a constructor's property names do not line
// up with its parameters.
type MalformedError struct {
	Owner      reflect.Type
	Properties []string
	Params     int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("catalog: constructor for %s declares %d properties for %d parameters",
		TypeName(e.Owner), len(e.Properties), e.Params)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// ConstructorError is returned when no single constructor of Owner accepts
// the accumulated argument types.
type ConstructorError struct {
	Owner      reflect.Type
	Types      []reflect.Type
	Candidates []*Constructor
}

// Ambiguous reports whether more than one constructor matched.
func (e *ConstructorError) Ambiguous() bool {
	return len(e.Candidates) > 1
}

func (e *ConstructorError) Error() string {
	if e.Ambiguous() {
		signatures := make([]string, 0, len(e.Candidates))
		for _, candidate := range e.Candidates {
			signatures = append(signatures, candidate.String())
		}

		return fmt.Sprintf("catalog: %d constructors of %s accept (%s): %s",
			len(e.Candidates), TypeName(e.Owner), typeList(e.Types), strings.Join(signatures, "; "))
	}

	return fmt.Sprintf("catalog: no constructor of %s accepts (%s)", TypeName(e.Owner), typeList(e.Types))
}

func (e *ConstructorError) Unwrap() error {
	if e.Ambiguous() {
		return ErrAmbiguousConstructor
	}

	return ErrNoConstructor
}

// TargetError wraps a failure raised by the target constructor itself.
type TargetError struct {
	Owner reflect.Type
	Types []reflect.Type
	Cause error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("catalog: constructing %s(%s): %v", TypeName(e.Owner), typeList(e.Types), e.Cause)
}

func (e *TargetError) Unwrap() []error {
	return []error{ErrConstructionFailed, e.Cause}
}

func typeList(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, typ := range types {
		if typ == nil {
			names[i] = "nil"
			continue
		}
		names[i] = TypeName(typ)
	}

	return strings.Join(names, ", ")
}

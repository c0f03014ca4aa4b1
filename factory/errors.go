package factory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/invakid404/fluid/catalog"
)

var (
	ErrUnboundTarget = errors.New("factory: no target type bound")
	ErrUnnamedResult = errors.New("factory: pipe result has no name")
	ErrUnknownKind   = errors.New("factory: unknown factory kind")
)

// UnboundTargetError is returned by Create when no call ever bound a target
// type to the factory.
type UnboundTargetError struct {
	Types []reflect.Type
}

func (e *UnboundTargetError) Error() string {
	return fmt.Sprintf("%v (accumulated arguments: %s)", ErrUnboundTarget, typeNames(e.Types))
}

func (e *UnboundTargetError) Unwrap() error {
	return ErrUnboundTarget
}

// UnnamedResultError is returned when a pipe factory builds an object that
// does not implement Named and so cannot become a branch tail.
type UnnamedResultError struct {
	Type reflect.Type
}

func (e *UnnamedResultError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnnamedResult, catalog.TypeName(e.Type))
}

func (e *UnnamedResultError) Unwrap() error {
	return ErrUnnamedResult
}

func typeNames(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, typ := range types {
		if typ == nil {
			names[i] = "nil"
			continue
		}
		names[i] = catalog.TypeName(typ)
	}

	return "(" + strings.Join(names, ", ") + ")"
}

package codegen

import (
	"fmt"
	"go/token"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"
)

// typeCode renders a descriptor type name ("[]*pkg/path.Name" or a builtin)
// as a jennifer statement.
func typeCode(name string) (*jen.Statement, error) {
	var ops []string
	for {
		if rest, ok := strings.CutPrefix(name, "[]"); ok {
			ops = append(ops, "[]")
			name = rest
		} else if rest, ok := strings.CutPrefix(name, "*"); ok {
			ops = append(ops, "*")
			name = rest
		} else {
			break
		}
	}

	if name == "" {
		return nil, fmt.Errorf("%w: empty type name", ErrInvalidType)
	}

	var statement *jen.Statement
	switch lastDot := strings.LastIndex(name, "."); {
	case name == "any":
		statement = jen.Any()
	case lastDot == -1:
		if !token.IsIdentifier(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, name)
		}
		statement = jen.Id(name)
	default:
		pkgPath, ident := name[:lastDot], name[lastDot+1:]
		if pkgPath == "" || !token.IsIdentifier(ident) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, name)
		}
		statement = jen.Qual(pkgPath, ident)
	}

	for _, op := range slices.Backward(ops) {
		statement = jen.Op(op).Add(statement)
	}

	return statement, nil
}

// reserved names are taken by the receiver and locals of generated methods.
var reserved = map[string]bool{
	"b":       true,
	"slot":    true,
	"value":   true,
	"err":     true,
	"result":  true,
	"proxy":   true,
	"factory": true,
	"reflect": true,
}

// paramName turns a descriptor property into a usable Go identifier.
func paramName(name string) string {
	if token.IsKeyword(name) || reserved[name] {
		return name + "_"
	}

	return name
}

package catalog

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

var builtinTypes = map[string]reflect.Type{
	"any":     reflect.TypeFor[any](),
	"bool":    reflect.TypeFor[bool](),
	"error":   reflect.TypeFor[error](),
	"float32": reflect.TypeFor[float32](),
	"float64": reflect.TypeFor[float64](),
	"int":     reflect.TypeFor[int](),
	"int32":   reflect.TypeFor[int32](),
	"int64":   reflect.TypeFor[int64](),
	"string":  reflect.TypeFor[string](),
	"uint":    reflect.TypeFor[uint](),
	"uint64":  reflect.TypeFor[uint64](),
}

// TypeName renders typ as "[]*pkg/path.Name", the form used by descriptors.
func TypeName(typ reflect.Type) string {
	var ops strings.Builder
	for {
		if typ.Kind() == reflect.Ptr {
			ops.WriteString("*")
			typ = typ.Elem()
		} else if typ.Kind() == reflect.Slice && typ.Name() == "" {
			ops.WriteString("[]")
			typ = typ.Elem()
		} else {
			break
		}
	}

	name := typ.Name()
	if name == "" {
		if typ.Kind() == reflect.Interface && typ.NumMethod() == 0 {
			name = "any"
		} else {
			name = typ.String()
		}
	}

	if pkgPath := typ.PkgPath(); pkgPath != "" {
		return ops.String() + pkgPath + "." + name
	}

	return ops.String() + name
}

// SimpleName is the bare type name without package path or pointer/slice ops.
func SimpleName(typ reflect.Type) string {
	for typ.Kind() == reflect.Ptr || (typ.Kind() == reflect.Slice && typ.Name() == "") {
		typ = typ.Elem()
	}

	return typ.Name()
}

// PkgPath returns the package path of the named type underneath typ.
func PkgPath(typ reflect.Type) string {
	for typ.Kind() == reflect.Ptr || (typ.Kind() == reflect.Slice && typ.Name() == "") {
		typ = typ.Elem()
	}

	return typ.PkgPath()
}

func isExported(typ reflect.Type) bool {
	name := SimpleName(typ)
	if name == "" {
		return false
	}

	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func isConcrete(typ reflect.Type) bool {
	return typ.Kind() != reflect.Interface
}

// IsSlice reports whether typ is an unnamed slice type.
func IsSlice(typ reflect.Type) bool {
	return typ.Kind() == reflect.Slice && typ.Name() == ""
}

func assignable(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}

	return from.AssignableTo(to)
}

package catalog

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	recovery "github.com/gregwebs/go-recovery"
)

var errorType = reflect.TypeFor[error]()

// Constructor describes one way of building Owner: a function together with
// the ordered property name of every parameter.
type Constructor struct {
	Owner      reflect.Type
	Properties []string
	Params     []reflect.Type
	Variadic   bool

	fn        reflect.Value
	returnErr bool
}

func describe(fn any, properties []string) (*Constructor, error) {
	if fn == nil {
		return nil, ErrNotAFunction
	}

	value := reflect.ValueOf(fn)
	fnType := value.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrNotAFunction, fnType)
	}

	switch {
	case fnType.NumOut() == 1:
	case fnType.NumOut() == 2 && fnType.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidConstructorOut, fnType)
	}

	owner := fnType.Out(0)
	if fnType.NumIn() != len(properties) {
		return nil, &MalformedError{Owner: owner, Properties: properties, Params: fnType.NumIn()}
	}

	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}

	return &Constructor{
		Owner:      owner,
		Properties: append([]string(nil), properties...),
		Params:     params,
		Variadic:   fnType.IsVariadic(),
		fn:         value,
		returnErr:  fnType.NumOut() == 2,
	}, nil
}

// Key identifies the constructor by its property sequence. Two constructors of
// the same owner with equal keys are duplicates.
func (c *Constructor) Key() string {
	return strings.Join(c.Properties, ",")
}

// Name is the qualified name of the constructor function, for example
// "github.com/invakid404/fluid/pipe.NewHead". Closures get compiler names.
func (c *Constructor) Name() string {
	if f := runtime.FuncForPC(c.fn.Pointer()); f != nil {
		return f.Name()
	}

	return ""
}

// Accepts reports whether every type in types is assignable to the parameter at
// the same position.
func (c *Constructor) Accepts(types []reflect.Type) bool {
	if len(types) != len(c.Params) {
		return false
	}

	for i, typ := range types {
		if !assignable(typ, c.Params[i]) {
			return false
		}
	}

	return true
}

// Call invokes the constructor. A variadic last parameter receives its values
// as one slice. Errors returned or panics raised by the function are wrapped
// in a TargetError. There is no timeout: a constructor that blocks blocks the
// caller.
func (c *Constructor) Call(values []any) (result any, err error) {
	if len(values) != len(c.Params) {
		return nil, &ConstructorError{Owner: c.Owner, Types: typesOf(values)}
	}

	in := make([]reflect.Value, len(values))
	for i, value := range values {
		if value == nil {
			in[i] = reflect.Zero(c.Params[i])
			continue
		}
		in[i] = reflect.ValueOf(value)
	}

	var out []reflect.Value
	panicErr := recovery.Call(func() error {
		if c.Variadic {
			out = c.fn.CallSlice(in)
		} else {
			out = c.fn.Call(in)
		}

		return nil
	})
	if panicErr != nil {
		return nil, &TargetError{Owner: c.Owner, Types: c.Params, Cause: panicErr}
	}

	if c.returnErr && !out[1].IsNil() {
		return nil, &TargetError{Owner: c.Owner, Types: c.Params, Cause: out[1].Interface().(error)}
	}

	return out[0].Interface(), nil
}

func (c *Constructor) String() string {
	params := make([]string, len(c.Params))
	for i, param := range c.Params {
		prefix := ""
		if c.Variadic && i == len(c.Params)-1 {
			prefix = "..."
			param = param.Elem()
		}
		params[i] = c.Properties[i] + " " + prefix + TypeName(param)
	}

	return SimpleName(c.Owner) + "(" + strings.Join(params, ", ") + ")"
}

func typesOf(values []any) []reflect.Type {
	types := make([]reflect.Type, len(values))
	for i, value := range values {
		types[i] = reflect.TypeOf(value)
	}

	return types
}

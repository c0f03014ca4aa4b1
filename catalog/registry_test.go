package catalog

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type shape interface {
	Area() float64
}

type Square struct{ side float64 }

func (s *Square) Area() float64 { return s.side * s.side }

type Rect struct {
	w, h  float64
	label any
}

func (r *Rect) Area() float64 { return r.w * r.h }

type Group struct{ members []shape }

func (g *Group) Area() float64 { return 0 }

type hidden struct{}

func (*hidden) Area() float64 { return 0 }

type Brittle struct{}

func (*Brittle) Area() float64 { return 0 }

var errTooSmall = errors.New("too small")

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry()
	r.MustRegister(func(side float64) *Square { return &Square{side} }, "side")
	r.MustRegister(func(w, h float64) *Rect { return &Rect{w: w, h: h} }, "width", "height")
	r.MustRegister(func(w float64, label string) *Rect { return &Rect{w: w, label: label} }, "width", "label")
	r.MustRegister(func(w float64, inner shape) *Rect { return &Rect{w: w, label: inner} }, "width", "inner")
	r.MustRegister(func(w float64, square *Square) *Rect { return &Rect{w: w, label: square} }, "width", "square")
	r.MustRegister(func(first, second shape) *Group { return &Group{[]shape{first, second}} }, "first", "second")
	r.MustRegister(func(members ...shape) *Group { return &Group{members} }, "members")
	r.MustRegister(func() *hidden { return &hidden{} })
	r.MustRegister(func(side float64) (*Brittle, error) {
		if side < 1 {
			return nil, errTooSmall
		}
		if side > 100 {
			panic("way too big")
		}
		return &Brittle{}, nil
	}, "side")

	return r
}

func TestRegisterRejectsMalformed(t *testing.T) {
	r := NewRegistry()

	err := r.Register(func(w, h float64) *Rect { return nil }, "width")
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected errors.Is(err, ErrMalformed)")
	}
	if malformed.Params != 2 || len(malformed.Properties) != 1 {
		t.Errorf("unexpected error contents: %+v", malformed)
	}

	if got := r.Constructors(reflect.TypeFor[*Rect]()); len(got) != 0 {
		t.Errorf("malformed constructor was registered: %v", got)
	}

	if err := r.Register(nil); !errors.Is(err, ErrNotAFunction) {
		t.Errorf("expected ErrNotAFunction, got %v", err)
	}
	if err := r.Register(func() (*Rect, string) { return nil, "" }); !errors.Is(err, ErrInvalidConstructorOut) {
		t.Errorf("expected ErrInvalidConstructorOut, got %v", err)
	}
}

func TestRegisterDeduplicatesByProperties(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(func(side float64) *Square { return &Square{side} }, "side")
	r.MustRegister(func(side float64) *Square { return &Square{side * 2} }, "side")

	constructors := r.Constructors(reflect.TypeFor[*Square]())
	if len(constructors) != 1 {
		t.Fatalf("expected 1 constructor, got %d", len(constructors))
	}

	value, err := constructors[0].Call([]any{2.0})
	if err != nil {
		t.Fatal(err)
	}
	if value.(*Square).side != 2 {
		t.Errorf("first registration should win")
	}
}

func TestSubTypes(t *testing.T) {
	r := newTestRegistry(t)
	base := reflect.TypeFor[shape]()

	tests := []struct {
		name    string
		scope   string
		filters []Filter
		want    []string
	}{
		{
			name: "all exported subtypes sorted by name",
			want: []string{"Brittle", "Group", "Rect", "Square"},
		},
		{
			name:  "scope matches package",
			scope: "github.com/invakid404/fluid/**",
			want:  []string{"Brittle", "Group", "Rect", "Square"},
		},
		{
			name:  "scope excludes package",
			scope: "example.com/**",
			want:  nil,
		},
		{
			name:    "no references drops groups",
			filters: []Filter{NoReferences(base)},
			want:    []string{"Brittle", "Rect", "Square"},
		},
		{
			name:    "multi references keeps groups only",
			filters: []Filter{MultiReferences(base)},
			want:    []string{"Group"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, err := r.SubTypes(base, tt.scope, tt.filters...)
			if err != nil {
				t.Fatal(err)
			}

			var got []string
			for _, entry := range types {
				got = append(got, SimpleName(entry.Type))
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SubTypes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubTypesSkipsDeprecated(t *testing.T) {
	r := newTestRegistry(t)
	r.Deprecate(reflect.TypeFor[*Brittle]())

	types, err := r.SubTypes(reflect.TypeFor[shape](), "")
	if err != nil {
		t.Fatal(err)
	}

	for _, entry := range types {
		if entry.Type == reflect.TypeFor[*Brittle]() {
			t.Errorf("deprecated type returned")
		}
	}
}

func TestSubTypesBadScope(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.SubTypes(reflect.TypeFor[shape](), "[unterminated"); err == nil {
		t.Errorf("expected pattern error")
	}
}

func TestResolve(t *testing.T) {
	r := newTestRegistry(t)
	float := reflect.TypeFor[float64]()
	str := reflect.TypeFor[string]()
	square := reflect.TypeFor[*Square]()

	t.Run("unique match round trips", func(t *testing.T) {
		constructor, err := r.Resolve(reflect.TypeFor[*Rect](), []reflect.Type{float, float})
		if err != nil {
			t.Fatal(err)
		}

		value, err := constructor.Call([]any{2.0, 3.0})
		if err != nil {
			t.Fatal(err)
		}
		if value.(*Rect).Area() != 6 {
			t.Errorf("unexpected area %v", value.(*Rect).Area())
		}
	})

	t.Run("two assignable constructors are ambiguous", func(t *testing.T) {
		_, err := r.Resolve(reflect.TypeFor[*Rect](), []reflect.Type{float, square})

		var ctorErr *ConstructorError
		if !errors.As(err, &ctorErr) {
			t.Fatalf("expected ConstructorError, got %v", err)
		}
		if !ctorErr.Ambiguous() || len(ctorErr.Candidates) != 2 {
			t.Errorf("expected 2 candidates, got %d", len(ctorErr.Candidates))
		}
		if !errors.Is(err, ErrAmbiguousConstructor) {
			t.Errorf("expected ErrAmbiguousConstructor")
		}
		if !strings.Contains(err.Error(), "Square") {
			t.Errorf("error should name the argument types: %v", err)
		}
	})

	t.Run("ambiguity is stable across lookups", func(t *testing.T) {
		for range 3 {
			_, err := r.Resolve(reflect.TypeFor[*Rect](), []reflect.Type{float, square})
			if !errors.Is(err, ErrAmbiguousConstructor) {
				t.Fatalf("expected ambiguity, got %v", err)
			}
		}
	})

	t.Run("interface parameters accept implementations", func(t *testing.T) {
		constructor, err := r.Resolve(reflect.TypeFor[*Group](), []reflect.Type{square, square})
		if err != nil {
			t.Fatal(err)
		}
		if constructor.Key() != "first,second" {
			t.Errorf("resolved %s", constructor.Key())
		}
	})

	t.Run("variadic takes a slice", func(t *testing.T) {
		constructor, err := r.Resolve(reflect.TypeFor[*Group](), []reflect.Type{reflect.TypeFor[[]shape]()})
		if err != nil {
			t.Fatal(err)
		}

		value, err := constructor.Call([]any{[]shape{&Square{1}, &Square{2}, &Square{3}}})
		if err != nil {
			t.Fatal(err)
		}
		if len(value.(*Group).members) != 3 {
			t.Errorf("expected 3 members")
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := r.Resolve(square, []reflect.Type{str})
		if !errors.Is(err, ErrNoConstructor) {
			t.Errorf("expected ErrNoConstructor, got %v", err)
		}
	})
}

func TestCallWrapsTargetFailures(t *testing.T) {
	r := newTestRegistry(t)
	constructor, err := r.Resolve(reflect.TypeFor[*Brittle](), []reflect.Type{reflect.TypeFor[float64]()})
	if err != nil {
		t.Fatal(err)
	}

	_, err = constructor.Call([]any{0.5})
	var targetErr *TargetError
	if !errors.As(err, &targetErr) {
		t.Fatalf("expected TargetError, got %v", err)
	}
	if !errors.Is(err, errTooSmall) {
		t.Errorf("cause should be preserved: %v", err)
	}
	if !errors.Is(err, ErrConstructionFailed) {
		t.Errorf("expected ErrConstructionFailed")
	}

	_, err = constructor.Call([]any{500.0})
	if !errors.As(err, &targetErr) {
		t.Fatalf("expected TargetError for panic, got %v", err)
	}
	if !strings.Contains(err.Error(), "way too big") {
		t.Errorf("panic value should be reported: %v", err)
	}
}

func TestLookup(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		want reflect.Type
	}{
		{TypeName(reflect.TypeFor[*Square]()), reflect.TypeFor[*Square]()},
		{"[]" + TypeName(reflect.TypeFor[*Square]()), reflect.TypeFor[[]*Square]()},
		{"string", reflect.TypeFor[string]()},
		{"[]string", reflect.TypeFor[[]string]()},
		{"any", reflect.TypeFor[any]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) failed", tt.name)
			}
			if got != tt.want {
				t.Errorf("Lookup(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if _, ok := r.Lookup("example.com/missing.Type"); ok {
		t.Errorf("unknown name resolved")
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[*Square](), "*github.com/invakid404/fluid/catalog.Square"},
		{reflect.TypeFor[[]shape](), "[]github.com/invakid404/fluid/catalog.shape"},
		{reflect.TypeFor[int](), "int"},
		{reflect.TypeFor[any](), "any"},
	}

	for _, tt := range tests {
		if got := TypeName(tt.typ); got != tt.want {
			t.Errorf("TypeName(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func newNamedSquare(side float64) *Square { return &Square{side} }

func TestConstructorName(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(newNamedSquare, "side")

	got := r.Constructors(reflect.TypeFor[*Square]())[0].Name()
	if got != "github.com/invakid404/fluid/catalog.newNamedSquare" {
		t.Errorf("Name() = %q", got)
	}
}

func TestReferenceFilters(t *testing.T) {
	base := reflect.TypeFor[shape]()

	tests := []struct {
		name   string
		fn     any
		props  []string
		noRefs bool
		multi  bool
	}{
		{"plain", func(side float64) *Square { return nil }, []string{"side"}, true, false},
		{"single", func(w float64, inner shape) *Rect { return nil }, []string{"width", "inner"}, false, false},
		{"pair", func(a, b shape) *Group { return nil }, []string{"first", "second"}, false, true},
		{"slice", func(members []shape) *Group { return nil }, []string{"members"}, false, true},
		{"variadic", func(members ...shape) *Group { return nil }, []string{"members"}, false, true},
		{"unrelated slice", func(sides []float64) *Square { return nil }, []string{"sides"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			constructor, err := describe(tt.fn, tt.props)
			if err != nil {
				t.Fatal(err)
			}

			if got := NoReferences(base)(constructor); got != tt.noRefs {
				t.Errorf("NoReferences = %v, want %v", got, tt.noRefs)
			}
			if got := MultiReferences(base)(constructor); got != tt.multi {
				t.Errorf("MultiReferences = %v, want %v", got, tt.multi)
			}
		})
	}
}

package pipe

import (
	"reflect"
	"testing"

	"github.com/invakid404/fluid/catalog"
)

func TestRegister(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		base reflect.Type
		want int
	}{
		{reflect.TypeFor[Function](), 3},
		{reflect.TypeFor[Filter](), 1},
		{reflect.TypeFor[Aggregator](), 3},
		{reflect.TypeFor[Buffer](), 1},
		{reflect.TypeFor[SubAssembly](), 3},
		{reflect.TypeFor[AggregateByPartial](), 3},
	}

	for _, tt := range tests {
		t.Run(tt.base.Name(), func(t *testing.T) {
			types, err := r.SubTypes(tt.base, "github.com/invakid404/fluid/**")
			if err != nil {
				t.Fatal(err)
			}
			if len(types) != tt.want {
				t.Errorf("got %d subtypes, want %d", len(types), tt.want)
			}
		})
	}

	merging, err := r.SubTypes(reflect.TypeFor[Pipe](), "", catalog.MultiReferences(reflect.TypeFor[Pipe]()))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range merging {
		names = append(names, catalog.SimpleName(entry.Type))
	}
	if !reflect.DeepEqual(names, []string{"HashJoin", "Merge"}) {
		t.Errorf("multi-reference pipes = %v", names)
	}
}

func TestNames(t *testing.T) {
	lhs := NewEachFilter(NewHead("lhs"), All, mustFilter(t, "a"))
	rhs := NewHead("rhs")

	tests := []struct {
		name string
		pipe Pipe
		want string
	}{
		{"chained elements keep the branch name", NewGroupBy(lhs, NewFields("x")), "lhs"},
		{"merge joins names", NewMerge(lhs, rhs), "lhs+rhs"},
		{"hash join joins names", NewHashJoin(lhs, All, rhs, All), "lhs*rhs"},
		{"head from renames", NewHeadFrom(lhs, "renamed"), "renamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pipe.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := len(Chain(NewCheckpoint(lhs))); got != 3 {
		t.Errorf("chain length = %d, want 3", got)
	}
}

func TestConstructorFailures(t *testing.T) {
	if _, err := NewRegexParser("("); err == nil {
		t.Errorf("expected invalid pattern error")
	}
	if _, err := NewFirstN(0); err == nil {
		t.Errorf("expected limit error")
	}
}

func mustFilter(t *testing.T, pattern string) Filter {
	t.Helper()

	filter, err := NewRegexFilter(pattern)
	if err != nil {
		t.Fatal(err)
	}

	return filter
}

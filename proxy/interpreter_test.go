package proxy_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/factory"
	"github.com/invakid404/fluid/pipe"
	"github.com/invakid404/fluid/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fieldsType     = reflect.TypeFor[pipe.Fields]()
	filterType     = reflect.TypeFor[pipe.Filter]()
	functionType   = reflect.TypeFor[pipe.Function]()
	aggregatorType = reflect.TypeFor[pipe.Aggregator]()
	stringType     = reflect.TypeFor[string]()
)

func specs() []proxy.MethodSpec {
	return []proxy.MethodSpec{
		{
			ID:     "Operation.regexFilter",
			Name:   "regexFilter",
			Params: []reflect.Type{stringType},
			Meta: &proxy.Meta{
				Factory: factory.KindPlain,
				Creates: reflect.TypeFor[*pipe.RegexFilter](),
				Method:  "RegexFilter(patternString string)",
			},
		},
		{
			ID:     "Branch.each",
			Name:   "each",
			Params: []reflect.Type{fieldsType},
			Meta: &proxy.Meta{
				Factory: factory.KindPipe,
				Creates: reflect.TypeFor[*pipe.Each](),
				Method:  "Each(argumentSelector Fields)",
			},
		},
		{ID: "Each.filter", Name: "filter", Params: []reflect.Type{filterType}},
		{ID: "Each.function", Name: "function", Params: []reflect.Type{functionType}},
		{ID: "EachFunction.outgoing", Name: "outgoing", Params: []reflect.Type{fieldsType}},
		{
			ID:     "Branch.groupBy",
			Name:   "groupBy",
			Params: []reflect.Type{fieldsType},
			Meta: &proxy.Meta{
				Factory:      factory.KindPipe,
				Creates:      reflect.TypeFor[*pipe.GroupBy](),
				Method:       "GroupBy(groupFields Fields)",
				CreateOnNext: true,
			},
		},
		{
			ID:     "GroupBy.every",
			Name:   "every",
			Params: []reflect.Type{fieldsType},
			Meta: &proxy.Meta{
				Factory: factory.KindPipe,
				Creates: reflect.TypeFor[*pipe.Every](),
				Method:  "Every(argumentSelector Fields)",
			},
		},
		{ID: "GroupBy.completeGroupBy", Name: "completeGroupBy"},
		{ID: "GroupBy.pipe", Name: "pipe", Params: []reflect.Type{stringType}},
		{ID: "Every.aggregator", Name: "aggregator", Params: []reflect.Type{aggregatorType}},
		{ID: "EveryAggregator.outgoing", Name: "outgoing", Params: []reflect.Type{fieldsType}},
		{ID: "Branch.plain", Name: "plain", Params: []reflect.Type{stringType}},
	}
}

func setup(t *testing.T, opts ...proxy.Option) (*proxy.Interpreter, *proxy.Proxy, *pipe.Head) {
	t.Helper()

	registry, err := pipe.NewRegistry()
	require.NoError(t, err)

	in := proxy.New(registry, proxy.NewTable(specs()...), opts...)

	ctx := factory.NewContext()
	head := pipe.NewHead("lhs")
	ctx.SetCurrent("lhs")
	ctx.SetTail("lhs", head)

	branch, err := in.Backed("Branch", factory.KindPipe, ctx)
	require.NoError(t, err)

	return in, branch, head
}

func TestInvokeBuildsOperation(t *testing.T) {
	in, _, _ := setup(t)
	root := in.Root("Operation", nil)

	value, err := root.Invoke("Operation.regexFilter", "^a")
	require.NoError(t, err)

	filter, ok := value.(*pipe.RegexFilter)
	require.True(t, ok, "built %T", value)
	assert.Equal(t, "^a", filter.Pattern.String())
	assert.True(t, strings.HasPrefix(filter.Trace(), "RegexFilter(patternString string) @ interpreter_test.go:"),
		"trace = %q", filter.Trace())
	assert.Nil(t, root.Factory(), "plain calls must not bind a factory to the root")
}

func TestInvokeThreadsBranch(t *testing.T) {
	_, branch, head := setup(t)

	slot := proxy.NewSlot("Each")
	value, err := branch.Invoke("Branch.each", slot, pipe.All)
	require.NoError(t, err)
	require.Nil(t, value)

	each := slot.Proxy()
	require.NotNil(t, each)
	assert.Equal(t, "Each", each.Block())
	assert.Equal(t, factory.KindPipe, each.Factory().Kind())
	assert.Same(t, branch.Context(), each.Context())

	filter, err := pipe.NewRegexFilter("x")
	require.NoError(t, err)

	value, err = each.Invoke("Each.filter", filter)
	require.NoError(t, err)

	built := value.(*pipe.Each)
	assert.Equal(t, []pipe.Pipe{head}, built.Previous())
	assert.Equal(t, filter, built.Operation)
	assert.Equal(t, built, branch.Context().Tail("lhs"))
	assert.Contains(t, built.Trace(), "Each(argumentSelector Fields) @ interpreter_test.go:")
}

func TestInvokeInheritsPriorArguments(t *testing.T) {
	_, branch, head := setup(t)

	eachSlot := proxy.NewSlot("Each")
	_, err := branch.Invoke("Branch.each", eachSlot, pipe.NewFields("line"))
	require.NoError(t, err)

	functionSlot := proxy.NewSlot("EachFunction")
	_, err = eachSlot.Proxy().Invoke("Each.function", functionSlot, pipe.NewIdentity())
	require.NoError(t, err)

	value, err := functionSlot.Proxy().Invoke("EachFunction.outgoing", pipe.Results)
	require.NoError(t, err)

	each := value.(*pipe.Each)
	assert.Equal(t, []pipe.Pipe{head}, each.Previous())
	assert.Equal(t, pipe.NewFields("line"), each.ArgumentSelector)
	assert.Equal(t, pipe.Results, each.OutputSelector)
	assert.Contains(t, each.Trace(), "Each(argumentSelector Fields)")
}

func TestInvokeDefersCreateOnNext(t *testing.T) {
	t.Run("flushed by the next call", func(t *testing.T) {
		_, branch, head := setup(t)

		groupSlot := proxy.NewSlot("GroupBy")
		_, err := branch.Invoke("Branch.groupBy", groupSlot, pipe.NewFields("key"))
		require.NoError(t, err)
		assert.Equal(t, head, branch.Context().Tail("lhs"), "groupBy must wait for the next call")

		everySlot := proxy.NewSlot("Every")
		_, err = groupSlot.Proxy().Invoke("GroupBy.every", everySlot, pipe.All)
		require.NoError(t, err)

		groupBy, ok := branch.Context().Tail("lhs").(*pipe.GroupBy)
		require.True(t, ok, "tail is %T", branch.Context().Tail("lhs"))
		assert.Equal(t, []pipe.Pipe{head}, groupBy.Previous())

		aggregatorSlot := proxy.NewSlot("EveryAggregator")
		_, err = everySlot.Proxy().Invoke("Every.aggregator", aggregatorSlot, pipe.NewCount(pipe.NewFields("n")))
		require.NoError(t, err)

		value, err := aggregatorSlot.Proxy().Invoke("EveryAggregator.outgoing", pipe.All)
		require.NoError(t, err)

		every := value.(*pipe.Every)
		assert.Equal(t, []pipe.Pipe{groupBy}, every.Previous())
		assert.Len(t, pipe.Chain(every), 3)
	})

	t.Run("flushed by a bare completion", func(t *testing.T) {
		_, branch, head := setup(t)

		groupSlot := proxy.NewSlot("GroupBy")
		_, err := branch.Invoke("Branch.groupBy", groupSlot, pipe.NewFields("key"))
		require.NoError(t, err)

		value, err := groupSlot.Proxy().Invoke("GroupBy.completeGroupBy")
		require.NoError(t, err)

		groupBy := value.(*pipe.GroupBy)
		assert.Equal(t, []pipe.Pipe{head}, groupBy.Previous())
	})

	t.Run("flushed before an override", func(t *testing.T) {
		var seen any
		override := proxy.WithOverride("pipe", func(self *proxy.Proxy, args []any) (any, error) {
			seen = self.Context().Tail(self.Context().Current())
			return nil, nil
		})
		_, branch, _ := setup(t, override)

		groupSlot := proxy.NewSlot("GroupBy")
		_, err := branch.Invoke("Branch.groupBy", groupSlot, pipe.NewFields("key"))
		require.NoError(t, err)

		_, err = groupSlot.Proxy().Invoke("GroupBy.pipe", "next")
		require.NoError(t, err)

		assert.IsType(t, &pipe.GroupBy{}, seen, "override must observe the flushed construction")
	})
}

func TestInvokeErrors(t *testing.T) {
	in, branch, _ := setup(t)

	t.Run("unknown method", func(t *testing.T) {
		_, err := branch.Invoke("Branch.missing")
		var unknown *proxy.UnknownMethodError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "Branch.missing", unknown.ID)
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, err := branch.Invoke("Branch.plain", "a", "b")
		assert.ErrorIs(t, err, proxy.ErrArity)
	})

	t.Run("slot bound twice", func(t *testing.T) {
		slot := proxy.NewSlot("Each")
		_, err := branch.Invoke("Branch.each", slot, pipe.All)
		require.NoError(t, err)

		_, err = branch.Invoke("Branch.each", slot, pipe.All)
		assert.ErrorIs(t, err, proxy.ErrSlot)
	})

	t.Run("nil receiver", func(t *testing.T) {
		_, err := in.Invoke(nil, "Branch.each")
		assert.ErrorIs(t, err, proxy.ErrNoReceiver)
	})

	t.Run("no matching constructor", func(t *testing.T) {
		slot := proxy.NewSlot("Each")
		_, err := branch.Invoke("Branch.each", slot, pipe.All)
		require.NoError(t, err)

		_, err = slot.Proxy().Invoke("EachFunction.outgoing", pipe.All)
		assert.ErrorIs(t, err, catalog.ErrNoConstructor)
	})
}

func TestChainIsSticky(t *testing.T) {
	_, branch, _ := setup(t)
	chain := proxy.NewChain()

	chain.Call(branch, "Branch.missing")
	require.ErrorIs(t, chain.Err(), proxy.ErrUnknownMethod)

	slot := proxy.NewSlot("Each")
	chain.Call(branch, "Branch.each", slot, pipe.All)
	assert.Nil(t, slot.Proxy(), "calls after a failure must be skipped")

	_, err := chain.Value(slot.Proxy(), "Each.filter", nil)
	assert.ErrorIs(t, err, proxy.ErrUnknownMethod)
	assert.Contains(t, err.Error(), "Branch.missing")
}

func TestCompile(t *testing.T) {
	registry, err := pipe.NewRegistry()
	require.NoError(t, err)

	each := descriptor.NewBlock("Each")
	each.Add(&descriptor.Method{
		Signature: mustParse(t, "filter(filter github.com/invakid404/fluid/pipe.Filter)"),
		Mode:      descriptor.Last(),
	})

	d := descriptor.New("github.com/invakid404/fluid/api/assembly", "Branch", "branch")
	d.Root.Add(&descriptor.Method{
		Signature: mustParse(t, "each(argumentSelector github.com/invakid404/fluid/pipe.Fields)"),
		Mode:      descriptor.Any(0),
		Meta: &descriptor.Meta{
			Factory: descriptor.FactoryPipe,
			Creates: "*github.com/invakid404/fluid/pipe.Each",
			Method:  "Each(argumentSelector Fields)",
		},
		Block: each,
	})
	d.Root.Add(&descriptor.Method{
		Signature: mustParse(t, "merge(pipes ...github.com/invakid404/fluid/pipe.Pipe)"),
		Mode:      descriptor.Last(),
		Returns:   "github.com/invakid404/fluid/pipe.Pipe",
	})

	table, err := proxy.Compile(d, registry)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	spec, ok := table.Lookup("Branch.each")
	require.True(t, ok)
	assert.Equal(t, []reflect.Type{fieldsType}, spec.Params)
	require.NotNil(t, spec.Meta)
	assert.Equal(t, factory.KindPipe, spec.Meta.Factory)
	assert.Equal(t, reflect.TypeFor[*pipe.Each](), spec.Meta.Creates)

	spec, ok = table.Lookup("Branch.merge")
	require.True(t, ok)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[[]pipe.Pipe]()}, spec.Params)

	_, ok = table.Lookup("Each.filter")
	assert.True(t, ok)

	d.Root.Add(&descriptor.Method{
		Signature: mustParse(t, "unknown(value example.com/missing.Type)"),
		Mode:      descriptor.Last(),
	})
	_, err = proxy.Compile(d, registry)
	assert.ErrorIs(t, err, proxy.ErrUnknownType)
}

func mustParse(t *testing.T, s string) descriptor.Signature {
	t.Helper()

	signature, err := descriptor.ParseSignature(s)
	require.NoError(t, err)

	return signature
}

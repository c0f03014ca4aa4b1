package generator

import (
	"context"
	"fmt"
	"reflect"

	"github.com/invakid404/fluid/catalog"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/pipe"
)

// Mode groups of the assembly descriptor.
const (
	GroupGroupBy = 1
	GroupEach    = 2
	GroupEvery   = 3
)

// Block and start names shared with the runtime session.
const (
	AssemblyRoot     = "Assembly"
	AssemblyStart    = "start"
	BranchBlock      = "Branch"
	OperationRoot    = "Operation"
	OperationStart   = "build"
	SubAssemblyRoot  = "SubAssembly"
	SubAssemblyStart = "build"
	// JoinBranch builds a pending join and continues as its branch.
	JoinBranch = "branch"
)

var (
	pipeType        = reflect.TypeFor[pipe.Pipe]()
	fieldsType      = catalog.TypeName(reflect.TypeFor[pipe.Fields]())
	pipeTypeName    = catalog.TypeName(pipeType)
	groupByTypeName = catalog.TypeName(reflect.TypeFor[*pipe.GroupBy]())
)

type group struct {
	name string
	base reflect.Type
}

// Operations describes builders for every function, filter, aggregator and
// buffer in the catalog. Each builder ends with a terminal returning the
// operation.
func (g *Generator) Operations(ctx context.Context) (*descriptor.Descriptor, error) {
	d := descriptor.New(g.packagePath("operation"), OperationRoot, OperationStart)

	groups := []group{
		{"function", reflect.TypeFor[pipe.Function]()},
		{"filter", reflect.TypeFor[pipe.Filter]()},
		{"aggregator", reflect.TypeFor[pipe.Aggregator]()},
		{"buffer", reflect.TypeFor[pipe.Buffer]()},
	}

	if err := g.groups(ctx, d.Root, groups); err != nil {
		return nil, err
	}

	return d, d.Validate()
}

// SubAssemblies describes builders for the partial aggregations an
// AggregateBy accepts.
func (g *Generator) SubAssemblies(ctx context.Context) (*descriptor.Descriptor, error) {
	d := descriptor.New(g.packagePath("subassembly"), SubAssemblyRoot, SubAssemblyStart)

	groups := []group{
		{"partial", reflect.TypeFor[pipe.AggregateByPartial]()},
	}

	if err := g.groups(ctx, d.Root, groups, catalog.NoReferences(pipeType)); err != nil {
		return nil, err
	}

	return d, d.Validate()
}

func (g *Generator) groups(ctx context.Context, root *descriptor.Block, groups []group, filters ...catalog.Filter) error {
	for _, grp := range groups {
		block := descriptor.NewBlock(catalog.SimpleName(grp.base))

		err := g.SubTypeBlocks(ctx, block, grp.base, BlockOptions{
			Role:    RoleFactory,
			Factory: descriptor.FactoryPlain,
			Mode:    descriptor.Last(),
			Filters: filters,
		})
		if err != nil {
			return fmt.Errorf("failed to describe %s: %w", grp.name, err)
		}

		root.Add(&descriptor.Method{
			Signature: descriptor.Signature{Name: grp.name},
			Mode:      descriptor.Any(0),
			Block:     block,
		})
	}

	return nil
}

// Assembly describes the branch builder: named branches of each, groupBy and
// every elements and sub-assemblies, plus start/create builders for the
// elements that join several branches.
func (g *Generator) Assembly(ctx context.Context) (*descriptor.Descriptor, error) {
	d := descriptor.New(g.packagePath("assembly"), AssemblyRoot, AssemblyStart)

	branch, err := g.branchBlock(ctx)
	if err != nil {
		return nil, err
	}

	d.Root.Add(&descriptor.Method{
		Signature: signature("startBranch", param("name", "string")),
		Mode:      descriptor.Any(0),
		Block:     branch,
		Doc:       "StartBranch begins a new branch named name.",
	})
	d.Root.Add(&descriptor.Method{
		Signature: signature("continueBranch", param("previous", pipeTypeName)),
		Mode:      descriptor.Any(0),
		Ref:       BranchBlock,
		Doc:       "ContinueBranch appends to the branch previous ends.",
	})

	joins, err := g.TypeBlocks(ctx, pipeType, BlockOptions{
		Role:    RoleFactory,
		Factory: descriptor.FactoryPipe,
		Mode:    descriptor.Any(0),
		Filters: []catalog.Filter{catalog.MultiReferences(pipeType)},
		Naming:  StartNaming,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe joins: %w", err)
	}
	for _, join := range joins {
		if err := joinBranches(join.Block); err != nil {
			return nil, err
		}
		d.Root.Add(join)
	}

	d.Root.Add(&descriptor.Method{
		Signature: signature("completeAssembly"),
		Mode:      descriptor.Last(),
		Returns:   "[]" + pipeTypeName,
		Doc:       "CompleteAssembly returns the tail of every branch.",
	})

	return d, d.Validate()
}

func (g *Generator) branchBlock(ctx context.Context) (*descriptor.Block, error) {
	branch := descriptor.NewBlock(BranchBlock)

	branch.Add(&descriptor.Method{
		Signature: signature("pipe", param("name", "string")),
		Mode:      descriptor.Any(0),
		Doc:       "Pipe renames the active branch.",
	})
	branch.Add(&descriptor.Method{
		Signature: signature("checkpoint"),
		Mode:      descriptor.Any(0),
	})

	branch.Add(eachMethod())

	groupBy := groupByMethod(signature("groupBy", param("groupFields", fieldsType)))
	groupBy.Block = groupByBlock()
	branch.Add(groupBy)

	sorted := groupByMethod(signature("groupBy", param("groupFields", fieldsType), param("sortFields", fieldsType)))
	sorted.Ref = groupBy.Block.Name
	branch.Add(sorted)

	err := g.SubTypeBlocks(ctx, branch, reflect.TypeFor[pipe.SubAssembly](), BlockOptions{
		Role:      RoleChain,
		Factory:   descriptor.FactoryPipe,
		Mode:      descriptor.Any(0),
		Exclusive: []reflect.Type{pipeType},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe sub-assemblies: %w", err)
	}

	branch.Add(&descriptor.Method{
		Signature: signature("completeBranch"),
		Mode:      descriptor.Last(),
		Returns:   pipeTypeName,
		Doc:       "CompleteBranch returns the tail of the active branch.",
	})

	return branch, nil
}

// joinBranches gives every block of a join that can create it a JoinBranch
// method next to the create terminal, opening the branch builder.
func joinBranches(root *descriptor.Block) error {
	return root.Walk(func(b *descriptor.Block) error {
		for _, m := range b.Methods {
			if m.Returns == "" {
				continue
			}

			b.Add(&descriptor.Method{
				Signature: signature(JoinBranch),
				Mode:      descriptor.Last(),
				Ref:       BranchBlock,
				Doc:       "Branch creates the join and continues building on it.",
			})
			return nil
		}

		return nil
	})
}

func eachMethod() *descriptor.Method {
	function := descriptor.NewBlock("EachFunction")
	function.Add(outgoing())

	each := descriptor.NewBlock("Each")
	each.Add(&descriptor.Method{
		Signature: signature("function", param("function", typeName[pipe.Function]())),
		Mode:      descriptor.Last(),
		Block:     function,
	})
	each.Add(&descriptor.Method{
		Signature: signature("filter", param("filter", typeName[pipe.Filter]())),
		Mode:      descriptor.Last(),
	})

	s := signature("each", param("argumentSelector", fieldsType))

	return &descriptor.Method{
		Signature: s,
		Mode:      descriptor.Any(GroupEach),
		Meta: &descriptor.Meta{
			Factory: descriptor.FactoryPipe,
			Creates: typeName[*pipe.Each](),
			Method:  s.String(),
		},
		Block: each,
	}
}

func groupByMethod(s descriptor.Signature) *descriptor.Method {
	return &descriptor.Method{
		Signature: s,
		Mode:      descriptor.Any(GroupGroupBy),
		Meta: &descriptor.Meta{
			Factory:      descriptor.FactoryPipe,
			Creates:      groupByTypeName,
			Method:       s.String(),
			CreateOnNext: true,
		},
	}
}

func groupByBlock() *descriptor.Block {
	aggregator := descriptor.NewBlock("EveryAggregator")
	aggregator.Add(outgoing())

	buffer := descriptor.NewBlock("EveryBuffer")
	buffer.Add(outgoing())

	every := descriptor.NewBlock("Every")
	every.Add(&descriptor.Method{
		Signature: signature("aggregator", param("aggregator", typeName[pipe.Aggregator]())),
		Mode:      descriptor.Last(),
		Block:     aggregator,
	})
	every.Add(&descriptor.Method{
		Signature: signature("buffer", param("buffer", typeName[pipe.Buffer]())),
		Mode:      descriptor.Last(),
		Block:     buffer,
	})

	s := signature("every", param("argumentSelector", fieldsType))

	groupBy := descriptor.NewBlock("GroupBy")
	groupBy.Add(&descriptor.Method{
		Signature: s,
		Mode:      descriptor.Any(GroupEvery),
		Meta: &descriptor.Meta{
			Factory: descriptor.FactoryPipe,
			Creates: typeName[*pipe.Every](),
			Method:  s.String(),
		},
		Block: every,
	})
	groupBy.Add(&descriptor.Method{
		Signature: signature("completeGroupBy"),
		Mode:      descriptor.Last(),
	})

	return groupBy
}

func outgoing() *descriptor.Method {
	return &descriptor.Method{
		Signature: signature("outgoing", param("outgoingSelector", fieldsType)),
		Mode:      descriptor.Last(),
	}
}

func signature(name string, params ...descriptor.Param) descriptor.Signature {
	return descriptor.Signature{Name: name, Params: params}
}

func param(name, typ string) descriptor.Param {
	return descriptor.Param{Name: name, Type: typ}
}

func typeName[T any]() string {
	return catalog.TypeName(reflect.TypeFor[T]())
}

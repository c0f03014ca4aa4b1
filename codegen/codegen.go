// Package codegen renders descriptors as Go source: one generic builder
// interface per block, the implementations forwarding every call to the
// proxy interpreter, and the method table the interpreter dispatches on.
package codegen

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/invakid404/fluid/descriptor"
	"github.com/invakid404/fluid/factory"
	"github.com/invakid404/fluid/proxy"
	"github.com/stoewer/go-strcase"
)

const (
	Header = "Code generated by fluid. DO NOT EDIT."

	ProxyPkg   = "github.com/invakid404/fluid/proxy"
	FactoryPkg = "github.com/invakid404/fluid/factory"

	rootImpl = "rootBuilder"
)

var ErrInvalidType = errors.New("codegen: invalid type name")

// FileName is the name of the file holding the API of d.
func FileName(d *descriptor.Descriptor) string {
	return strcase.SnakeCase(d.Name()) + proxy.GeneratedSuffix
}

func MakeFile(d *descriptor.Descriptor) *jen.File {
	name := strings.ReplaceAll(path.Base(d.Package), "-", "_")

	file := jen.NewFilePathName(d.Package, name)
	file.HeaderComment(Header)

	return file
}

// Commit writes file into dir and returns the written path.
func Commit(file *jen.File, d *descriptor.Descriptor, dir string) (string, error) {
	target := filepath.Join(dir, FileName(d))
	if err := file.Save(target); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", target, err)
	}

	return target, nil
}

type renderer struct {
	d    *descriptor.Descriptor
	file *jen.File
}

// Generate renders the API of d.
func Generate(d *descriptor.Descriptor) (*jen.File, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	g := &renderer{d: d, file: MakeFile(d)}

	var specs []jen.Code
	err := d.Root.Walk(func(b *descriptor.Block) error {
		if err := g.block(b); err != nil {
			return err
		}

		for _, m := range b.Methods {
			spec, err := g.spec(b, m)
			if err != nil {
				return err
			}
			specs = append(specs, spec)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	g.start()
	g.table(specs)

	return g.file, nil
}

func (g *renderer) isRoot(name string) bool {
	return name == g.d.Root.Name
}

// iface is the interface type of block name, instantiated with ret.
func (g *renderer) iface(name string, ret jen.Code) *jen.Statement {
	if g.isRoot(name) {
		return jen.Id(name)
	}

	return jen.Id(name + "Builder").Types(ret)
}

func (g *renderer) impl(name string, ret jen.Code) *jen.Statement {
	if g.isRoot(name) {
		return jen.Id(rootImpl)
	}

	return jen.Id(strcase.LowerCamelCase(name) + "Builder").Types(ret)
}

// self is the interface type of b as seen from its own methods.
func (g *renderer) self(b *descriptor.Block) *jen.Statement {
	return g.iface(b.Name, jen.Id("R"))
}

// ret is the type b hands back when a Last method closes it.
func (g *renderer) ret(b *descriptor.Block) *jen.Statement {
	if g.isRoot(b.Name) {
		return g.self(b)
	}

	return jen.Id("R")
}

func (g *renderer) retValue(b *descriptor.Block) *jen.Statement {
	if g.isRoot(b.Name) {
		return jen.Id("b")
	}

	return jen.Id("b").Dot("ret")
}

func (g *renderer) typeParams(b *descriptor.Block) []jen.Code {
	if g.isRoot(b.Name) {
		return nil
	}

	return []jen.Code{jen.Id("R").Any()}
}

func (g *renderer) block(b *descriptor.Block) error {
	var (
		methods []jen.Code
		impls   []jen.Code
	)

	for _, m := range b.Methods {
		decl, body, err := g.method(b, m)
		if err != nil {
			return err
		}

		if m.Doc != "" {
			methods = append(methods, jen.Comment(m.Doc))
		}
		methods = append(methods, decl)
		impls = append(impls, body)
	}

	methods = append(methods,
		jen.Comment("Err reports the first failure of the chain."),
		jen.Id("Err").Params().Error(),
	)

	name := b.Name
	if !g.isRoot(name) {
		name += "Builder"
	}
	if b.Doc != "" {
		g.file.Comment(b.Doc)
	}
	decl := g.file.Type().Id(name)
	if params := g.typeParams(b); params != nil {
		decl.Types(params...)
	}
	decl.Interface(methods...)

	fields := []jen.Code{
		jen.Id("chain").Op("*").Qual(ProxyPkg, "Chain"),
		jen.Id("proxy").Op("*").Qual(ProxyPkg, "Proxy"),
	}
	implName := rootImpl
	if !g.isRoot(b.Name) {
		fields = append(fields, jen.Id("ret").Id("R"))
		implName = strcase.LowerCamelCase(b.Name) + "Builder"
	}
	impl := g.file.Type().Id(implName)
	if params := g.typeParams(b); params != nil {
		impl.Types(params...)
	}
	impl.Struct(fields...)

	for _, body := range impls {
		g.file.Add(body)
	}

	g.file.Func().
		Params(g.receiver(b)).
		Id("Err").Params().Error().
		Block(jen.Return(jen.Id("b").Dot("chain").Dot("Err").Call()))

	return nil
}

func (g *renderer) receiver(b *descriptor.Block) *jen.Statement {
	return jen.Id("b").Op("*").Add(g.impl(b.Name, jen.Id("R")))
}

// method renders the interface declaration and the implementation of m.
func (g *renderer) method(b *descriptor.Block, m *descriptor.Method) (jen.Code, jen.Code, error) {
	var (
		params []jen.Code
		args   = []jen.Code{jen.Id("b").Dot("proxy"), jen.Lit(descriptor.MethodID(b.Name, m.ID))}
	)
	for _, p := range m.Signature.Params {
		typ, err := typeCode(p.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", descriptor.MethodID(b.Name, m.ID), err)
		}

		name := paramName(p.Name)
		if p.Variadic {
			params = append(params, jen.Id(name).Op("...").Add(typ))
		} else {
			params = append(params, jen.Id(name).Add(typ))
		}
	}

	goName := strcase.UpperCamelCase(m.ID)
	last := m.Mode.Kind == descriptor.ModeLast

	var (
		result *jen.Statement
		body   []jen.Code
	)
	switch starts := m.Starts(); {
	case m.Terminal():
		typ, err := typeCode(m.Returns)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", descriptor.MethodID(b.Name, m.ID), err)
		}

		result = jen.Parens(jen.List(typ.Clone(), jen.Error()))
		body = []jen.Code{
			jen.List(jen.Id("value"), jen.Err()).Op(":=").Id("b").Dot("chain").Dot("Value").Call(g.callArgs(args, m)...),
			jen.List(jen.Id("result"), jen.Id("_")).Op(":=").Id("value").Assert(typ.Clone()),
			jen.Return(jen.Id("result"), jen.Err()),
		}

	case starts != "" && starts != b.Name:
		ret, retValue := g.self(b), jen.Id("b")
		if last {
			ret, retValue = g.ret(b), g.retValue(b)
		}

		result = g.iface(starts, ret.Clone())

		fields := jen.Dict{
			jen.Id("chain"): jen.Id("b").Dot("chain"),
			jen.Id("proxy"): jen.Id("slot").Dot("Proxy").Call(),
		}
		if !g.isRoot(starts) {
			fields[jen.Id("ret")] = retValue
		}

		body = []jen.Code{
			jen.Id("slot").Op(":=").Qual(ProxyPkg, "NewSlot").Call(jen.Lit(starts)),
			jen.Id("b").Dot("chain").Dot("Call").Call(g.slotArgs(args, m)...),
			jen.Return(jen.Op("&").Add(g.impl(starts, ret.Clone())).Values(fields)),
		}

	default:
		ret := jen.Id("b")
		result = g.self(b)
		if last {
			result, ret = g.ret(b), g.retValue(b)
		}

		body = []jen.Code{
			jen.Id("b").Dot("chain").Dot("Call").Call(g.callArgs(args, m)...),
			jen.Return(ret),
		}
	}

	decl := jen.Id(goName).Params(params...).Add(result.Clone())
	impl := jen.Func().Params(g.receiver(b)).Id(goName).Params(cloneAll(params)...).Add(result).Block(body...)

	return decl, impl, nil
}

func (g *renderer) callArgs(head []jen.Code, m *descriptor.Method) []jen.Code {
	args := append([]jen.Code(nil), head...)
	for _, p := range m.Signature.Params {
		args = append(args, jen.Id(paramName(p.Name)))
	}

	return args
}

// slotArgs passes the result slot ahead of the declared parameters.
func (g *renderer) slotArgs(head []jen.Code, m *descriptor.Method) []jen.Code {
	args := append([]jen.Code(nil), head...)
	args = append(args, jen.Id("slot"))
	for _, p := range m.Signature.Params {
		args = append(args, jen.Id(paramName(p.Name)))
	}

	return args
}

func (g *renderer) start() {
	root := g.d.Root.Name
	name := strcase.UpperCamelCase(g.d.Start)

	g.file.Commentf("%s begins a %s chain on root.", name, root)
	g.file.Func().Id(name).Params(jen.Id("root").Op("*").Qual(ProxyPkg, "Proxy")).Id(root).Block(
		jen.Return(jen.Op("&").Id(rootImpl).Values(jen.Dict{
			jen.Id("chain"): jen.Qual(ProxyPkg, "NewChain").Call(),
			jen.Id("proxy"): jen.Id("root"),
		})),
	)
}

func (g *renderer) table(specs []jen.Code) {
	g.file.Comment("Methods describes every builder method for the interpreter.")
	g.file.Var().Id("Methods").Op("=").Index().Qual(ProxyPkg, "MethodSpec").ValuesFunc(func(group *jen.Group) {
		for _, spec := range specs {
			group.Line().Add(spec)
		}
		group.Line()
	})

	g.file.Func().Id("Table").Params().Op("*").Qual(ProxyPkg, "Table").Block(
		jen.Return(jen.Qual(ProxyPkg, "NewTable").Call(jen.Id("Methods").Op("..."))),
	)
}

func (g *renderer) spec(b *descriptor.Block, m *descriptor.Method) (jen.Code, error) {
	id := descriptor.MethodID(b.Name, m.ID)

	fields := jen.Dict{
		jen.Id("ID"):   jen.Lit(id),
		jen.Id("Name"): jen.Lit(m.Signature.Name),
	}

	if types := m.Signature.ParamTypes(); len(types) > 0 {
		var params []jen.Code
		for _, name := range types {
			typ, err := typeCode(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", id, err)
			}
			params = append(params, typeFor(typ))
		}
		fields[jen.Id("Params")] = jen.Index().Qual("reflect", "Type").Values(params...)
	}

	if meta := m.Meta; meta != nil {
		kind, err := factory.ParseKind(meta.Factory)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		creates, err := typeCode(meta.Creates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}

		metaFields := jen.Dict{
			jen.Id("Factory"): jen.Qual(FactoryPkg, kindIdent(kind)),
			jen.Id("Creates"): typeFor(creates),
			jen.Id("Method"):  jen.Lit(meta.Method),
		}
		if meta.CreateOnNext {
			metaFields[jen.Id("CreateOnNext")] = jen.True()
		}
		fields[jen.Id("Meta")] = jen.Op("&").Qual(ProxyPkg, "Meta").Values(metaFields)
	}

	return jen.Values(fields), nil
}

func typeFor(typ *jen.Statement) *jen.Statement {
	return jen.Qual("reflect", "TypeFor").Types(typ).Call()
}

func kindIdent(kind factory.Kind) string {
	switch kind {
	case factory.KindPlain:
		return "KindPlain"
	case factory.KindPipe:
		return "KindPipe"
	}

	return "KindNone"
}

func cloneAll(codes []jen.Code) []jen.Code {
	cloned := make([]jen.Code, len(codes))
	for i, code := range codes {
		if statement, ok := code.(*jen.Statement); ok {
			cloned[i] = statement.Clone()
			continue
		}
		cloned[i] = code
	}

	return cloned
}

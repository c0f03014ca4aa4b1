package descriptor

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var signatureLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Ellipsis", Pattern: `\.\.\.`},
	{Name: "Slice", Pattern: `\[\]`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_./-]*`},
	{Name: "Punct", Pattern: `[(),]`},
})

type signatureAST struct {
	Name   string      `parser:"@Ident '('"`
	Params []*paramAST `parser:"( @@ ( ',' @@ )* )? ')'"`
}

type paramAST struct {
	Name     string   `parser:"@Ident"`
	Variadic bool     `parser:"@Ellipsis?"`
	Ops      []string `parser:"@( Slice | Star )*"`
	Type     string   `parser:"@Ident"`
}

var signatureParser = participle.MustBuild[signatureAST](
	participle.Lexer(signatureLexer),
	participle.Elide("Whitespace"),
)

// Param is one named, typed parameter of a method signature. Type uses the
// descriptor type naming ("[]*pkg/path.Name" or a builtin).
type Param struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Variadic bool   `yaml:"variadic,omitempty" json:"variadic,omitempty"`
}

// Signature is a method name plus its parameters, written in Go order:
// "each(argumentSelector github.com/x/pipe.Fields)".
type Signature struct {
	Name   string
	Params []Param
}

// ParseSignature parses the textual form produced by Signature.String.
func ParseSignature(s string) (Signature, error) {
	ast, err := signatureParser.ParseString("", s)
	if err != nil {
		return Signature{}, fmt.Errorf("descriptor: parsing signature %q: %w", s, err)
	}

	signature := Signature{Name: ast.Name}
	for i, param := range ast.Params {
		if param.Variadic && i != len(ast.Params)-1 {
			return Signature{}, fmt.Errorf("descriptor: signature %q: only the last parameter may be variadic", s)
		}

		signature.Params = append(signature.Params, Param{
			Name:     param.Name,
			Type:     strings.Join(param.Ops, "") + param.Type,
			Variadic: param.Variadic,
		})
	}

	return signature, nil
}

func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, param := range s.Params {
		if param.Variadic {
			params[i] = param.Name + " ..." + param.Type
			continue
		}
		params[i] = param.Name + " " + param.Type
	}

	return s.Name + "(" + strings.Join(params, ", ") + ")"
}

// MarshalText makes signatures serialize as their string form.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// ParamTypes lists the declared type of every parameter. A variadic parameter
// is reported as its slice type.
func (s Signature) ParamTypes() []string {
	types := make([]string, len(s.Params))
	for i, param := range s.Params {
		if param.Variadic {
			types[i] = "[]" + param.Type
			continue
		}
		types[i] = param.Type
	}

	return types
}

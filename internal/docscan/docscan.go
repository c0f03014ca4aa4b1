// Package docscan harvests type and constructor documentation from Go
// sources into a generator.DocSet.
package docscan

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/invakid404/fluid/generator"
	"github.com/rs/zerolog"
)

type Scanner struct {
	logger zerolog.Logger
	docs   generator.DocSet
}

func New(logger zerolog.Logger) *Scanner {
	return &Scanner{logger: logger, docs: generator.DocSet{}}
}

// Docs returns everything scanned so far.
func (s *Scanner) Docs() generator.DocSet {
	return s.docs
}

// Scan walks root, whose import path is pkgPath, and records the doc
// comments of exported types and of the exported functions returning them.
// Test files, testdata and directories starting with "." or "_" are skipped.
func (s *Scanner) Scan(root, pkgPath string) error {
	return filepath.WalkDir(root, func(file string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			name := entry.Name()
			if file != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(file, ".go") || strings.HasSuffix(file, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(root, filepath.Dir(file))
		if err != nil {
			return err
		}

		return s.scanFile(file, path.Join(pkgPath, filepath.ToSlash(rel)))
	})
}

func (s *Scanner) scanFile(file, pkgPath string) error {
	fileSet := token.NewFileSet()
	parsed, err := parser.ParseFile(fileSet, file, nil, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	for _, decl := range parsed.Decls {
		switch decl := decl.(type) {
		case *ast.GenDecl:
			if decl.Tok != token.TYPE {
				continue
			}

			for _, spec := range decl.Specs {
				typeSpec := spec.(*ast.TypeSpec)
				if !typeSpec.Name.IsExported() {
					continue
				}

				doc := typeSpec.Doc
				if doc == nil && len(decl.Specs) == 1 {
					doc = decl.Doc
				}
				text := strings.TrimSpace(doc.Text())
				if text == "" {
					continue
				}

				name := pkgPath + "." + typeSpec.Name.Name
				s.setTypeDoc(name, text)
				s.setTypeDoc("*"+name, text)
			}

		case *ast.FuncDecl:
			if decl.Recv != nil || !decl.Name.IsExported() || decl.Doc == nil {
				continue
			}

			owner, ok := resultType(decl, pkgPath)
			if !ok {
				continue
			}

			s.setConstructorDoc(owner, pkgPath+"."+decl.Name.Name, strings.TrimSpace(decl.Doc.Text()))
		}
	}

	s.logger.Trace().Str("file", file).Str("package", pkgPath).Msg("scanned")

	return nil
}

func (s *Scanner) setTypeDoc(name, text string) {
	info := s.docs[name]
	info.Doc = text
	s.docs[name] = info
}

func (s *Scanner) setConstructorDoc(owner, constructor, text string) {
	info := s.docs[owner]
	if info.Constructors == nil {
		info.Constructors = make(map[string]string)
	}
	info.Constructors[constructor] = text
	s.docs[owner] = info
}

// resultType names the package-local type a function returns first, in
// descriptor form.
func resultType(decl *ast.FuncDecl, pkgPath string) (string, bool) {
	results := decl.Type.Results
	if results == nil || len(results.List) == 0 {
		return "", false
	}

	prefix := ""
	expr := results.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		prefix = "*"
		expr = star.X
	}

	ident, ok := expr.(*ast.Ident)
	if !ok || !ident.IsExported() {
		return "", false
	}

	return prefix + pkgPath + "." + ident.Name, true
}

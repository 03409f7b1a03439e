package adapter

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
)

// GoFileAdapter encapsulates Go-specific parsing so the domain layer can focus
// on extraction rules while delegating syntax details to an infrastructure
// component.
type GoFileAdapter interface {
	// Parse builds an AST, comments included, using the provided file set.
	Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// DocComments returns the comment groups attached to the package clause
	// or to a declaration, spec or field.
	DocComments(file *ast.File) map[*ast.CommentGroup]bool

	// StringLiterals returns the string literals of file in source order,
	// leaving out import paths and struct tags.
	StringLiterals(file *ast.File) []*ast.BasicLit
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parser.ParseFile(fileSet, filename, src, parser.ParseComments|parser.SkipObjectResolution)
}

// DocComments walks declarations and records every attached doc group.
func (a *LocalGoFileAdapter) DocComments(file *ast.File) map[*ast.CommentGroup]bool {
	docs := make(map[*ast.CommentGroup]bool)

	mark := func(cg *ast.CommentGroup) {
		if cg != nil {
			docs[cg] = true
		}
	}

	mark(file.Doc)

	ast.Inspect(file, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.GenDecl:
			mark(d.Doc)
		case *ast.FuncDecl:
			mark(d.Doc)
		case *ast.TypeSpec:
			mark(d.Doc)
		case *ast.ValueSpec:
			mark(d.Doc)
		case *ast.ImportSpec:
			mark(d.Doc)
		case *ast.Field:
			mark(d.Doc)
		}

		return true
	})

	return docs
}

// StringLiterals collects STRING basic literals outside imports and tags.
func (a *LocalGoFileAdapter) StringLiterals(file *ast.File) []*ast.BasicLit {
	skip := make(map[*ast.BasicLit]bool)

	var lits []*ast.BasicLit

	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.ImportSpec:
			return false
		case *ast.Field:
			if node.Tag != nil {
				skip[node.Tag] = true
			}
		case *ast.BasicLit:
			if node.Kind == token.STRING && !skip[node] {
				lits = append(lits, node)
			}
		}

		return true
	})

	return lits
}

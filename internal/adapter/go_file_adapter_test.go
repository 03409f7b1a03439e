package adapter

import (
	"context"
	"go/token"
	"path/filepath"
	"testing"
)

func TestLocalGoFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	exampleFile := filepath.Join(examplePath(t, "typos"), "main.go")
	content := readFileBytes(t, exampleFile)

	file, err := adapter.Parse(context.Background(), fset, exampleFile, content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if file.Name.Name != "main" {
		t.Fatalf("Parse() package = %s, want main", file.Name.Name)
	}

	if len(file.Comments) == 0 {
		t.Fatalf("Parse() dropped comments")
	}
}

func TestLocalGoFileAdapter_Parse_InvalidSource(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	if _, err := adapter.Parse(context.Background(), fset, "broken.go", []byte("package foo\n func")); err == nil {
		t.Fatalf("Parse() expected error for invalid source")
	}
}

func TestLocalGoFileAdapter_Parse_ContextCancellation(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := adapter.Parse(ctx, fset, "example.go", []byte("package main\n func main() {}")); err == nil {
		t.Fatalf("Parse() expected error due to context cancellation")
	}
}

func TestLocalGoFileAdapter_DocComments(t *testing.T) {
	src := `// Package p is documented.
package p

// T is a type.
type T struct {
	// F is a field.
	F int
}

func f() {
	// inside a body
	_ = 1
}
`
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	file, err := adapter.Parse(context.Background(), fset, "p.go", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	docs := adapter.DocComments(file)

	var doc, other int

	for _, cg := range file.Comments {
		if docs[cg] {
			doc++
		} else {
			other++
		}
	}

	if doc != 3 || other != 1 {
		t.Fatalf("DocComments() doc=%d other=%d, want 3 and 1", doc, other)
	}
}

func TestLocalGoFileAdapter_StringLiterals(t *testing.T) {
	src := "package p\n\nimport \"fmt\"\n\ntype T struct {\n\tA int `json:\"a\"`\n}\n\nvar s = \"hello\"\nvar r = `raw`\n\nfunc f() { fmt.Println(\"bye\") }\n"

	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	file, err := adapter.Parse(context.Background(), fset, "p.go", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	lits := adapter.StringLiterals(file)

	var got []string
	for _, lit := range lits {
		got = append(got, lit.Value)
	}

	want := []string{`"hello"`, "`raw`", `"bye"`}
	if len(got) != len(want) {
		t.Fatalf("StringLiterals() = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("StringLiterals()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

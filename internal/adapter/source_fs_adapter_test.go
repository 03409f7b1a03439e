package adapter

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	m "quill.dev/pkg/quill/internal/model"
)

func TestLocalSourceFSAdapter_Walk(t *testing.T) {
	t.Run("non recursive skips nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "main.go"), "package main\n")

		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		writeTestFile(t, filepath.Join(nestedDir, "child.go"), "package nested\n")

		var visited []string
		err := adapter.Walk(m.Path(root), false, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		for _, forbidden := range []string{nestedDir, filepath.Join(nestedDir, "child.go")} {
			if containsPath(visited, forbidden) {
				t.Fatalf("Walk() unexpectedly visited %s when recursive is false", forbidden)
			}
		}

		if !containsPath(visited, filepath.Join(root, "main.go")) {
			t.Fatalf("Walk() did not visit top-level file")
		}
	})

	t.Run("recursive visits nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		child := filepath.Join(nestedDir, "child.go")
		writeTestFile(t, child, "package nested\n")

		var visited []string
		err := adapter.Walk(m.Path(root), true, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		if !containsPath(visited, child) {
			t.Fatalf("Walk() did not visit nested file when recursive")
		}
	})
}

func TestLocalSourceFSAdapter_Get(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeTestFile(t, filepath.Join(root, "README.md"), "# title\n")
	writeTestFile(t, filepath.Join(root, "notes.txt"), "ignored\n")
	mustMkdir(t, filepath.Join(root, "sub"))
	writeTestFile(t, filepath.Join(root, "sub", "sub.go"), "package sub\n")
	writeTestFile(t, filepath.Join(root, "sub", "gen.pb.go"), "package sub\n")
	mustMkdir(t, filepath.Join(root, "vendor"))
	writeTestFile(t, filepath.Join(root, "vendor", "dep.go"), "package dep\n")

	adapter := NewLocalSourceFSAdapter()
	ctx := context.Background()

	tests := []struct {
		name    string
		roots   []m.Path
		include []string
		exclude []string
		want    []string
	}{
		{
			name:  "directory is not recursive",
			roots: []m.Path{m.Path(root)},
			want:  []string{"README.md", "main.go"},
		},
		{
			name:  "recursive pattern walks sub directories but not vendor",
			roots: []m.Path{m.Path(root + "/...")},
			want:  []string{"README.md", "main.go", "sub/gen.pb.go", "sub/sub.go"},
		},
		{
			name:    "exclude drops generated files",
			roots:   []m.Path{m.Path(root + "/...")},
			exclude: []string{"**/*.pb.go"},
			want:    []string{"README.md", "main.go", "sub/sub.go"},
		},
		{
			name:    "include narrows to markdown",
			roots:   []m.Path{m.Path(root + "/...")},
			include: []string{"**/*.md"},
			want:    []string{"README.md"},
		},
		{
			name:  "duplicates collapse",
			roots: []m.Path{m.Path(filepath.Join(root, "main.go")), m.Path(root)},
			want:  []string{"README.md", "main.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources, err := adapter.Get(ctx, tt.roots, tt.include, tt.exclude)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}

			var got []string
			for _, s := range sources {
				rel, err := filepath.Rel(root, string(s.Origin.FullPath))
				if err != nil {
					t.Fatalf("Rel() error = %v", err)
				}
				got = append(got, filepath.ToSlash(rel))
			}

			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("Get() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("languages are detected", func(t *testing.T) {
		sources, err := adapter.Get(ctx, []m.Path{m.Path(root)}, nil, nil)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}

		if sources[0].Language != m.LanguageMarkdown || sources[1].Language != m.LanguageGo {
			t.Fatalf("Get() languages = %s, %s", sources[0].Language, sources[1].Language)
		}
	})

	t.Run("missing path is an io error", func(t *testing.T) {
		_, err := adapter.Get(ctx, []m.Path{m.Path(filepath.Join(root, "missing"))}, nil, nil)
		if !errors.Is(err, m.ErrIO) {
			t.Fatalf("Get() error = %v, want ErrIO", err)
		}
	})

	t.Run("explicit unsupported file is rejected", func(t *testing.T) {
		if _, err := adapter.Get(ctx, []m.Path{m.Path(filepath.Join(root, "notes.txt"))}, nil, nil); err == nil {
			t.Fatalf("Get() expected error for unsupported file")
		}
	})

	t.Run("invalid pattern is rejected", func(t *testing.T) {
		if _, err := adapter.Get(ctx, []m.Path{m.Path(root)}, []string{"[a-"}, nil); err == nil {
			t.Fatalf("Get() expected error for invalid pattern")
		}
	})
}

func TestLocalSourceFSAdapter_ReadFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	content := "package main\n" + "func main() {}\n"
	writeTestFile(t, path, content)

	got, err := adapter.ReadFile(m.Path(path))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(got) != content {
		t.Fatalf("ReadFile() = %q, want %q", string(got), content)
	}

	if _, err := adapter.ReadFile(m.Path(filepath.Join(root, "missing.go"))); !errors.Is(err, m.ErrIO) {
		t.Fatalf("ReadFile() error = %v, want ErrIO", err)
	}
}

func TestLocalSourceFSAdapter_HashFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	content := []byte("package main\nfunc main() {}\n")
	writeTestBytes(t, path, content)

	expected := fmt.Sprintf("%x", sha256.Sum256(content))

	hash, err := adapter.HashFile(m.Path(path))
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	if hash != expected {
		t.Fatalf("HashFile() = %s, want %s", hash, expected)
	}

	if HashBytes(content) != expected {
		t.Fatalf("HashBytes() = %s, want %s", HashBytes(content), expected)
	}
}

func TestLocalSourceFSAdapter_WriteFileKeepsMode(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	path := filepath.Join(root, "script.go")
	writeTestFile(t, path, "package old\n")

	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}

	if err := adapter.WriteFile(m.Path(path), []byte("package updated\n")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got := readFileBytes(t, path)
	if string(got) != "package updated\n" {
		t.Fatalf("WriteFile() content = %q", got)
	}

	info, err := adapter.FileInfo(m.Path(path))
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}

	if info.Mode().Perm() != 0o600 {
		t.Fatalf("WriteFile() mode = %v, want 0600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("WriteFile() left temporary files behind: %d entries", len(entries))
	}
}

func TestLocalSourceFSAdapter_WriteFileMissing(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	err := adapter.WriteFile(m.Path(filepath.Join(t.TempDir(), "nope.go")), []byte("x"))
	if !errors.Is(err, m.ErrIO) {
		t.Fatalf("WriteFile() error = %v, want ErrIO", err)
	}
}

func examplePath(t *testing.T, name string) string {
	t.Helper()

	return filepath.Join("..", "..", "examples", name)
}

func readFileBytes(t *testing.T, path string) []byte {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}

	return content
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	writeTestBytes(t, path, []byte(contents))
}

func writeTestBytes(t *testing.T, path string, contents []byte) {
	t.Helper()
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("failed to create dir %s: %v", path, err)
	}
}

func containsPath(paths []string, target string) bool {
	for _, p := range paths {
		if p == target {
			return true
		}
	}

	return false
}

// Package adapter contains infrastructure adapters for the quill CLI.
package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	m "quill.dev/pkg/quill/internal/model"
)

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when scanning user projects. It hides direct `os` access so the
// workflow logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// Get resolves path arguments into the sources to check. A path ending in
	// "/..." is walked recursively, a directory contributes its direct
	// children and a file is taken as-is. Include and exclude are doublestar
	// patterns matched against slash-separated paths.
	Get(ctx context.Context, roots []m.Path, include, exclude []string) ([]m.Source, error)

	// Walk traverses the provided root path. When recursive is false the
	// implementation limits itself to the root directory.
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns a stable fingerprint (SHA-256) for the file at path.
	HashFile(path m.Path) (string, error)

	// FileInfo returns metadata for a path.
	FileInfo(path m.Path) (os.FileInfo, error)

	// WriteFile replaces the content of an existing file, keeping its mode.
	WriteFile(path m.Path, content []byte) error
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

var skippedDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// LanguageFor returns the language of a path based on its extension.
func LanguageFor(path string) (m.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return m.LanguageGo, true
	case ".md", ".markdown":
		return m.LanguageMarkdown, true
	default:
		return "", false
	}
}

// Get expands roots into a sorted, de-duplicated list of sources.
func (a *LocalSourceFSAdapter) Get(ctx context.Context, roots []m.Path, include, exclude []string) ([]m.Source, error) {
	if err := validatePatterns(append(append([]string{}, include...), exclude...)); err != nil {
		return nil, err
	}

	seen := make(map[m.Path]bool)

	var sources []m.Source

	add := func(root, path string, explicit bool) error {
		lang, ok := LanguageFor(path)
		if !ok {
			if explicit {
				return fmt.Errorf("unsupported file type: %s", path)
			}

			return nil
		}

		if matchAny(exclude, root, path) || (!explicit && len(include) > 0 && !matchAny(include, root, path)) {
			return nil
		}

		full, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		if seen[m.Path(full)] {
			return nil
		}

		seen[m.Path(full)] = true

		sources = append(sources, m.Source{
			Origin:   &m.File{ShortPath: m.Path(filepath.Clean(path)), FullPath: m.Path(full)},
			Language: lang,
		})

		return nil
	}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rootStr := string(root)

		recursive := false
		if rootStr == "..." || strings.HasSuffix(rootStr, "/...") {
			recursive = true
			rootStr = strings.TrimSuffix(strings.TrimSuffix(rootStr, "..."), "/")

			if rootStr == "" {
				rootStr = "."
			}
		}

		info, err := os.Stat(rootStr)
		if err != nil {
			return nil, &m.IOError{Path: m.Path(rootStr), Op: "stat", Err: err}
		}

		if !info.IsDir() {
			if err := add(filepath.Dir(rootStr), rootStr, true); err != nil {
				return nil, err
			}

			continue
		}

		err = a.Walk(m.Path(rootStr), recursive, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if path != rootStr && (skippedDirs[info.Name()] || strings.HasPrefix(info.Name(), ".") ||
					matchAny(exclude, rootStr, path)) {
					return filepath.SkipDir
				}

				return nil
			}

			return add(rootStr, path, false)
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Origin.ShortPath < sources[j].Origin.ShortPath
	})

	return sources, nil
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid path pattern %q", p)
		}
	}

	return nil
}

// matchAny tries each pattern against the path as given and relative to the
// root it was found under.
func matchAny(patterns []string, root, path string) bool {
	candidates := []string{filepath.ToSlash(filepath.Clean(path))}
	if rel, err := filepath.Rel(root, path); err == nil {
		candidates = append(candidates, filepath.ToSlash(rel))
	}

	for _, p := range patterns {
		for _, c := range candidates {
			if ok, _ := doublestar.Match(p, c); ok {
				return true
			}
		}
	}

	return false
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && !recursive && path != rootStr {
			return filepath.SkipDir
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	// #nosec G304 - path comes from the user's own project tree
	content, err := os.ReadFile(string(path))
	if err != nil {
		return nil, &m.IOError{Path: path, Op: "read", Err: err}
	}

	return content, nil
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	// #nosec G304 - path comes from the user's own project tree
	f, err := os.Open(string(path))
	if err != nil {
		return "", &m.IOError{Path: path, Op: "open", Err: err}
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &m.IOError{Path: path, Op: "hash", Err: err}
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// HashBytes returns the SHA-256 hash of content in the HashFile format.
func HashBytes(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// WriteFile writes content through a temporary sibling and renames it into
// place so a failed write never leaves a truncated source file.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte) error {
	target := string(path)

	info, err := os.Stat(target)
	if err != nil {
		return &m.IOError{Path: path, Op: "stat", Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".quill-*")
	if err != nil {
		return &m.IOError{Path: path, Op: "write", Err: err}
	}

	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()

		cleanup()

		return &m.IOError{Path: path, Op: "write", Err: err}
	}

	if err := tmp.Close(); err != nil {
		cleanup()

		return &m.IOError{Path: path, Op: "write", Err: err}
	}

	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		cleanup()

		return &m.IOError{Path: path, Op: "chmod", Err: err}
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		cleanup()

		return &m.IOError{Path: path, Op: "rename", Err: err}
	}

	return nil
}

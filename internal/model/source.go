// Package model defines the data structures shared by the extraction,
// checking and fixing stages.
package model

// Path represents a file system path.
type Path string

// Language identifies how a source file is extracted.
type Language string

const (
	// LanguageGo covers .go files parsed with go/parser.
	LanguageGo Language = "go"
	// LanguageMarkdown covers .md files checked as a whole.
	LanguageMarkdown Language = "markdown"
)

// File represents a source code file.
type File struct {
	ShortPath Path
	FullPath  Path
	Hash      string
}

// Source is a file selected for checking.
type Source struct {
	Origin   *File
	Language Language
}

// Path returns the path used in reports.
func (s Source) Path() Path {
	if s.Origin == nil {
		return ""
	}

	if s.Origin.ShortPath != "" {
		return s.Origin.ShortPath
	}

	return s.Origin.FullPath
}

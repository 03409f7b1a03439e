package model

// FragmentKind classifies where a piece of prose came from.
type FragmentKind int

const (
	// KindLineComment is a non-doc // comment.
	KindLineComment FragmentKind = iota
	// KindBlockComment is a non-doc /* */ comment.
	KindBlockComment
	// KindDocComment is a comment attached to a declaration or package clause.
	KindDocComment
	// KindStringLiteral is the content of a string literal.
	KindStringLiteral
	// KindMarkdown is a line of a Markdown document.
	KindMarkdown
)

func (k FragmentKind) String() string {
	switch k {
	case KindLineComment:
		return "line-comment"
	case KindBlockComment:
		return "block-comment"
	case KindDocComment:
		return "doc-comment"
	case KindStringLiteral:
		return "string"
	case KindMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// Fragment is one line of prose with its markers already stripped. Text is
// always equal to source[Span.Start:Span.End].
type Fragment struct {
	Kind FragmentKind
	// Group ties together fragments that form one logical text block, such
	// as consecutive // lines or the lines of one block comment.
	Group int
	Span  Span
	Text  string
	// Block marks the lines of a /* */ comment or a raw string, whose first
	// line starts right after the opening delimiter.
	Block bool
	// Quote is the opening delimiter for string literals, 0 otherwise.
	Quote byte
}

package domain

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

type separator int

const (
	sepNone separator = iota
	sepSpace
	sepNewline
)

// proseSegment is a run of checkable text in the joined document together
// with the separator that must precede it.
type proseSegment struct {
	Start int
	Stop  int
	Sep   separator
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))

var entityReference = regexp.MustCompile(`&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[A-Za-z][A-Za-z0-9]{1,31});`)

// proseSegments parses src as Markdown and returns the positions of its
// visible prose. Code spans, code blocks, autolinks, bare URLs, raw HTML and
// entity references are left out; link reference definitions never reach the
// tree. Text split only by emphasis or link delimiters stays joined.
func proseSegments(src []byte) []proseSegment {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var (
		out       []proseSegment
		lastBlock ast.Node
		pending   = sepNone
		skipped   bool
	)

	emit := func(start, stop int, sep separator) separator {
		if stop <= start {
			return sep
		}

		out = append(out, proseSegment{Start: start, Stop: stop, Sep: sep})

		return sepNone
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.CodeSpan, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.AutoLink:
			skipped = true

			return ast.WalkSkipChildren, nil
		case *ast.Text:
			seg := node.Segment
			block := enclosingBlock(node)

			sep := sepNone

			switch {
			case lastBlock != nil && block != lastBlock:
				sep = sepNewline
			case pending != sepNone:
				sep = pending
			case skipped:
				sep = sepSpace
			}

			pos := seg.Start
			for _, loc := range entityReference.FindAllIndex(src[seg.Start:seg.Stop], -1) {
				sep = max(emit(pos, seg.Start+loc[0], sep), sepSpace)
				pos = seg.Start + loc[1]
			}

			pending = emit(pos, seg.Stop, sep)

			switch {
			case node.HardLineBreak():
				pending = sepNewline
			case node.SoftLineBreak() && pending < sepSpace:
				pending = sepSpace
			}

			lastBlock = block
			skipped = false
		}

		return ast.WalkContinue, nil
	})

	return out
}

func enclosingBlock(n ast.Node) ast.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock {
			return p
		}
	}

	return nil
}

// Package checkers provides the backends that inspect normalized prose and
// report findings in chunk coordinates.
package checkers

import (
	"context"

	m "quill.dev/pkg/quill/internal/model"
)

// Checker inspects one chunk at a time. Implementations must be safe for
// concurrent use and must only report ranges inside chunk.Text.
type Checker interface {
	Detector() m.Detector
	Check(ctx context.Context, chunk *m.CheckableChunk) ([]m.RawSuggestion, error)
}

// Remote is implemented by checkers that call out over the network and should
// run on their own, smaller worker pool.
type Remote interface {
	Checker
	IsRemote() bool
}

// IsRemote reports whether c wants the remote worker pool.
func IsRemote(c Checker) bool {
	r, ok := c.(Remote)

	return ok && r.IsRemote()
}

package domain

import (
	"log/slog"
	"sort"

	m "quill.dev/pkg/quill/internal/model"
)

// Reconciler resolves chunk findings to source spans and merges findings
// that overlap into single suggestions.
type Reconciler interface {
	Reconcile(path m.Path, content []byte, chunks []*m.CheckableChunk, findings []ChunkFinding) ([]m.Suggestion, []error)
}

type reconciler struct {
	priority map[m.Detector]int
}

// NewReconciler creates a Reconciler that orders merged messages and
// replacements by the given backend priority.
func NewReconciler(priority []m.Detector) Reconciler {
	return &reconciler{priority: priorityIndex(priority)}
}

type resolved struct {
	span         m.Span
	detector     m.Detector
	message      string
	replacements []string
}

// Reconcile returns suggestions sorted by position with pairwise disjoint
// spans. Findings that cannot be mapped back are returned as defects.
func (r *reconciler) Reconcile(path m.Path, content []byte, chunks []*m.CheckableChunk, findings []ChunkFinding) ([]m.Suggestion, []error) {
	var (
		items   []resolved
		defects []error
	)

	for _, f := range findings {
		if f.Chunk < 0 || f.Chunk >= len(chunks) {
			defects = append(defects, &m.MappingDefect{Path: path, Range: f.Raw.Range, Reason: "unknown chunk"})

			continue
		}

		span, err := chunks[f.Chunk].Resolve(f.Raw.Range)
		if err != nil {
			slog.Debug("Dropping unmappable finding", "path", path, "backend", f.Raw.Detector, "range", f.Raw.Range, "error", err)
			defects = append(defects, err)

			continue
		}

		items = append(items, resolved{
			span:         span,
			detector:     f.Raw.Detector,
			message:      f.Raw.Message,
			replacements: f.Raw.Replacements,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].span.Start != items[j].span.Start {
			return items[i].span.Start < items[j].span.Start
		}

		return items[i].span.End < items[j].span.End
	})

	index := m.NewLineIndex(content)

	var out []m.Suggestion

	for _, cluster := range clusterOverlapping(items) {
		out = append(out, r.merge(path, content, index, cluster))
	}

	return out, defects
}

// clusterOverlapping groups sorted items whose spans overlap the running
// union of the current group.
func clusterOverlapping(items []resolved) [][]resolved {
	var (
		clusters [][]resolved
		union    m.Span
	)

	for _, it := range items {
		n := len(clusters)
		if n > 0 && union.Overlaps(it.span) {
			clusters[n-1] = append(clusters[n-1], it)
			union = union.Cover(it.span)

			continue
		}

		clusters = append(clusters, []resolved{it})
		union = it.span
	}

	return clusters
}

// merge reports a cluster once under the union of its spans. Replacements of
// narrower members are widened with the surrounding original bytes.
func (r *reconciler) merge(path m.Path, content []byte, index *m.LineIndex, cluster []resolved) m.Suggestion {
	union := cluster[0].span
	for _, it := range cluster[1:] {
		union = union.Cover(it.span)
	}

	sort.SliceStable(cluster, func(i, j int) bool {
		return r.priority[cluster[i].detector] < r.priority[cluster[j].detector]
	})

	original := string(content[union.Start:union.End])

	var (
		detectors    []m.Detector
		messages     []string
		replacements []string
		seenDetector = map[m.Detector]bool{}
		seenMessage  = map[string]bool{}
		seenRepl     = map[string]bool{original: true}
	)

	for _, it := range cluster {
		if !seenDetector[it.detector] {
			seenDetector[it.detector] = true
			detectors = append(detectors, it.detector)
		}

		if it.message != "" && !seenMessage[it.message] {
			seenMessage[it.message] = true
			messages = append(messages, it.message)
		}

		prefix := string(content[union.Start:it.span.Start])
		suffix := string(content[it.span.End:union.End])

		for _, c := range it.replacements {
			widened := prefix + c + suffix
			if !seenRepl[widened] {
				seenRepl[widened] = true
				replacements = append(replacements, widened)
			}
		}
	}

	start := index.Position(union.Start)
	line := index.LineBounds(start.Line)

	return m.Suggestion{
		Path:         path,
		Span:         union,
		Start:        start,
		End:          index.Position(union.End),
		Original:     original,
		Detectors:    detectors,
		Messages:     messages,
		Replacements: replacements,
		Line:         string(content[line.Start:line.End]),
	}
}

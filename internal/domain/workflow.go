package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"quill.dev/pkg/quill/internal/adapter"
	"quill.dev/pkg/quill/internal/controller"
	"quill.dev/pkg/quill/internal/domain/checkers"
	m "quill.dev/pkg/quill/internal/model"
)

// CheckArgs contains the arguments for a check run.
type CheckArgs struct {
	Paths    []m.Path
	Include  []string
	Exclude  []string
	Threads  int
	FailFast bool
	UseCache bool
	// Fingerprint identifies the configuration that produced cached results.
	Fingerprint string
}

// FixArgs contains the arguments for a fix run.
type FixArgs struct {
	CheckArgs
	DryRun bool
}

// Workflow defines the check, fix and list operations.
type Workflow interface {
	Check(ctx context.Context, args CheckArgs) (m.RunReport, error)
	Fix(ctx context.Context, args FixArgs) (m.FixResult, error)
	List(ctx context.Context, args CheckArgs) ([]m.ChunkStat, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ResultStore
	controller.UI
	Extractor
	Normalizer
	Orchestrator
	Reconciler
	Applicator
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	resultStore adapter.ResultStore,
	ui controller.UI,
	extractor Extractor,
	normalizer Normalizer,
	orchestrator Orchestrator,
	reconciler Reconciler,
	applicator Applicator,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ResultStore:     resultStore,
		UI:              ui,
		Extractor:       extractor,
		Normalizer:      normalizer,
		Orchestrator:    orchestrator,
		Reconciler:      reconciler,
		Applicator:      applicator,
	}
}

func (w *workflow) Check(ctx context.Context, args CheckArgs) (m.RunReport, error) {
	report, err := w.run(ctx, args)
	if err != nil && len(report.Files) == 0 {
		return report, err
	}

	if displayErr := w.DisplayReport(context.WithoutCancel(ctx), report); displayErr != nil {
		slog.Error("Failed to display report", "error", displayErr)

		return report, fmt.Errorf("display: %w", displayErr)
	}

	return report, err
}

// preparedFile is a source that has been read, extracted and normalized, or
// whose findings were loaded from the result store.
type preparedFile struct {
	source    m.Source
	content   []byte
	chunks    []*m.CheckableChunk
	fragments int
	cached    *m.FileReport
	err       error
	ready     bool
}

func (w *workflow) run(ctx context.Context, args CheckArgs) (m.RunReport, error) {
	sources, err := w.Get(ctx, args.Paths, args.Include, args.Exclude)
	if err != nil {
		slog.Error("Failed to get sources", "paths", args.Paths, "error", err)

		return m.RunReport{}, fmt.Errorf("get sources: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	prepared := w.prepareAll(runCtx, cancel, sources, args)

	var (
		pending []FileChunks
		slots   = map[int]int{}
	)

	for i, p := range prepared {
		if p.ready && p.err == nil && p.cached == nil {
			slots[i] = len(pending)
			pending = append(pending, FileChunks{Source: p.source, Chunks: p.chunks})
		}
	}

	findings, runErr := w.Run(runCtx, pending)
	if runErr != nil {
		slog.Warn("Check run stopped early", "error", runErr)
	}

	report := m.RunReport{}
	unchecked := 0

	for i, p := range prepared {
		switch {
		case !p.ready:
			unchecked++
		case p.err != nil:
			report.Files = append(report.Files, m.FileReport{Source: p.source, Err: p.err})
		case p.cached != nil:
			report.Files = append(report.Files, *p.cached)
		case !findings[slots[i]].Complete:
			unchecked++
		default:
			report.Files = append(report.Files, w.reconcileFile(p, findings[slots[i]], args))
		}
	}

	sort.SliceStable(report.Files, func(i, j int) bool {
		return report.Files[i].Source.Path() < report.Files[j].Source.Path()
	})

	report.Warnings = collectWarnings(report.Files)
	if unchecked > 0 {
		report.Warnings = append(report.Warnings, fmt.Errorf("%d file(s) not checked: %w", unchecked, context.Cause(runCtx)))
	}

	return report, ctx.Err()
}

func (w *workflow) prepareAll(ctx context.Context, cancel context.CancelFunc, sources []m.Source, args CheckArgs) []preparedFile {
	prepared := make([]preparedFile, len(sources))

	var group errgroup.Group

	group.SetLimit(threadsOrDefault(args.Threads))

	for i := range sources {
		if ctx.Err() != nil {
			break
		}

		group.Go(func() error {
			prepared[i] = w.prepare(ctx, sources[i], args)

			if err := prepared[i].err; err != nil {
				slog.Error("Failed to prepare file", "path", sources[i].Path(), "error", err)

				if args.FailFast {
					cancel()
				}
			}

			return nil
		})
	}

	_ = group.Wait()

	return prepared
}

func (w *workflow) prepare(ctx context.Context, source m.Source, args CheckArgs) preparedFile {
	p := preparedFile{source: source}

	if ctx.Err() != nil || source.Origin == nil {
		return p
	}

	content, err := w.ReadFile(source.Origin.FullPath)
	if err != nil {
		p.err, p.ready = err, true

		return p
	}

	p.content = content
	source.Origin.Hash = adapter.HashBytes(content)

	if args.UseCache {
		suggestions, chunks, ok, err := w.Load(source.Origin.FullPath, source.Origin.Hash, args.Fingerprint)

		switch {
		case err != nil:
			slog.Warn("Failed to load cached result", "path", source.Path(), "error", err)
		case ok:
			slog.Debug("Using cached result", "path", source.Path())

			p.cached = &m.FileReport{Source: source, Suggestions: suggestions, Chunks: chunks, Cached: true}
			p.ready = true

			return p
		}
	}

	fragments, err := w.Extract(ctx, source, content)
	if err != nil {
		if ctx.Err() != nil {
			return p
		}

		p.err, p.ready = err, true

		return p
	}

	chunks, err := w.Normalize(source.Path(), fragments, content)
	if err != nil {
		p.err, p.ready = err, true

		return p
	}

	p.fragments = len(fragments)
	p.chunks = chunks
	p.ready = true

	return p
}

func (w *workflow) reconcileFile(p preparedFile, findings FileFindings, args CheckArgs) m.FileReport {
	suggestions, defects := w.Reconcile(p.source.Path(), p.content, p.chunks, findings.Findings)
	if len(defects) > 0 {
		slog.Debug("Dropped unmappable findings", "path", p.source.Path(), "count", len(defects))
	}

	fr := m.FileReport{
		Source:      p.source,
		Suggestions: suggestions,
		Chunks:      len(p.chunks),
		Defects:     defects,
		Warnings:    findings.Warnings,
	}

	if args.UseCache && len(findings.Warnings) == 0 {
		if err := w.Save(p.source.Origin.FullPath, p.source.Origin.Hash, args.Fingerprint, suggestions, len(p.chunks)); err != nil {
			slog.Warn("Failed to save result", "path", p.source.Path(), "error", err)
		}
	}

	return fr
}

// collectWarnings returns every distinct file warning in report order.
func collectWarnings(files []m.FileReport) []error {
	var out []error

	seen := map[string]bool{}

	for _, f := range files {
		for _, w := range f.Warnings {
			if !seen[w.Error()] {
				seen[w.Error()] = true
				out = append(out, w)
			}
		}
	}

	return out
}

func (w *workflow) Fix(ctx context.Context, args FixArgs) (m.FixResult, error) {
	result := m.FixResult{DryRun: args.DryRun}

	report, err := w.run(ctx, args.CheckArgs)
	if err != nil {
		return result, err
	}

	for _, f := range report.Files {
		if f.Err != nil {
			slog.Warn("Skipping file that failed to check", "path", f.Source.Path(), "error", f.Err)
		}
	}

	decisions, err := w.Review(ctx, report.Suggestions())
	if err != nil {
		return result, fmt.Errorf("review: %w", err)
	}

	byPath := map[m.Path][]m.Decision{}
	for _, d := range decisions {
		byPath[d.Suggestion.Path] = append(byPath[d.Suggestion.Path], d)
	}

	for _, f := range report.Files {
		if decs := byPath[f.Source.Path()]; len(decs) > 0 {
			result.Files = append(result.Files, w.fixFile(f.Source, decs, args.DryRun))
		}
	}

	if err := w.DisplayFixResult(ctx, result); err != nil {
		return result, fmt.Errorf("display: %w", err)
	}

	return result, nil
}

func (w *workflow) fixFile(source m.Source, decisions []m.Decision, dryRun bool) m.FileFix {
	fix := m.FileFix{Path: source.Path()}

	var edits []m.Edit

	for _, d := range decisions {
		if d.Skipped() {
			fix.Skipped++

			continue
		}

		edits = append(edits, d.Edit())
	}

	if len(edits) == 0 {
		return fix
	}

	content, err := w.ReadFile(source.Origin.FullPath)
	if err != nil {
		fix.Err = err

		return fix
	}

	if source.Origin.Hash != "" && adapter.HashBytes(content) != source.Origin.Hash {
		fix.Err = &m.ApplyConflict{Path: source.Path(), Reason: "file changed since check"}

		return fix
	}

	updated, err := w.Apply(source.Path(), content, edits)
	if err != nil {
		slog.Error("Failed to apply edits", "path", source.Path(), "error", err)
		fix.Err = err

		return fix
	}

	if dryRun {
		diff, err := unifiedDiff(source.Path(), content, updated)
		if err != nil {
			fix.Err = err

			return fix
		}

		fix.Diff = diff
		fix.Applied = len(edits)

		return fix
	}

	if err := w.WriteFile(source.Origin.FullPath, updated); err != nil {
		fix.Err = err

		return fix
	}

	fix.Applied = len(edits)

	return fix
}

func unifiedDiff(path m.Path, before, after []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + string(path),
		ToFile:   "b/" + string(path),
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", path, err)
	}

	return text, nil
}

func (w *workflow) List(ctx context.Context, args CheckArgs) ([]m.ChunkStat, error) {
	sources, err := w.Get(ctx, args.Paths, args.Include, args.Exclude)
	if err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}

	stats := make([]m.ChunkStat, len(sources))

	var group errgroup.Group

	group.SetLimit(threadsOrDefault(args.Threads))

	for i := range sources {
		group.Go(func() error {
			p := w.prepare(ctx, sources[i], CheckArgs{})

			stat := m.ChunkStat{Path: sources[i].Path(), Fragments: p.fragments, Chunks: len(p.chunks), Err: p.err}
			if !p.ready && p.err == nil {
				stat.Err = errors.Join(errors.New("not processed"), ctx.Err())
			}

			for _, c := range p.chunks {
				stat.Words += checkers.CountWords(c.Text)
			}

			stats[i] = stat

			return nil
		})
	}

	_ = group.Wait()

	if err := w.DisplayChunkStats(ctx, stats); err != nil {
		return stats, fmt.Errorf("display: %w", err)
	}

	return stats, nil
}

func threadsOrDefault(threads int) int {
	if threads <= 0 {
		return runtime.NumCPU()
	}

	return threads
}

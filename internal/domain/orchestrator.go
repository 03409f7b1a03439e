package domain

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"quill.dev/pkg/quill/internal/domain/checkers"
	m "quill.dev/pkg/quill/internal/model"
)

// FileChunks pairs a source with the chunks extracted from it.
type FileChunks struct {
	Source m.Source
	Chunks []*m.CheckableChunk
}

// ChunkFinding is a raw suggestion together with the index of the chunk it
// was found in.
type ChunkFinding struct {
	Chunk int
	Raw   m.RawSuggestion
}

// FileFindings collects the raw output of every backend for one file.
type FileFindings struct {
	Findings []ChunkFinding
	// Warnings holds backend failures, one per distinct message.
	Warnings []error
	// Complete is false when cancellation kept some checks from running.
	Complete bool
}

// OrchestratorOptions bounds the worker pools.
type OrchestratorOptions struct {
	Threads       int
	RemoteThreads int
	Priority      []m.Detector
}

// Orchestrator runs every checker over every chunk of every file.
type Orchestrator interface {
	Run(ctx context.Context, files []FileChunks) ([]FileFindings, error)
}

type orchestrator struct {
	local    []checkers.Checker
	remote   []checkers.Checker
	opts     OrchestratorOptions
	priority map[m.Detector]int
}

// NewOrchestrator creates an Orchestrator. Remote checkers get their own pool
// so slow network calls never hold up local ones.
func NewOrchestrator(backends []checkers.Checker, opts OrchestratorOptions) Orchestrator {
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}

	if opts.RemoteThreads <= 0 {
		opts.RemoteThreads = 2
	}

	o := &orchestrator{opts: opts, priority: priorityIndex(opts.Priority)}

	for _, b := range backends {
		if checkers.IsRemote(b) {
			o.remote = append(o.remote, b)
		} else {
			o.local = append(o.local, b)
		}
	}

	return o
}

// priorityIndex ranks detectors by their position in order. Detectors not
// listed rank after all listed ones, in declaration order.
func priorityIndex(order []m.Detector) map[m.Detector]int {
	index := make(map[m.Detector]int, len(m.Detectors))

	for i, d := range order {
		if _, seen := index[d]; !seen {
			index[d] = i
		}
	}

	for _, d := range m.Detectors {
		if _, ok := index[d]; !ok {
			index[d] = len(order) + int(d)
		}
	}

	return index
}

type fileState struct {
	mu       sync.Mutex
	findings []ChunkFinding
	warnings []error
	seen     map[string]bool
	pending  int
}

func (s *fileState) record(chunk int, raws []m.RawSuggestion, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending--

	for _, raw := range raws {
		s.findings = append(s.findings, ChunkFinding{Chunk: chunk, Raw: raw})
	}

	if err != nil && !s.seen[err.Error()] {
		s.seen[err.Error()] = true
		s.warnings = append(s.warnings, err)
	}
}

func (o *orchestrator) Run(ctx context.Context, files []FileChunks) ([]FileFindings, error) {
	states := make([]*fileState, len(files))
	for i, f := range files {
		states[i] = &fileState{
			seen:    map[string]bool{},
			pending: len(f.Chunks) * (len(o.local) + len(o.remote)),
		}
	}

	var local, remote errgroup.Group

	local.SetLimit(o.opts.Threads)
	remote.SetLimit(o.opts.RemoteThreads)

	scheduled := make(chan struct{})

	go func() {
		defer close(scheduled)
		o.schedule(ctx, &remote, o.remote, files, states)
	}()

	o.schedule(ctx, &local, o.local, files, states)

	<-scheduled

	_ = local.Wait()
	_ = remote.Wait()

	out := make([]FileFindings, len(files))
	for i, s := range states {
		o.sortFindings(s.findings)
		out[i] = FileFindings{Findings: s.findings, Warnings: s.warnings, Complete: s.pending == 0}
	}

	return out, ctx.Err()
}

func (o *orchestrator) schedule(ctx context.Context, group *errgroup.Group, backends []checkers.Checker, files []FileChunks, states []*fileState) {
	for i, file := range files {
		for idx, chunk := range file.Chunks {
			for _, backend := range backends {
				if ctx.Err() != nil {
					return
				}

				group.Go(o.task(ctx, file.Source, states[i], idx, chunk, backend))
			}
		}
	}
}

func (o *orchestrator) task(ctx context.Context, source m.Source, state *fileState, idx int, chunk *m.CheckableChunk, backend checkers.Checker) func() error {
	return func() error {
		if ctx.Err() != nil {
			return nil
		}

		raws, err := backend.Check(ctx, chunk)
		if err != nil && ctx.Err() != nil {
			return nil
		}

		if err != nil {
			slog.Warn("Checker failed", "path", source.Path(), "backend", backend.Detector(), "error", err)

			var unavailable *m.BackendUnavailable
			if !errors.As(err, &unavailable) {
				err = &m.BackendUnavailable{Detector: backend.Detector(), Err: err}
			}
		}

		state.record(idx, raws, err)

		return nil
	}
}

func (o *orchestrator) sortFindings(findings []ChunkFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]

		if a.Chunk != b.Chunk {
			return a.Chunk < b.Chunk
		}

		if a.Raw.Range.Start != b.Raw.Range.Start {
			return a.Raw.Range.Start < b.Raw.Range.Start
		}

		if pa, pb := o.priority[a.Raw.Detector], o.priority[b.Raw.Detector]; pa != pb {
			return pa < pb
		}

		if a.Raw.Range.End != b.Raw.Range.End {
			return a.Raw.Range.End < b.Raw.Range.End
		}

		if a.Raw.Message != b.Raw.Message {
			return a.Raw.Message < b.Raw.Message
		}

		return strings.Join(a.Raw.Replacements, "\x00") < strings.Join(b.Raw.Replacements, "\x00")
	})
}

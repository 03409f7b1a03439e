package controller

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "quill.dev/pkg/quill/internal/model"
)

// SimpleUI implements UI using cobra Command's output. Review accepts the
// first candidate of every suggestion.
type SimpleUI struct {
	cmd     *cobra.Command
	palette palette
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayReport prints every finding followed by a per-file summary table.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := s.cmd.OutOrStdout()

	for _, f := range report.Files {
		if f.Err != nil {
			s.printf("%s: %s\n", s.palette.paint(s.palette.path, string(f.Source.Path())), s.palette.paint(s.palette.warning, f.Err.Error()))

			continue
		}

		for _, sg := range f.Suggestions {
			writeSuggestion(out, s.palette, sg)
		}

		for _, w := range f.Warnings {
			s.printf("%s: warning: %s\n", f.Source.Path(), s.palette.paint(s.palette.warning, w.Error()))
		}
	}

	for _, w := range report.Warnings {
		s.printf("warning: %s\n", s.palette.paint(s.palette.warning, w.Error()))
	}

	s.printf("\n%s", renderReportTable(report))

	return nil
}

func renderReportTable(report m.RunReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Chunks", "Findings", "Status"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	chunks := 0

	for _, f := range report.Files {
		table.Append([]string{
			string(f.Source.Path()),
			strconv.Itoa(f.Chunks),
			strconv.Itoa(len(f.Suggestions)),
			fileStatus(f),
		})

		chunks += f.Chunks
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(report.Files)),
		strconv.Itoa(chunks),
		strconv.Itoa(report.FindingsCount()),
		"",
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayChunkStats prints the extraction summary used by the list command.
func (s *SimpleUI) DisplayChunkStats(ctx context.Context, stats []m.ChunkStat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderChunkTable(stats))

	for _, st := range stats {
		if st.Err != nil {
			s.printf("%s: %s\n", st.Path, s.palette.paint(s.palette.warning, st.Err.Error()))
		}
	}

	return nil
}

func renderChunkTable(stats []m.ChunkStat) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Fragments", "Chunks", "Words"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER})

	var fragments, chunks, words int

	for _, st := range stats {
		table.Append([]string{string(st.Path), strconv.Itoa(st.Fragments), strconv.Itoa(st.Chunks), strconv.Itoa(st.Words)})

		fragments += st.Fragments
		chunks += st.Chunks
		words += st.Words
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(stats)),
		strconv.Itoa(fragments),
		strconv.Itoa(chunks),
		strconv.Itoa(words),
	})

	table.Render()

	return tableBuffer.String()
}

// Review accepts the first candidate of each suggestion and skips those
// without candidates.
func (s *SimpleUI) Review(ctx context.Context, suggestions []m.Suggestion) ([]m.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decisions := make([]m.Decision, len(suggestions))

	for i, sg := range suggestions {
		choice := 0
		if len(sg.Replacements) == 0 {
			choice = -1
		}

		decisions[i] = m.Decision{Suggestion: sg, Choice: choice}
	}

	return decisions, nil
}

// DisplayFixResult prints per-file outcomes, or diffs for a dry run.
func (s *SimpleUI) DisplayFixResult(ctx context.Context, result m.FixResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, f := range result.Files {
		switch {
		case f.Err != nil:
			s.printf("%s: %s\n", f.Path, s.palette.paint(s.palette.warning, f.Err.Error()))
		case result.DryRun:
			s.printf("%s", f.Diff)
		default:
			s.printf("%s: applied %d, skipped %d\n", s.palette.paint(s.palette.path, string(f.Path)), f.Applied, f.Skipped)
		}
	}

	verb := "Applied"
	if result.DryRun {
		verb = "Would apply"
	}

	s.printf("%s %d fix(es) in %d file(s)\n", verb, result.Applied(), len(result.Files))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

package model

// FileReport holds the findings for one source file.
type FileReport struct {
	Source      Source
	Suggestions []Suggestion
	Chunks      int
	// Defects lists findings dropped because their range could not be
	// mapped back to the source.
	Defects []error
	// Warnings lists backend failures that left the file partially checked.
	Warnings []error
	// Cached is true when the suggestions were loaded from the result store.
	Cached bool
	// Err is set when the file could not be read or parsed.
	Err error
}

// RunReport aggregates the reports of a check run, ordered by path.
type RunReport struct {
	Files    []FileReport
	Warnings []error
}

// FindingsCount returns the total number of suggestions.
func (r RunReport) FindingsCount() int {
	total := 0
	for _, f := range r.Files {
		total += len(f.Suggestions)
	}

	return total
}

// HasErrors reports whether any file failed to be read or parsed.
func (r RunReport) HasErrors() bool {
	for _, f := range r.Files {
		if f.Err != nil {
			return true
		}
	}

	return false
}

// Suggestions returns every suggestion in report order.
func (r RunReport) Suggestions() []Suggestion {
	var all []Suggestion
	for _, f := range r.Files {
		all = append(all, f.Suggestions...)
	}

	return all
}

// ChunkStat summarizes the extraction of one file.
type ChunkStat struct {
	Path      Path
	Fragments int
	Chunks    int
	Words     int
	Err       error
}

// FileFix is the outcome of applying edits to one file.
type FileFix struct {
	Path    Path
	Applied int
	Skipped int
	// Diff is a unified diff of the change, filled in for dry runs.
	Diff string
	Err  error
}

// FixResult aggregates the outcome of a fix run.
type FixResult struct {
	Files  []FileFix
	DryRun bool
}

// Applied returns the total number of edits written.
func (r FixResult) Applied() int {
	total := 0
	for _, f := range r.Files {
		total += f.Applied
	}

	return total
}

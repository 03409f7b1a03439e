package model

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks a source file that could not be parsed.
	ErrParse = errors.New("parse error")
	// ErrMappingDefect marks a chunk range that cannot be traced back to source.
	ErrMappingDefect = errors.New("mapping defect")
	// ErrBackendUnavailable marks a checker that could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrApplyConflict marks edits that could not be applied to a file.
	ErrApplyConflict = errors.New("apply conflict")
	// ErrIO marks a read or write failure.
	ErrIO = errors.New("i/o error")
)

// ParseError is returned when a file is not valid in its language.
type ParseError struct {
	Path Path
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// MappingDefect is returned when a chunk range spans synthetic bytes or
// crosses a discontinuity in the position map.
type MappingDefect struct {
	Path   Path
	Range  Range
	Reason string
}

func (e *MappingDefect) Error() string {
	return fmt.Sprintf("mapping defect in %s at %s: %s", e.Path, e.Range, e.Reason)
}

func (e *MappingDefect) Is(target error) bool { return target == ErrMappingDefect }

// BackendUnavailable is returned by a checker that cannot produce results.
type BackendUnavailable struct {
	Detector Detector
	Err      error
}

func (e *BackendUnavailable) Error() string {
	return fmt.Sprintf("%s backend unavailable: %v", e.Detector, e.Err)
}

func (e *BackendUnavailable) Unwrap() error { return e.Err }

func (e *BackendUnavailable) Is(target error) bool { return target == ErrBackendUnavailable }

// ApplyConflict is returned when edits overlap or no longer match the file.
type ApplyConflict struct {
	Path   Path
	Span   Span
	Reason string
}

func (e *ApplyConflict) Error() string {
	return fmt.Sprintf("cannot apply edit to %s at %s: %s", e.Path, e.Span, e.Reason)
}

func (e *ApplyConflict) Is(target error) bool { return target == ErrApplyConflict }

// IOError wraps a filesystem failure for a given path.
type IOError struct {
	Path Path
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

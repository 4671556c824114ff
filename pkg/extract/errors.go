package extract

import (
	"errors"
	"fmt"

	"github.com/gnana997/propscan/pkg/source"
)

var (
	// ErrSourceUnavailable: the component's file is missing or unreadable.
	ErrSourceUnavailable = source.ErrUnavailable

	// ErrParseFailure: the file was read but did not parse cleanly.
	ErrParseFailure = errors.New("parse failure")

	// ErrLibraryRootUnavailable is returned by Run before any component is
	// processed when the library root cannot be used.
	ErrLibraryRootUnavailable = errors.New("library root unavailable")
)

// ComponentError is returned by ExtractComponent when a component produces no
// result. Kind mirrors the sentinel wrapped in Err.
type ComponentError struct {
	Component string
	Path      string
	Kind      FailureKind
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %s (%s): %v", e.Component, e.Path, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }

// Failure converts e into the record stored in RunResult.Failures.
func (e *ComponentError) Failure() Failure {
	return Failure{
		ComponentName: e.Component,
		SourcePath:    e.Path,
		Kind:          e.Kind,
		Reason:        e.Err.Error(),
	}
}

func sourceError(desc ComponentDescriptor, err error) *ComponentError {
	return &ComponentError{Component: desc.Name, Path: desc.SourcePath, Kind: FailureSourceUnavailable, Err: err}
}

func parseError(desc ComponentDescriptor, err error) *ComponentError {
	if !errors.Is(err, ErrParseFailure) {
		err = fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	return &ComponentError{Component: desc.Name, Path: desc.SourcePath, Kind: FailureParse, Err: err}
}

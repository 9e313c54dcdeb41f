package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"cardstats/internal/core"
)

// MonthFailure is one month that could not be loaded.
type MonthFailure struct {
	Month core.MonthIndexEntry
	Err   error
}

// Path is the resource that failed: the FetchError path when there is one,
// otherwise the month's file path.
func (f MonthFailure) Path() string {
	if fe, ok := core.AsFetchError(f.Err); ok {
		return fe.Path
	}
	return core.MonthPath(f.Month.Year, f.Month.Month)
}

// LoadError reports every month that failed during a load. The load rendered
// nothing.
type LoadError struct {
	Failed []MonthFailure
}

func (e *LoadError) Error() string {
	paths := e.Paths()
	return fmt.Sprintf("load failed for %d month(s): %s", len(paths), strings.Join(paths, ", "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *LoadError) Unwrap() error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

func (e *LoadError) Paths() []string {
	paths := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		paths[i] = f.Path()
	}
	return paths
}

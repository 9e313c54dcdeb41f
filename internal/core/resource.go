package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Resource paths of the published statistics.
const (
	IndexPath = "data/index.json"
	BanksPath = "data/banks.json"
)

// MonthPath returns the statistics path for a month, e.g. "data/2023-03.json".
func MonthPath(year, month int) string {
	return fmt.Sprintf("data/%d-%02d.json", year, month)
}

// FetchError reports a resource that answered with a non-success status.
// Its message is the requested path.
type FetchError struct {
	Path   string
	Status int
}

func (e *FetchError) Error() string {
	return e.Path
}

// NotFound reports whether the resource was missing.
func (e *FetchError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// NewNotFound builds the FetchError returned by local backends for a missing resource.
func NewNotFound(path string) *FetchError {
	return &FetchError{Path: path, Status: http.StatusNotFound}
}

// AsFetchError unwraps err into a *FetchError when it carries one.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

package backing

import (
	"errors"
	"fmt"
)

// ErrFetch marks every failure to obtain data from a backing source.
var ErrFetch = errors.New("backing fetch failed")

// ErrUnsupportedScheme is returned by a Router when no source serves a scheme.
var ErrUnsupportedScheme = errors.New("unsupported location scheme")

// FetchError describes a failed read of a backing location.
type FetchError struct {
	Location Location
	// Status is the HTTP status code when the source is HTTP, 0 otherwise.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("problem accessing %s: status %d", e.Location, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("problem accessing %s: %v", e.Location, e.Err)
	default:
		return fmt.Sprintf("problem accessing %s", e.Location)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

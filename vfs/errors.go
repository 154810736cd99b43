package vfs

import (
	"errors"
	"fmt"
	"io/fs"
)

// Filesystem errors. Each wraps its io/fs counterpart so callers can match
// either one with errors.Is.
var (
	ErrNotFound      = fmt.Errorf("entry not found: %w", fs.ErrNotExist)
	ErrAlreadyExists = fmt.Errorf("entry already exists: %w", fs.ErrExist)
	ErrNotADirectory = errors.New("not a directory")
	ErrIsADirectory  = errors.New("is a directory")
	ErrNotEmpty      = errors.New("directory not empty")
	ErrRoot          = fmt.Errorf("operation not allowed on the root: %w", fs.ErrPermission)
	ErrInvalidMove   = fmt.Errorf("cannot move a directory into itself: %w", fs.ErrInvalid)
)

// PathError records a failed operation and the path it was applied to.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathError(op, path string, err error) error {
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}

	return &PathError{Op: op, Path: path, Err: err}
}

// IsNotFound reports whether err means that no entry resolved.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

package preview

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a preview attempt ended before applying anything.
type ErrorKind int

const (
	InvalidLocation ErrorKind = iota + 1
	ExtensionNotFound
	NoArtifacts
	ArtifactNotFound
	IncompatibleTarget
	ManifestParseError
	BackingFetchError
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidLocation:
		return "invalid location"
	case ExtensionNotFound:
		return "extension not found"
	case NoArtifacts:
		return "no themes"
	case ArtifactNotFound:
		return "theme not found"
	case IncompatibleTarget:
		return "incompatible target"
	case ManifestParseError:
		return "manifest parse error"
	case BackingFetchError:
		return "fetch error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a user-facing failure of the preview workflow. Message is meant to
// be shown as is.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrArtifactNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidLocation    = &Error{Kind: InvalidLocation}
	ErrExtensionNotFound  = &Error{Kind: ExtensionNotFound}
	ErrNoArtifacts        = &Error{Kind: NoArtifacts}
	ErrArtifactNotFound   = &Error{Kind: ArtifactNotFound}
	ErrIncompatibleTarget = &Error{Kind: IncompatibleTarget}
	ErrManifestParse      = &Error{Kind: ManifestParseError}
	ErrBackingFetch       = &Error{Kind: BackingFetchError}
)

// ErrAlreadyResolved is returned by the second Keep or Undo of a session.
var ErrAlreadyResolved = errors.New("preview already resolved")

func newError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Package backing resolves file contents and directory listings of a virtual
// tree from the place the tree is actually stored: a directory on disk, files
// bundled into the binary, an HTTP server hosting unpacked packages, or an S3
// bucket mirroring them.
package backing

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Location schemes understood by the sources of this package.
const (
	SchemeFile  = "file"
	SchemeEmbed = "embed"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeS3    = "s3"
)

// Location addresses one resource inside a backing source.
type Location struct {
	u url.URL
}

// ParseLocation parses a URL-shaped location. A bare path is treated as a
// file location.
func ParseLocation(raw string) (Location, error) {
	if !strings.Contains(raw, "://") {
		return FileLocation(raw), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}

	if u.Scheme == "" {
		return Location{}, fmt.Errorf("location %q has no scheme", raw)
	}

	return Location{u: *u}, nil
}

// MustParseLocation is ParseLocation that panics on error.
func MustParseLocation(raw string) Location {
	loc, err := ParseLocation(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

// FileLocation returns the location of a path on the local disk.
func FileLocation(p string) Location {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return Location{u: url.URL{Scheme: SchemeFile, Path: filepath.ToSlash(abs)}}
}

// EmbedLocation returns the location of a path inside the files bundled into the binary.
func EmbedLocation(p string) Location {
	return Location{u: url.URL{Scheme: SchemeEmbed, Path: path.Clean("/" + p)}}
}

// Scheme returns the location scheme.
func (l Location) Scheme() string {
	return l.u.Scheme
}

// Host returns the host part, which is the bucket for s3 locations.
func (l Location) Host() string {
	return l.u.Host
}

// Path returns the slash separated path part.
func (l Location) Path() string {
	return l.u.Path
}

// Join appends path segments to the location.
func (l Location) Join(elem ...string) Location {
	u := l.u
	u.Path = path.Join(append([]string{u.Path}, elem...)...)
	if u.Path == "." {
		u.Path = ""
	}
	return Location{u: u}
}

func (l Location) String() string {
	return l.u.String()
}

package backing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/vfs"
)

// IndexName is the side-index every backed directory carries. It holds a JSON
// array of [name, kind] pairs, kind 2 meaning directory and any other number
// meaning file.
const IndexName = "dirinfo.json"

const indexKindDirectory = 2

var errIndexShape = errors.New("directory index is not an array")

// ParseIndex decodes a directory index. Elements that are not a
// [string, number] pair, or whose name is not a single path segment, are
// skipped. When a name appears twice the last pair wins.
func ParseIndex(data []byte) ([]vfs.DirEntry, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, errIndexShape
	}

	var (
		entries  []vfs.DirEntry
		position = make(map[string]int)
	)

	for _, element := range elements {
		entry, ok := parseIndexPair(element)
		if !ok {
			continue
		}

		if i, seen := position[entry.Name]; seen {
			entries[i] = entry
			continue
		}

		position[entry.Name] = len(entries)
		entries = append(entries, entry)
	}

	return entries, nil
}

func parseIndexPair(element json.RawMessage) (vfs.DirEntry, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(element, &pair); err != nil || len(pair) != 2 {
		return vfs.DirEntry{}, false
	}

	var name string
	if err := json.Unmarshal(pair[0], &name); err != nil || !validSegment(name) {
		return vfs.DirEntry{}, false
	}

	var kind float64
	if err := json.Unmarshal(pair[1], &kind); err != nil {
		return vfs.DirEntry{}, false
	}

	if kind == indexKindDirectory {
		return vfs.DirEntry{Name: name, Kind: vfs.KindDirectory}, true
	}
	return vfs.DirEntry{Name: name, Kind: vfs.KindFile}, true
}

func validSegment(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// Listing reads the index of the directory at loc and builds its children.
// A missing, unreadable or malformed index is logged and yields an empty
// listing, so one broken directory never makes the rest of the tree
// unbrowsable. Indexed reports whether a usable index was found.
func Listing(ctx context.Context, src Source, loc Location) (children map[string]*vfs.Entry, indexed bool) {
	children = make(map[string]*vfs.Entry)

	data, err := src.ReadFile(ctx, loc.Join(IndexName))
	if err != nil {
		log.Warnf("readDirectory %s: %v", loc, err)
		return children, false
	}

	entries, err := ParseIndex(data)
	if err != nil {
		log.Warnf("readDirectory %s: %v", loc, err)
		return children, false
	}

	for _, entry := range entries {
		childLoc := loc.Join(entry.Name)
		switch entry.Kind {
		case vfs.KindDirectory:
			children[entry.Name] = NewDirectory(src, childLoc, entry.Name)
		case vfs.KindFile:
			children[entry.Name] = NewFile(src, childLoc, entry.Name)
		}
	}

	return children, true
}

// NewFile returns a file node whose content is read from loc on first access.
// A failed read is returned to the caller and retried on the next access.
func NewFile(src Source, loc Location, name string) *vfs.Entry {
	return vfs.NewFile(name, func(ctx context.Context) ([]byte, error) {
		return src.ReadFile(ctx, loc)
	})
}

// NewDirectory returns a directory node listed from loc's index on first access.
//
// Hosts that serve package files without an index still answer for paths
// nobody listed: a directory without a usable index joins a missing name onto
// loc and checks the source for it. A listing cut short by a cancelled
// context is reported as an error so it is fetched again later.
func NewDirectory(src Source, loc Location, name string) *vfs.Entry {
	var unindexed atomic.Bool

	dir := vfs.NewDirectory(name, func(ctx context.Context) (map[string]*vfs.Entry, error) {
		children, indexed := Listing(ctx, src, loc)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unindexed.Store(!indexed)
		return children, nil
	})

	return dir.WithResolver(func(ctx context.Context, child string, kind vfs.Kind) (*vfs.Entry, error) {
		if !unindexed.Load() || !validSegment(child) {
			return nil, vfs.ErrNotFound
		}

		childLoc := loc.Join(child)
		if kind == vfs.KindDirectory {
			return NewDirectory(src, childLoc, child), nil
		}

		file := NewFile(src, childLoc, child)
		if _, err := file.Content(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, ErrFetch) {
				return nil, fmt.Errorf("%w: %w", vfs.ErrNotFound, err)
			}
			return nil, err
		}

		return file, nil
	})
}

// Root returns the root directory of a tree stored at loc.
func Root(src Source, loc Location) *vfs.Entry {
	return NewDirectory(src, loc, "")
}

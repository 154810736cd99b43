// Package vfs implements a lazily populated, in-process virtual filesystem.
//
// A tree is made of Entry nodes. File contents and directory listings are not
// known up front: each node holds a Cell that fetches its value from a backing
// source on first access and keeps it for the lifetime of the node. A Provider
// exposes the usual filesystem operations over one tree and reports every
// mutation to its watchers.
package vfs

import (
	"context"
	"sync"
	"time"
)

// Kind discriminates the two entry variants.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Stats is the metadata reported for an entry. Backing sources rarely supply
// timestamps, so they default to the time the node was created.
type Stats struct {
	Kind  Kind
	Ctime time.Time
	Mtime time.Time
	Size  int64
}

// Entry is a node of the tree: a file or a directory.
//
// Files hold a content cell, directories hold a children cell. Which one is
// set follows from Kind, which never changes after construction.
type Entry struct {
	mu    sync.RWMutex
	name  string
	kind  Kind
	ctime time.Time
	mtime time.Time

	content  *Cell[[]byte]
	children *Cell[map[string]*Entry]

	// resolve finds children the listing does not name; joined keeps what it found.
	resolve Resolver
	joined  map[string]*Entry
}

// Resolver produces the child called name of a directory whose listing does
// not mention it. Kind is the variant the caller needs, or zero when either
// would do. It returns ErrNotFound when no such child exists.
type Resolver func(ctx context.Context, name string, kind Kind) (*Entry, error)

// NewFile returns a file whose content is fetched by load on first read.
func NewFile(name string, load Loader[[]byte]) *Entry {
	now := time.Now()
	return &Entry{
		name:    name,
		kind:    KindFile,
		ctime:   now,
		mtime:   now,
		content: NewCell(load),
	}
}

// NewDirectory returns a directory whose children are listed by load on first access.
func NewDirectory(name string, load Loader[map[string]*Entry]) *Entry {
	now := time.Now()
	return &Entry{
		name:     name,
		kind:     KindDirectory,
		ctime:    now,
		mtime:    now,
		children: NewCell(load),
	}
}

// NewMemoryFile returns a file with the given content already realized.
func NewMemoryFile(name string, data []byte) *Entry {
	f := NewFile(name, nil)
	f.content = Resolved(data)
	return f
}

// NewMemoryDirectory returns an empty, already realized directory.
func NewMemoryDirectory(name string) *Entry {
	d := NewDirectory(name, nil)
	d.children = Resolved(make(map[string]*Entry))
	return d
}

// Name returns the segment name of the entry. The root has an empty name.
func (e *Entry) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.name
}

func (e *Entry) setName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.name = name
}

// Kind returns whether the entry is a file or a directory.
func (e *Entry) Kind() Kind {
	return e.kind
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.kind == KindDirectory
}

// Stats returns the entry metadata. The size of a file is known only once its
// content has been fetched; until then it is reported as zero.
func (e *Entry) Stats() Stats {
	e.mu.RLock()
	stats := Stats{Kind: e.kind, Ctime: e.ctime, Mtime: e.mtime}
	e.mu.RUnlock()

	if e.kind == KindFile && e.content.Populated() {
		if data, err := e.content.Get(context.Background()); err == nil {
			stats.Size = int64(len(data))
		}
	}

	return stats
}

// Content returns the bytes of a file, fetching them on first access.
func (e *Entry) Content(ctx context.Context) ([]byte, error) {
	if e.kind != KindFile {
		return nil, ErrIsADirectory
	}

	return e.content.Get(ctx)
}

// SetContent replaces the content of a file.
func (e *Entry) SetContent(data []byte) {
	if e.kind != KindFile {
		return
	}

	e.content.Set(data)
	e.touch()
}

// Children returns the realized child mapping of a directory, fetching it on
// first access. The returned map is owned by the entry.
func (e *Entry) Children(ctx context.Context) (map[string]*Entry, error) {
	if e.kind != KindDirectory {
		return nil, ErrNotADirectory
	}

	children, err := e.children.Get(ctx)
	if err != nil {
		return nil, err
	}

	if children == nil {
		children = make(map[string]*Entry)
		e.children.Set(children)
	}

	return children, nil
}

// WithResolver makes the directory consult resolve for names missing from its
// listing and returns the directory.
func (e *Entry) WithResolver(resolve Resolver) *Entry {
	e.resolve = resolve
	return e
}

// Child returns the child called name. Names absent from the listing are
// handed to the resolver, if any, and remembered once found.
func (e *Entry) Child(ctx context.Context, name string, kind Kind) (*Entry, error) {
	children, err := e.Children(ctx)
	if err != nil {
		return nil, err
	}

	if child, ok := children[name]; ok {
		return child, nil
	}

	e.mu.RLock()
	child, ok := e.joined[name]
	resolve := e.resolve
	e.mu.RUnlock()

	if ok && (kind == 0 || child.kind == kind) {
		return child, nil
	}

	if resolve == nil {
		return nil, ErrNotFound
	}

	child, err = resolve(ctx, name, kind)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.joined[name]; ok && existing.kind == child.kind {
		return existing, nil
	}

	if e.joined == nil {
		e.joined = make(map[string]*Entry)
	}
	e.joined[name] = child

	return child, nil
}

// entries returns the listed children plus the files found by the resolver.
// Resolved directories are not confirmed to exist, so they stay out.
func (e *Entry) entries(ctx context.Context) (map[string]*Entry, error) {
	children, err := e.Children(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	all := make(map[string]*Entry, len(children)+len(e.joined))
	for name, child := range e.joined {
		if child.kind == KindFile {
			all[name] = child
		}
	}
	for name, child := range children {
		all[name] = child
	}

	return all, nil
}

// put stores child under name in the realized listing.
func (e *Entry) put(children map[string]*Entry, name string, child *Entry) {
	children[name] = child

	e.mu.Lock()
	delete(e.joined, name)
	e.mu.Unlock()
}

// remove drops name from the listing and from the resolved children.
func (e *Entry) remove(children map[string]*Entry, name string) {
	delete(children, name)

	e.mu.Lock()
	delete(e.joined, name)
	e.mu.Unlock()
}

func (e *Entry) touch() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mtime = time.Now()
}

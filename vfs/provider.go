package vfs

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// DirEntry is one element of a directory listing.
type DirEntry struct {
	Name string
	Kind Kind
}

// WriteOptions control WriteFile when the target is absent or present.
type WriteOptions struct {
	// Create allows writing a file that does not exist yet.
	Create bool
	// Overwrite allows replacing the content of an existing file.
	Overwrite bool
}

// Provider serves filesystem operations over a tree rooted at one scheme.
//
// Lookups always start at the root and resolve one segment at a time, fetching
// directory listings on demand. Mutations are serialized; reads may run
// concurrently with each other.
type Provider struct {
	scheme   string
	root     *Entry
	mu       sync.RWMutex
	watchers watchers
}

// NewProvider returns a provider for the tree rooted at root.
func NewProvider(scheme string, root *Entry) *Provider {
	return &Provider{scheme: scheme, root: root}
}

// Scheme returns the scheme the provider was registered under.
func (p *Provider) Scheme() string {
	return p.scheme
}

// URI returns the scheme-qualified form of a path, e.g. theme-tester:/readme.md.
func (p *Provider) URI(name string) string {
	return p.scheme + ":" + Clean(name)
}

// Watch registers a callback for change events.
func (p *Provider) Watch(callback func(Event)) (unregister func()) {
	return p.watchers.add(callback)
}

// Stat returns the metadata of the entry at name.
func (p *Provider) Stat(ctx context.Context, name string) (Stats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, err := p.lookup(ctx, name, 0)
	if err != nil {
		return Stats{}, pathError("stat", name, err)
	}

	return entry.Stats(), nil
}

// ReadDirectory lists the children of the directory at name, sorted by name.
func (p *Provider) ReadDirectory(ctx context.Context, name string) ([]DirEntry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, err := p.lookup(ctx, name, KindDirectory)
	if err != nil {
		return nil, pathError("readdir", name, err)
	}

	if entry.Kind() != KindDirectory {
		return nil, pathError("readdir", name, ErrNotADirectory)
	}

	children, err := entry.entries(ctx)
	if err != nil {
		return nil, pathError("readdir", name, err)
	}

	listing := make([]DirEntry, 0, len(children))
	for childName, child := range children {
		listing = append(listing, DirEntry{Name: childName, Kind: child.Kind()})
	}

	sort.Slice(listing, func(i, j int) bool {
		return listing[i].Name < listing[j].Name
	})

	return listing, nil
}

// ReadFile returns the content of the file at name.
func (p *Provider) ReadFile(ctx context.Context, name string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, err := p.lookup(ctx, name, KindFile)
	if err != nil {
		return nil, pathError("read", name, err)
	}

	if entry.Kind() != KindFile {
		return nil, pathError("read", name, ErrIsADirectory)
	}

	data, err := entry.Content(ctx)
	if err != nil {
		return nil, pathError("read", name, err)
	}

	return data, nil
}

// WriteFile creates or replaces the content of the file at name.
func (p *Provider) WriteFile(ctx context.Context, name string, data []byte, options WriteOptions) error {
	p.mu.Lock()
	parent, base, children, err := p.lookupParent(ctx, name)
	if err != nil {
		p.mu.Unlock()
		return pathError("write", name, err)
	}

	existing, exists, err := child(ctx, parent, base)
	if err != nil {
		p.mu.Unlock()
		return pathError("write", name, err)
	}

	var events []Event
	switch {
	case exists && existing.Kind() == KindDirectory:
		err = ErrIsADirectory
	case !exists && !options.Create:
		err = ErrNotFound
	case exists && !options.Overwrite:
		err = ErrAlreadyExists
	case !exists:
		parent.put(children, base, NewMemoryFile(base, data))
		parent.touch()
		events = []Event{{Type: Changed, Path: Dir(name)}, {Type: Created, Path: Clean(name)}}
	default:
		existing.SetContent(data)
		events = []Event{{Type: Changed, Path: Clean(name)}}
	}
	p.mu.Unlock()

	if err != nil {
		return pathError("write", name, err)
	}

	p.watchers.fire(events...)
	return nil
}

// CreateDirectory adds an empty directory at name. The parent must exist.
func (p *Provider) CreateDirectory(ctx context.Context, name string) error {
	p.mu.Lock()
	parent, base, children, err := p.lookupParent(ctx, name)
	if err != nil {
		p.mu.Unlock()
		return pathError("mkdir", name, err)
	}

	if _, ok := children[base]; ok {
		p.mu.Unlock()
		return pathError("mkdir", name, ErrAlreadyExists)
	}

	parent.put(children, base, NewMemoryDirectory(base))
	parent.touch()
	p.mu.Unlock()

	p.watchers.fire(Event{Type: Changed, Path: Dir(name)}, Event{Type: Created, Path: Clean(name)})
	return nil
}

// Delete removes the entry at name. A directory that still has children is
// removed only when recursive is set, together with everything below it.
func (p *Provider) Delete(ctx context.Context, name string, recursive bool) error {
	p.mu.Lock()
	parent, base, children, err := p.lookupParent(ctx, name)
	if err != nil {
		p.mu.Unlock()
		return pathError("delete", name, err)
	}

	entry, exists, err := child(ctx, parent, base)
	if err == nil && !exists {
		err = ErrNotFound
	}
	if err == nil && entry.Kind() == KindDirectory && !recursive {
		var below map[string]*Entry
		if below, err = entry.entries(ctx); err == nil && len(below) > 0 {
			err = ErrNotEmpty
		}
	}
	if err != nil {
		p.mu.Unlock()
		return pathError("delete", name, err)
	}

	parent.remove(children, base)
	parent.touch()
	p.mu.Unlock()

	p.watchers.fire(Event{Type: Changed, Path: Dir(name)}, Event{Type: Deleted, Path: Clean(name)})
	return nil
}

// Rename moves the entry at oldName to newName. An existing target is replaced
// only when overwrite is set.
func (p *Provider) Rename(ctx context.Context, oldName, newName string, overwrite bool) error {
	oldSegments, err := Segments(oldName)
	if err != nil {
		return pathError("rename", oldName, err)
	}

	newSegments, err := Segments(newName)
	if err != nil {
		return pathError("rename", newName, err)
	}

	if len(newSegments) > len(oldSegments) && hasPrefix(newSegments, oldSegments) {
		return pathError("rename", newName, ErrInvalidMove)
	}

	p.mu.Lock()
	oldParent, oldBase, oldChildren, err := p.lookupParent(ctx, oldName)
	if err != nil {
		p.mu.Unlock()
		return pathError("rename", oldName, err)
	}

	newParent, newBase, newChildren, err := p.lookupParent(ctx, newName)
	if err != nil {
		p.mu.Unlock()
		return pathError("rename", newName, err)
	}

	entry, exists, err := child(ctx, oldParent, oldBase)
	if err == nil && !exists {
		err = ErrNotFound
	}
	if err != nil {
		p.mu.Unlock()
		return pathError("rename", oldName, err)
	}

	_, taken, err := child(ctx, newParent, newBase)
	if err == nil && taken && !overwrite {
		err = ErrAlreadyExists
	}
	if err != nil {
		p.mu.Unlock()
		return pathError("rename", newName, err)
	}

	oldParent.remove(oldChildren, oldBase)
	entry.setName(newBase)
	newParent.put(newChildren, newBase, entry)
	oldParent.touch()
	newParent.touch()
	p.mu.Unlock()

	p.watchers.fire(Event{Type: Deleted, Path: Clean(oldName)}, Event{Type: Created, Path: Clean(newName)})
	return nil
}

// lookup resolves name from the root, realizing listings as it descends.
// Every segment but the last must be a directory; kind is what the caller
// expects at the last one, or zero for either.
func (p *Provider) lookup(ctx context.Context, name string, kind Kind) (*Entry, error) {
	segments, err := Segments(name)
	if err != nil {
		return nil, err
	}

	entry := p.root
	for i, segment := range segments {
		if entry.Kind() != KindDirectory {
			return nil, ErrNotFound
		}

		want := KindDirectory
		if i == len(segments)-1 {
			want = kind
		}

		entry, err = entry.Child(ctx, segment, want)
		if err != nil {
			return nil, err
		}
	}

	return entry, nil
}

// lookupParent resolves the directory that holds name and returns it together
// with its realized listing and the last segment of name.
func (p *Provider) lookupParent(ctx context.Context, name string) (*Entry, string, map[string]*Entry, error) {
	segments, err := Segments(name)
	if err != nil {
		return nil, "", nil, err
	}

	if len(segments) == 0 {
		return nil, "", nil, ErrRoot
	}

	parent, err := p.lookup(ctx, strings.Join(segments[:len(segments)-1], "/"), KindDirectory)
	if err != nil {
		return nil, "", nil, err
	}

	if parent.Kind() != KindDirectory {
		return nil, "", nil, ErrNotADirectory
	}

	children, err := parent.Children(ctx)
	if err != nil {
		return nil, "", nil, err
	}

	return parent, segments[len(segments)-1], children, nil
}

// child looks base up below parent, telling a missing entry apart from a
// failed lookup.
func child(ctx context.Context, parent *Entry, base string) (*Entry, bool, error) {
	entry, err := parent.Child(ctx, base, 0)
	switch {
	case err == nil:
		return entry, true, nil
	case IsNotFound(err):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// Segments splits name into path segments. Empty and "." segments are
// dropped. Any ".." is rejected with ErrNotFound so that no path can reach
// outside the tree.
func Segments(name string) ([]string, error) {
	name = strings.ReplaceAll(name, "\\", "/")

	var segments []string
	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			return nil, ErrNotFound
		}
		segments = append(segments, segment)
	}

	return segments, nil
}

// Clean returns the canonical absolute form of name.
func Clean(name string) string {
	return path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
}

// Dir returns the canonical parent path of name.
func Dir(name string) string {
	return path.Dir(Clean(name))
}

func hasPrefix(segments, prefix []string) bool {
	for i := range prefix {
		if segments[i] != prefix[i] {
			return false
		}
	}
	return true
}

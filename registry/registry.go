// Package registry tracks the extensions available without the network:
// the built-in themes bundled into the binary and the packages the user
// installed.
package registry

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/marketplace"
)

var (
	// ErrNotInstalled is returned when removing an extension that is not installed.
	ErrNotInstalled = errors.New("extension is not installed")
	// ErrBuiltIn is returned when removing a built-in extension.
	ErrBuiltIn = errors.New("built-in extensions can not be removed")
)

//go:embed builtin
var builtinFS embed.FS

// Record describes one installed extension.
type Record struct {
	Coordinate  backing.Coordinate `json:"coordinate"`
	Dir         string             `json:"dir"`
	Checksum    uint64             `json:"checksum"`
	InstalledAt time.Time          `json:"installedAt"`
	BuiltIn     bool               `json:"builtIn,omitempty"`
}

type installedData struct {
	Extensions map[string]Record `json:"extensions"`
}

// Registry resolves extensions without touching the network.
type Registry struct {
	dir      string
	builtins map[string]*marketplace.Package
	internal *gache.Cache[*installedData]
	mu       sync.Mutex
}

// New returns a registry that installs packages below dir.
func New(dir string) *Registry {
	return &Registry{
		dir:      dir,
		builtins: loadBuiltins(),
		internal: gache.New[*installedData](&gache.Options{
			Path:       filepath.Join(dir, "installed.json"),
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func normalizedID(publisher, name string) string {
	return strings.ToLower(publisher + "." + name)
}

func loadBuiltins() map[string]*marketplace.Package {
	root := lo.Must(fs.Sub(builtinFS, "builtin"))
	source := &backing.AferoSource{Fs: afero.FromIOFS{FS: root}, Relative: true}

	builtins := make(map[string]*marketplace.Package)
	for _, entry := range lo.Must(fs.ReadDir(root, ".")) {
		raw := lo.Must(fs.ReadFile(root, entry.Name()+"/package.json"))
		manifest := lo.Must(marketplace.ParseManifest(entry.Name(), raw))
		coord := manifest.Coordinate("")

		builtins[normalizedID(coord.Publisher, coord.Name)] = &marketplace.Package{
			Coordinate: coord,
			Manifest:   manifest,
			Raw:        raw,
			Root:       backing.EmbedLocation(entry.Name()),
			Source:     source,
			Installed:  true,
		}
	}

	return builtins
}

// Find looks publisher.name up among built-in and installed extensions.
func (r *Registry) Find(ctx context.Context, publisher, name string) (mo.Option[*marketplace.Package], error) {
	id := normalizedID(publisher, name)
	if pkg, ok := r.builtins[id]; ok {
		return mo.Some(pkg), nil
	}

	record, ok, err := r.record(id)
	if err != nil || !ok {
		return mo.None[*marketplace.Package](), err
	}

	source := &backing.AferoSource{Fs: filesystem.API()}
	root := backing.FileLocation(record.Dir)

	raw, err := source.ReadFile(ctx, root.Join("package.json"))
	if err != nil {
		return mo.None[*marketplace.Package](), err
	}

	manifest, err := marketplace.ParseManifest(root.Join("package.json").String(), raw)
	if err != nil {
		return mo.None[*marketplace.Package](), err
	}

	return mo.Some(&marketplace.Package{
		Coordinate: record.Coordinate,
		Manifest:   manifest,
		Raw:        raw,
		Root:       root,
		Source:     source,
		Installed:  true,
	}), nil
}

// List returns built-in and installed extensions sorted by id.
func (r *Registry) List() ([]Record, error) {
	records := lo.MapToSlice(r.builtins, func(_ string, pkg *marketplace.Package) Record {
		return Record{Coordinate: pkg.Coordinate, Checksum: xxhash.Sum64(pkg.Raw), BuiltIn: true}
	})

	r.mu.Lock()
	data, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	records = append(records, lo.Values(data.Extensions)...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Coordinate.ID() < records[j].Coordinate.ID()
	})
	return records, nil
}

// Install copies the files of pkg below the registry directory and records it.
// Installing a newer version replaces the older one.
func (r *Registry) Install(ctx context.Context, pkg *marketplace.Package) (Record, error) {
	id := normalizedID(pkg.Coordinate.Publisher, pkg.Coordinate.Name)
	if _, ok := r.builtins[id]; ok {
		return Record{}, fmt.Errorf("%s: %w", pkg.Coordinate.ID(), ErrBuiltIn)
	}

	dir := filepath.Join(r.dir, fmt.Sprintf("%s-%s", pkg.Coordinate.ID(), pkg.Coordinate.Version))
	if err := copyPackage(ctx, pkg, dir); err != nil {
		return Record{}, fmt.Errorf("install %s: %w", pkg.Coordinate, err)
	}

	record := Record{
		Coordinate:  pkg.Coordinate,
		Dir:         dir,
		Checksum:    xxhash.Sum64(pkg.Raw),
		InstalledAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return Record{}, err
	}

	if previous, ok := data.Extensions[id]; ok && previous.Dir != dir {
		if err := filesystem.API().RemoveAll(previous.Dir); err != nil {
			log.Warnf("remove %s: %v", previous.Dir, err)
		}
	}

	data.Extensions[id] = record
	if err := r.internal.Set(data); err != nil {
		return Record{}, err
	}

	log.Infof("installed %s into %s", pkg.Coordinate, dir)
	return record, nil
}

// Uninstall removes an installed extension and its files.
func (r *Registry) Uninstall(publisher, name string) error {
	id := normalizedID(publisher, name)
	if _, ok := r.builtins[id]; ok {
		return fmt.Errorf("%s.%s: %w", publisher, name, ErrBuiltIn)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return err
	}

	record, ok := data.Extensions[id]
	if !ok {
		return fmt.Errorf("%s.%s: %w", publisher, name, ErrNotInstalled)
	}

	if err := filesystem.API().RemoveAll(record.Dir); err != nil {
		return err
	}

	delete(data.Extensions, id)
	return r.internal.Set(data)
}

// Verify reports whether the installed package.json still matches the checksum
// taken at install time.
func (r *Registry) Verify(record Record) (bool, error) {
	if record.BuiltIn {
		return true, nil
	}

	raw, err := filesystem.API().ReadFile(filepath.Join(record.Dir, "package.json"))
	if err != nil {
		return false, err
	}
	return xxhash.Sum64(raw) == record.Checksum, nil
}

func (r *Registry) record(id string) (Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return Record{}, false, err
	}

	record, ok := data.Extensions[id]
	return record, ok, nil
}

func (r *Registry) load() (*installedData, error) {
	data, _, err := r.internal.Get()
	if err != nil {
		return nil, err
	}

	if data == nil {
		data = &installedData{}
	}
	if data.Extensions == nil {
		data.Extensions = make(map[string]Record)
	}
	return data, nil
}

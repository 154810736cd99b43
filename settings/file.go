package settings

import (
	"context"
	"sync"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/log"
)

// Document is the persisted settings file, a flat map of setting names to values.
type Document map[string]string

// FileSlot stores one key of a settings document on disk.
type FileSlot struct {
	name     string
	internal *gache.Cache[Document]
	mu       sync.Mutex
}

// NewFileSlot returns the slot for setting name inside the document at path.
func NewFileSlot(path, name string) *FileSlot {
	return &FileSlot{
		name: name,
		internal: gache.New[Document](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (f *FileSlot) Name() string {
	return f.name
}

func (f *FileSlot) Get(ctx context.Context) (mo.Option[string], error) {
	if err := ctx.Err(); err != nil {
		return mo.None[string](), err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return mo.None[string](), err
	}

	value, ok := doc[f.name]
	if !ok {
		return mo.None[string](), nil
	}
	return mo.Some(value), nil
}

func (f *FileSlot) Set(ctx context.Context, value string) error {
	return f.update(ctx, func(doc Document) {
		doc[f.name] = value
	})
}

func (f *FileSlot) Unset(ctx context.Context) error {
	return f.update(ctx, func(doc Document) {
		delete(doc, f.name)
	})
}

// All returns a copy of the whole settings document.
func (f *FileSlot) All() (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return lo.Assign(doc), nil
}

func (f *FileSlot) update(ctx context.Context, mutate func(Document)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}

	mutate(doc)
	log.WithField("setting", f.name).Infof("settings updated")
	return f.internal.Set(doc)
}

func (f *FileSlot) load() (Document, error) {
	doc, _, err := f.internal.Get()
	if err != nil {
		return nil, err
	}

	if doc == nil {
		doc = make(Document)
	}
	return doc, nil
}

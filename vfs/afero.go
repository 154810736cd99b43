package vfs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/afero/mem"
)

// aferoFs adapts a Provider to afero.Fs so that afero helpers (Walk, ReadFile,
// ReadDir, Exists) work over a virtual tree.
//
// Opening a file or directory takes a snapshot of its current content or
// listing. Files opened for writing are flushed through WriteFile on Close.
// Permission and time changes are not supported.
type aferoFs struct {
	ctx      context.Context
	provider *Provider
}

// Afero returns an afero.Fs view of the provider. ctx bounds every backing
// fetch the view triggers.
func Afero(ctx context.Context, provider *Provider) afero.Fs {
	return &aferoFs{ctx: ctx, provider: provider}
}

func (a *aferoFs) Name() string {
	return "VirtualFs(" + a.provider.Scheme() + ")"
}

func (a *aferoFs) Create(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}

func (a *aferoFs) Mkdir(name string, _ os.FileMode) error {
	return toOsError("mkdir", name, a.provider.CreateDirectory(a.ctx, name))
}

func (a *aferoFs) MkdirAll(name string, perm os.FileMode) error {
	segments, err := Segments(name)
	if err != nil {
		return toOsError("mkdir", name, err)
	}

	current := ""
	for _, segment := range segments {
		current += "/" + segment

		stats, err := a.provider.Stat(a.ctx, current)
		switch {
		case err == nil && stats.Kind == KindDirectory:
			continue
		case err == nil:
			return toOsError("mkdir", current, ErrNotADirectory)
		case !IsNotFound(err):
			return toOsError("mkdir", current, err)
		}

		if err := a.Mkdir(current, perm); err != nil {
			return err
		}
	}

	return nil
}

func (a *aferoFs) Open(name string) (afero.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

func (a *aferoFs) OpenFile(name string, flag int, _ os.FileMode) (afero.File, error) {
	name = Clean(name)
	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	stats, err := a.provider.Stat(a.ctx, name)
	if err != nil {
		if !IsNotFound(err) || flag&os.O_CREATE == 0 {
			return nil, toOsError("open", name, err)
		}

		if err := a.provider.WriteFile(a.ctx, name, nil, WriteOptions{Create: true}); err != nil {
			return nil, toOsError("open", name, err)
		}
		stats, err = a.provider.Stat(a.ctx, name)
		if err != nil {
			return nil, toOsError("open", name, err)
		}
	} else if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
		return nil, toOsError("open", name, ErrAlreadyExists)
	}

	if stats.Kind == KindDirectory {
		if writable {
			return nil, toOsError("open", name, ErrIsADirectory)
		}
		return a.openDirectory(name, stats)
	}

	var data []byte
	if flag&os.O_TRUNC == 0 {
		data, err = a.provider.ReadFile(a.ctx, name)
		if err != nil {
			return nil, toOsError("open", name, err)
		}
	}

	fileData := mem.CreateFile(name)
	mem.SetModTime(fileData, stats.Mtime)
	handle := mem.NewFileHandle(fileData)
	if len(data) > 0 {
		if _, err := handle.Write(data); err != nil {
			return nil, err
		}
	}

	if flag&os.O_APPEND == 0 {
		if _, err := handle.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	if !writable {
		return handle, nil
	}

	return &writeBack{File: handle, fs: a, name: name}, nil
}

func (a *aferoFs) openDirectory(name string, stats Stats) (afero.File, error) {
	listing, err := a.provider.ReadDirectory(a.ctx, name)
	if err != nil {
		return nil, toOsError("open", name, err)
	}

	dir := mem.CreateDir(name)
	mem.SetModTime(dir, stats.Mtime)
	for _, child := range listing {
		childPath := path.Join(name, child.Name)

		var childData *mem.FileData
		if child.Kind == KindDirectory {
			childData = mem.CreateDir(childPath)
		} else {
			childData = mem.CreateFile(childPath)
		}

		if childStats, err := a.provider.Stat(a.ctx, childPath); err == nil {
			mem.SetModTime(childData, childStats.Mtime)
		}
		mem.AddToMemDir(dir, childData)
	}

	return mem.NewReadOnlyFileHandle(dir), nil
}

func (a *aferoFs) Remove(name string) error {
	return toOsError("remove", name, a.provider.Delete(a.ctx, name, false))
}

func (a *aferoFs) RemoveAll(name string) error {
	err := a.provider.Delete(a.ctx, name, true)
	if IsNotFound(err) {
		return nil
	}
	return toOsError("remove", name, err)
}

func (a *aferoFs) Rename(oldName, newName string) error {
	return toOsError("rename", oldName, a.provider.Rename(a.ctx, oldName, newName, true))
}

func (a *aferoFs) Stat(name string) (os.FileInfo, error) {
	stats, err := a.provider.Stat(a.ctx, name)
	if err != nil {
		return nil, toOsError("stat", name, err)
	}

	return &fileInfo{name: path.Base(Clean(name)), stats: stats}, nil
}

func (a *aferoFs) Chmod(name string, _ os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: errors.ErrUnsupported}
}

func (a *aferoFs) Chown(name string, _, _ int) error {
	return &os.PathError{Op: "chown", Path: name, Err: errors.ErrUnsupported}
}

func (a *aferoFs) Chtimes(name string, _, _ time.Time) error {
	return &os.PathError{Op: "chtimes", Path: name, Err: errors.ErrUnsupported}
}

// writeBack flushes the buffered file content into the provider on Close.
type writeBack struct {
	*mem.File
	fs   *aferoFs
	name string
}

func (w *writeBack) Sync() error {
	if _, err := w.File.Seek(0, io.SeekStart); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, w.File); err != nil {
		return err
	}

	return toOsError("write", w.name, w.fs.provider.WriteFile(w.fs.ctx, w.name, buf.Bytes(), WriteOptions{Create: true, Overwrite: true}))
}

func (w *writeBack) Close() error {
	if err := w.Sync(); err != nil {
		return err
	}
	return w.File.Close()
}

type fileInfo struct {
	name  string
	stats Stats
}

func (f *fileInfo) Name() string       { return f.name }
func (f *fileInfo) Size() int64        { return f.stats.Size }
func (f *fileInfo) ModTime() time.Time { return f.stats.Mtime }
func (f *fileInfo) IsDir() bool        { return f.stats.Kind == KindDirectory }
func (f *fileInfo) Sys() any           { return nil }

func (f *fileInfo) Mode() fs.FileMode {
	if f.IsDir() {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

// toOsError maps provider errors onto *os.PathError with the io/fs sentinel
// that os.IsNotExist and friends recognize.
func toOsError(op, name string, err error) error {
	if err == nil {
		return nil
	}

	var target error
	switch {
	case errors.Is(err, fs.ErrNotExist):
		target = fs.ErrNotExist
	case errors.Is(err, fs.ErrExist):
		target = fs.ErrExist
	case errors.Is(err, fs.ErrPermission):
		target = fs.ErrPermission
	case errors.Is(err, fs.ErrInvalid):
		target = fs.ErrInvalid
	default:
		target = errors.Unwrap(err)
		if target == nil {
			target = err
		}
	}

	return &os.PathError{Op: op, Path: name, Err: target}
}

package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/theme"
	"github.com/themetester/themetester/vfs"
)

// indexKinds maps entry kinds to their directory index discriminant.
var indexKinds = map[vfs.Kind]int{
	vfs.KindFile:      1,
	vfs.KindDirectory: 2,
}

// copyPackage writes every file reachable through the package tree into dir
// and gives each copied directory its own index, so the copy browses like
// the original.
func copyPackage(ctx context.Context, pkg *marketplace.Package, dir string) error {
	provider := vfs.NewProvider(constant.SchemePackage, backing.Root(pkg.Source, pkg.Root))
	tree := vfs.Afero(ctx, provider)
	disk := filesystem.API()

	if err := disk.RemoveAll(dir); err != nil {
		return err
	}

	err := afero.Walk(tree, "/", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		target := filepath.Join(dir, filepath.FromSlash(name))
		if !info.IsDir() {
			if info.Name() == backing.IndexName {
				return nil
			}

			data, err := provider.ReadFile(ctx, name)
			if err != nil {
				return err
			}
			return disk.WriteFile(target, data, 0o644)
		}

		listing, err := provider.ReadDirectory(ctx, name)
		if err != nil {
			return err
		}

		if name == "/" && !lo.ContainsBy(listing, func(e vfs.DirEntry) bool { return e.Name == "package.json" }) {
			listing = append(listing, vfs.DirEntry{Name: "package.json", Kind: vfs.KindFile})
		}

		if err := disk.MkdirAll(target, os.ModePerm); err != nil {
			return err
		}
		return writeIndex(filepath.Join(target, backing.IndexName), listing)
	})
	if err != nil {
		return err
	}

	if err := copyThemes(ctx, provider, pkg, dir); err != nil {
		return err
	}

	return disk.WriteFile(filepath.Join(dir, "package.json"), pkg.Raw, 0o644)
}

// copyThemes copies every contributed theme and the files it includes. Hosts
// that publish no directory indexes list nothing to walk, so the manifest is
// the only way to find these files.
func copyThemes(ctx context.Context, provider *vfs.Provider, pkg *marketplace.Package, dir string) error {
	for _, contributed := range pkg.Manifest.Contributes.Themes {
		name := vfs.Clean(contributed.Path)
		names := []string{name}

		if _, includes, err := theme.Load(ctx, provider, name); err != nil {
			log.Warnf("theme %s: %v", name, err)
		} else {
			names = append(names, includes...)
		}

		for _, name := range names {
			if err := copyFile(ctx, provider, dir, name); err != nil {
				if vfs.IsNotFound(err) {
					log.Warnf("theme file %s: %v", name, err)
					continue
				}
				return err
			}
		}
	}

	return nil
}

// copyFile copies one file below dir unless the walk already did, and adds
// it to the index of every directory on its way.
func copyFile(ctx context.Context, provider *vfs.Provider, dir, name string) error {
	segments, err := vfs.Segments(name)
	if err != nil || len(segments) == 0 {
		return err
	}

	disk := filesystem.API()
	target := filepath.Join(dir, filepath.FromSlash(vfs.Clean(name)))
	if exists, err := disk.Exists(target); err != nil || exists {
		return err
	}

	data, err := provider.ReadFile(ctx, name)
	if err != nil {
		return err
	}

	if err := disk.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
		return err
	}
	if err := disk.WriteFile(target, data, 0o644); err != nil {
		return err
	}

	current := dir
	for i, segment := range segments {
		kind := lo.Ternary(i == len(segments)-1, vfs.KindFile, vfs.KindDirectory)
		if err := addToIndex(filepath.Join(current, backing.IndexName), vfs.DirEntry{Name: segment, Kind: kind}); err != nil {
			return err
		}
		current = filepath.Join(current, segment)
	}

	return nil
}

func addToIndex(path string, entry vfs.DirEntry) error {
	var listing []vfs.DirEntry
	if data, err := filesystem.API().ReadFile(path); err == nil {
		listing, _ = backing.ParseIndex(data)
	}

	if lo.ContainsBy(listing, func(e vfs.DirEntry) bool { return e.Name == entry.Name }) {
		return nil
	}

	return writeIndex(path, append(listing, entry))
}

func writeIndex(path string, listing []vfs.DirEntry) error {
	pairs := lo.FilterMap(listing, func(e vfs.DirEntry, _ int) ([]any, bool) {
		return []any{e.Name, indexKinds[e.Kind]}, e.Name != backing.IndexName
	})

	data, err := json.Marshal(pairs)
	if err != nil {
		return err
	}
	return filesystem.API().WriteFile(path, data, 0o644)
}

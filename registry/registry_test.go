package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/theme"
	"github.com/themetester/themetester/vfs"
)

func init() {
	filesystem.SetMemMapFs()
}

const monokai = `{"name": "one-monokai", "publisher": "azemoh", "version": "0.5.0", "contributes": {"themes": [{"label": "One Monokai", "uiTheme": "vs-dark", "path": "./themes/OneMonokai-color-theme.json"}]}}`

func remotePackage() *marketplace.Package {
	remote := afero.NewMemMapFs()
	_ = afero.WriteFile(remote, "/pkg/dirinfo.json", []byte(`[["themes", 2], ["README.md", 1]]`), 0o644)
	_ = afero.WriteFile(remote, "/pkg/README.md", []byte("# One Monokai"), 0o644)
	_ = afero.WriteFile(remote, "/pkg/package.json", []byte(monokai), 0o644)
	_ = afero.WriteFile(remote, "/pkg/themes/dirinfo.json", []byte(`[["OneMonokai-color-theme.json", 1]]`), 0o644)
	_ = afero.WriteFile(remote, "/pkg/themes/OneMonokai-color-theme.json", []byte(`{"type": "dark"}`), 0o644)

	manifest, _ := marketplace.ParseManifest("package.json", []byte(monokai))
	return &marketplace.Package{
		Coordinate: manifest.Coordinate(""),
		Manifest:   manifest,
		Raw:        []byte(monokai),
		Root:       backing.Location{}.Join("/pkg"),
		Source:     &backing.AferoSource{Fs: remote},
	}
}

func TestBuiltins(t *testing.T) {
	ctx := context.Background()

	Convey("Given a registry", t, func() {
		r := New(filepath.Join("/extensions", t.Name()))

		Convey("Built-in themes are found without installing, case-insensitively", func() {
			found, err := r.Find(ctx, "VSCode", "Theme-Defaults")
			So(err, ShouldBeNil)
			pkg, ok := found.Get()
			So(ok, ShouldBeTrue)
			So(pkg.Installed, ShouldBeTrue)
			So(pkg.Manifest.Contributes.Themes[0].SettingsID(), ShouldEqual, "Default Dark+")
		})

		Convey("Built-in files are browsable", func() {
			found, _ := r.Find(ctx, "vscode", "theme-defaults")
			pkg := found.MustGet()
			provider := vfs.NewProvider("builtin", backing.Root(pkg.Source, pkg.Root))

			listing, err := provider.ReadDirectory(ctx, "/themes")
			So(err, ShouldBeNil)
			So(listing, ShouldHaveLength, 3)

			data, err := provider.ReadFile(ctx, "/themes/dark_plus.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"name": "Dark+"`)
		})

		Convey("Unknown extensions are absent", func() {
			found, err := r.Find(ctx, "azemoh", "one-monokai")
			So(err, ShouldBeNil)
			So(found.IsAbsent(), ShouldBeTrue)
		})

		Convey("Built-ins can not be removed or reinstalled", func() {
			So(errors.Is(r.Uninstall("vscode", "theme-defaults"), ErrBuiltIn), ShouldBeTrue)

			found, _ := r.Find(ctx, "vscode", "theme-defaults")
			_, err := r.Install(ctx, found.MustGet())
			So(errors.Is(err, ErrBuiltIn), ShouldBeTrue)
		})
	})
}

func TestInstall(t *testing.T) {
	ctx := context.Background()

	Convey("Given a package that is not installed", t, func() {
		dir := filepath.Join("/extensions", t.Name())
		r := New(dir)
		pkg := remotePackage()

		record, err := r.Install(ctx, pkg)
		So(err, ShouldBeNil)

		Convey("The files are copied with fresh indexes", func() {
			So(record.Dir, ShouldEqual, filepath.Join(dir, "azemoh.one-monokai-0.5.0"))

			data, err := filesystem.API().ReadFile(filepath.Join(record.Dir, "themes", "OneMonokai-color-theme.json"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"type": "dark"}`)

			index, err := filesystem.API().ReadFile(filepath.Join(record.Dir, "dirinfo.json"))
			So(err, ShouldBeNil)
			entries, err := backing.ParseIndex(index)
			So(err, ShouldBeNil)
			So(entries, ShouldContain, vfs.DirEntry{Name: "package.json", Kind: vfs.KindFile})
			So(entries, ShouldContain, vfs.DirEntry{Name: "themes", Kind: vfs.KindDirectory})
		})

		Convey("A new registry finds it from disk", func() {
			found, err := New(dir).Find(ctx, "azemoh", "one-monokai")
			So(err, ShouldBeNil)
			installed := found.MustGet()
			So(installed.Installed, ShouldBeTrue)
			So(installed.Coordinate.Version, ShouldEqual, "0.5.0")

			provider := vfs.NewProvider("installed", backing.Root(installed.Source, installed.Root))
			data, err := provider.ReadFile(ctx, "/README.md")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "# One Monokai")
		})

		Convey("It is listed and verifies", func() {
			records, err := r.List()
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 2)
			So(records[0].Coordinate.ID(), ShouldEqual, "azemoh.one-monokai")
			So(records[1].BuiltIn, ShouldBeTrue)

			ok, err := r.Verify(records[0])
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			So(filesystem.API().WriteFile(filepath.Join(record.Dir, "package.json"), []byte("{}"), 0o644), ShouldBeNil)
			ok, err = r.Verify(records[0])
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Uninstall removes files and record", func() {
			So(r.Uninstall("azemoh", "one-monokai"), ShouldBeNil)

			exists, _ := filesystem.API().Exists(record.Dir)
			So(exists, ShouldBeFalse)

			found, err := r.Find(ctx, "azemoh", "one-monokai")
			So(err, ShouldBeNil)
			So(found.IsAbsent(), ShouldBeTrue)

			So(errors.Is(r.Uninstall("azemoh", "one-monokai"), ErrNotInstalled), ShouldBeTrue)
		})
	})
}

const plain = `{"name": "plain", "publisher": "pub", "version": "1.0.0", "contributes": {"themes": [{"label": "Plain Dark", "uiTheme": "vs-dark", "path": "./themes/dark.json"}]}}`

func TestInstallWithoutIndexes(t *testing.T) {
	ctx := context.Background()

	Convey("Given a package on a host that publishes no directory indexes", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/pub/plain/1.0.0/extension/package.json":
				_, _ = w.Write([]byte(plain))
			case "/pub/plain/1.0.0/extension/themes/dark.json":
				_, _ = w.Write([]byte(`{"name": "Plain Dark", "include": "./base.json", "colors": {"editor.background": "#000000"}}`))
			case "/pub/plain/1.0.0/extension/themes/base.json":
				_, _ = w.Write([]byte(`{"type": "dark", "colors": {"editor.foreground": "#ffffff"}}`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		manifest, err := marketplace.ParseManifest("package.json", []byte(plain))
		So(err, ShouldBeNil)
		coord := manifest.Coordinate("")
		root, err := backing.PackageRoot(server.URL+"/{publisher}/{name}/{version}/extension", coord)
		So(err, ShouldBeNil)

		dir := filepath.Join("/extensions", t.Name())
		record, err := New(dir).Install(ctx, &marketplace.Package{
			Coordinate: coord,
			Manifest:   manifest,
			Raw:        []byte(plain),
			Root:       root,
			Source:     &backing.HTTPSource{Client: server.Client()},
		})
		So(err, ShouldBeNil)

		Convey("The contributed theme and its include are copied", func() {
			data, err := filesystem.API().ReadFile(filepath.Join(record.Dir, "themes", "dark.json"))
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "Plain Dark")

			exists, err := filesystem.API().Exists(filepath.Join(record.Dir, "themes", "base.json"))
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})

		Convey("The copy browses with indexes", func() {
			found, err := New(dir).Find(ctx, "pub", "plain")
			So(err, ShouldBeNil)
			installed := found.MustGet()

			provider := vfs.NewProvider("installed", backing.Root(installed.Source, installed.Root))
			listing, err := provider.ReadDirectory(ctx, "/themes")
			So(err, ShouldBeNil)
			So(listing, ShouldResemble, []vfs.DirEntry{
				{Name: "base.json", Kind: vfs.KindFile},
				{Name: "dark.json", Kind: vfs.KindFile},
			})

			doc, includes, err := theme.Load(ctx, provider, "/themes/dark.json")
			So(err, ShouldBeNil)
			So(includes, ShouldResemble, []string{"/themes/base.json"})
			So(doc.Type, ShouldEqual, "dark")
			So(doc.Colors, ShouldContainKey, "editor.foreground")
		})
	})
}

package vfs

import (
	"context"
	"errors"
	"io/fs"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// countingTree builds a small lazily loaded tree and counts loader calls.
type countingTree struct {
	fileLoads atomic.Int32
	dirLoads  atomic.Int32
}

func (c *countingTree) file(name, content string) *Entry {
	return NewFile(name, func(context.Context) ([]byte, error) {
		c.fileLoads.Add(1)
		return []byte(content), nil
	})
}

func (c *countingTree) dir(name string, children ...*Entry) *Entry {
	return NewDirectory(name, func(context.Context) (map[string]*Entry, error) {
		c.dirLoads.Add(1)
		m := make(map[string]*Entry, len(children))
		for _, child := range children {
			m[child.Name()] = child
		}
		return m, nil
	})
}

func newTestProvider() (*Provider, *countingTree) {
	tree := &countingTree{}
	root := tree.dir("",
		tree.file("readme.md", "hello"),
		tree.dir("src",
			tree.file("main.ts", "console.log(1)"),
		),
	)
	return NewProvider("test", root), tree
}

func TestProviderReads(t *testing.T) {
	ctx := context.Background()

	Convey("Given a lazily populated tree", t, func() {
		provider, tree := newTestProvider()

		Convey("Nothing is fetched up front", func() {
			So(tree.dirLoads.Load(), ShouldEqual, 0)
			So(tree.fileLoads.Load(), ShouldEqual, 0)
		})

		Convey("Reading a file twice returns identical bytes and fetches once", func() {
			first, err := provider.ReadFile(ctx, "/src/main.ts")
			So(err, ShouldBeNil)
			second, err := provider.ReadFile(ctx, "src/main.ts")
			So(err, ShouldBeNil)

			So(string(first), ShouldEqual, "console.log(1)")
			So(second, ShouldResemble, first)
			So(tree.fileLoads.Load(), ShouldEqual, 1)
		})

		Convey("Listing a directory twice is stable and fetches once", func() {
			first, err := provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)
			second, err := provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)

			So(first, ShouldResemble, []DirEntry{
				{Name: "readme.md", Kind: KindFile},
				{Name: "src", Kind: KindDirectory},
			})
			So(second, ShouldResemble, first)
			So(tree.dirLoads.Load(), ShouldEqual, 1)
		})

		Convey("Stat reports the kind and, once read, the size", func() {
			stats, err := provider.Stat(ctx, "/src")
			So(err, ShouldBeNil)
			So(stats.Kind, ShouldEqual, KindDirectory)

			_, err = provider.ReadFile(ctx, "/readme.md")
			So(err, ShouldBeNil)
			stats, err = provider.Stat(ctx, "/readme.md")
			So(err, ShouldBeNil)
			So(stats.Kind, ShouldEqual, KindFile)
			So(stats.Size, ShouldEqual, 5)
		})

		Convey("Missing entries fail with ErrNotFound", func() {
			_, err := provider.Stat(ctx, "/nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, fs.ErrNotExist), ShouldBeTrue)
		})

		Convey("Descending into a file fails with ErrNotFound", func() {
			_, err := provider.ReadFile(ctx, "/readme.md/child")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Paths cannot escape the root", func() {
			_, err := provider.Stat(ctx, "/a/../../etc")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			_, err = provider.ReadDirectory(ctx, "../")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Kind mismatches are reported", func() {
			_, err := provider.ReadDirectory(ctx, "/readme.md")
			So(errors.Is(err, ErrNotADirectory), ShouldBeTrue)

			_, err = provider.ReadFile(ctx, "/src")
			So(errors.Is(err, ErrIsADirectory), ShouldBeTrue)
		})
	})
}

func TestProviderWrites(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tree and a watcher", t, func() {
		provider, tree := newTestProvider()

		var events []Event
		unregister := provider.Watch(func(e Event) {
			events = append(events, e)
		})
		defer unregister()

		Convey("WriteFile with create adds a file and emits created", func() {
			err := provider.WriteFile(ctx, "/new.txt", []byte("new"), WriteOptions{Create: true})
			So(err, ShouldBeNil)

			data, err := provider.ReadFile(ctx, "/new.txt")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "new")
			So(events, ShouldContain, Event{Type: Created, Path: "/new.txt"})
		})

		Convey("WriteFile without create fails for an absent file", func() {
			err := provider.WriteFile(ctx, "/absent.txt", nil, WriteOptions{Overwrite: true})
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(events, ShouldBeEmpty)
		})

		Convey("WriteFile without overwrite fails for an existing file", func() {
			err := provider.WriteFile(ctx, "/readme.md", []byte("x"), WriteOptions{Create: true})
			So(errors.Is(err, ErrAlreadyExists), ShouldBeTrue)
		})

		Convey("WriteFile with overwrite replaces content without fetching it", func() {
			err := provider.WriteFile(ctx, "/readme.md", []byte("# Theme\n"), WriteOptions{Overwrite: true})
			So(err, ShouldBeNil)

			data, err := provider.ReadFile(ctx, "/readme.md")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "# Theme\n")
			So(tree.fileLoads.Load(), ShouldEqual, 0)
			So(events, ShouldResemble, []Event{{Type: Changed, Path: "/readme.md"}})
		})

		Convey("WriteFile onto a directory fails", func() {
			err := provider.WriteFile(ctx, "/src", nil, WriteOptions{Create: true, Overwrite: true})
			So(errors.Is(err, ErrIsADirectory), ShouldBeTrue)
		})

		Convey("CreateDirectory then Delete round trips", func() {
			So(provider.CreateDirectory(ctx, "/docs"), ShouldBeNil)
			So(provider.CreateDirectory(ctx, "/docs"), ShouldNotBeNil)
			So(provider.WriteFile(ctx, "/docs/a.md", []byte("a"), WriteOptions{Create: true}), ShouldBeNil)

			So(provider.Delete(ctx, "/docs", true), ShouldBeNil)
			_, err := provider.Stat(ctx, "/docs/a.md")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(events, ShouldContain, Event{Type: Deleted, Path: "/docs"})
		})

		Convey("The root cannot be deleted", func() {
			err := provider.Delete(ctx, "/", true)
			So(errors.Is(err, ErrRoot), ShouldBeTrue)
		})

		Convey("Delete without recursive keeps a populated directory", func() {
			So(provider.CreateDirectory(ctx, "/docs"), ShouldBeNil)
			So(provider.WriteFile(ctx, "/docs/a.md", []byte("a"), WriteOptions{Create: true}), ShouldBeNil)

			err := provider.Delete(ctx, "/docs", false)
			So(errors.Is(err, ErrNotEmpty), ShouldBeTrue)

			data, err := provider.ReadFile(ctx, "/docs/a.md")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "a")

			Convey("But removes it once emptied", func() {
				So(provider.Delete(ctx, "/docs/a.md", false), ShouldBeNil)
				So(provider.Delete(ctx, "/docs", false), ShouldBeNil)

				_, err := provider.Stat(ctx, "/docs")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("Rename moves an entry", func() {
			So(provider.Rename(ctx, "/readme.md", "/src/README.md", false), ShouldBeNil)

			_, err := provider.Stat(ctx, "/readme.md")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			data, err := provider.ReadFile(ctx, "/src/README.md")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "hello")
		})

		Convey("Rename refuses to replace without overwrite", func() {
			So(provider.WriteFile(ctx, "/other.md", nil, WriteOptions{Create: true}), ShouldBeNil)
			err := provider.Rename(ctx, "/other.md", "/readme.md", false)
			So(errors.Is(err, ErrAlreadyExists), ShouldBeTrue)
		})

		Convey("Rename refuses to move a directory below itself", func() {
			err := provider.Rename(ctx, "/src", "/src/inner", false)
			So(errors.Is(err, ErrInvalidMove), ShouldBeTrue)
		})
	})
}

// unlistedTree answers from files without ever listing a directory.
func unlistedTree(files map[string]string, prefix string) *Entry {
	dir := NewDirectory("", func(context.Context) (map[string]*Entry, error) {
		return nil, nil
	})

	return dir.WithResolver(func(_ context.Context, name string, kind Kind) (*Entry, error) {
		if kind == KindDirectory {
			nested := unlistedTree(files, prefix+name+"/")
			nested.setName(name)
			return nested, nil
		}

		content, ok := files[prefix+name]
		if !ok {
			return nil, ErrNotFound
		}
		return NewMemoryFile(name, []byte(content)), nil
	})
}

func TestProviderUnlisted(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tree whose directories list nothing", t, func() {
		provider := NewProvider("test", unlistedTree(map[string]string{
			"package.json":           "{}",
			"themes/dark/color.json": "dark",
		}, ""))

		Convey("Known paths still resolve", func() {
			data, err := provider.ReadFile(ctx, "/themes/dark/color.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "dark")

			stats, err := provider.Stat(ctx, "/package.json")
			So(err, ShouldBeNil)
			So(stats.Kind, ShouldEqual, KindFile)
		})

		Convey("Unknown paths are not found", func() {
			_, err := provider.ReadFile(ctx, "/themes/light.json")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Resolved files join the listing", func() {
			listing, err := provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)
			So(listing, ShouldBeEmpty)

			_, err = provider.ReadFile(ctx, "/package.json")
			So(err, ShouldBeNil)

			listing, err = provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)
			So(listing, ShouldResemble, []DirEntry{{Name: "package.json", Kind: KindFile}})
		})

		Convey("Resolved files can be deleted", func() {
			So(provider.Delete(ctx, "/package.json", false), ShouldBeNil)

			listing, err := provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)
			So(listing, ShouldBeEmpty)
		})
	})
}

func TestSegments(t *testing.T) {
	Convey("Segments", t, func() {
		segments, err := Segments("/a//b/./c/")
		So(err, ShouldBeNil)
		So(segments, ShouldResemble, []string{"a", "b", "c"})

		segments, err = Segments(`a\b`)
		So(err, ShouldBeNil)
		So(segments, ShouldResemble, []string{"a", "b"})

		_, err = Segments("/a/../b")
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)

		So(Clean("a/b/"), ShouldEqual, "/a/b")
		So(Dir("/a/b"), ShouldEqual, "/a")
	})
}

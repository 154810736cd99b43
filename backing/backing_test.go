package backing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/themetester/themetester/vfs"
)

func TestParseIndex(t *testing.T) {
	Convey("ParseIndex", t, func() {
		Convey("It decodes name/kind pairs", func() {
			entries, err := ParseIndex([]byte(`[["readme.md", 1], ["src", 2], ["odd", 64]]`))
			So(err, ShouldBeNil)
			So(entries, ShouldResemble, []vfs.DirEntry{
				{Name: "readme.md", Kind: vfs.KindFile},
				{Name: "src", Kind: vfs.KindDirectory},
				{Name: "odd", Kind: vfs.KindFile},
			})
		})

		Convey("It skips malformed elements", func() {
			entries, err := ParseIndex([]byte(`[["ok", 1], "nope", [1, 2], ["a", "b"], ["x", 1, 2], ["..", 2], ["a/b", 1]]`))
			So(err, ShouldBeNil)
			So(entries, ShouldResemble, []vfs.DirEntry{{Name: "ok", Kind: vfs.KindFile}})
		})

		Convey("The last duplicate wins", func() {
			entries, err := ParseIndex([]byte(`[["dup", 1], ["other", 1], ["dup", 2]]`))
			So(err, ShouldBeNil)
			So(entries, ShouldResemble, []vfs.DirEntry{
				{Name: "dup", Kind: vfs.KindDirectory},
				{Name: "other", Kind: vfs.KindFile},
			})
		})

		Convey("A document that is not an array is an error", func() {
			_, err := ParseIndex([]byte(`{"readme.md": 1}`))
			So(err, ShouldNotBeNil)

			_, err = ParseIndex([]byte(`not json`))
			So(err, ShouldNotBeNil)
		})
	})
}

func newMemTree() afero.Fs {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/pkg/dirinfo.json", []byte(`[["package.json", 1], ["themes", 2], ["broken", 2], ["empty", 2]]`), 0o644)
	_ = afero.WriteFile(fs, "/pkg/package.json", []byte(`{"name": "one"}`), 0o644)
	_ = afero.WriteFile(fs, "/pkg/themes/dirinfo.json", []byte(`[["dark.json", 1]]`), 0o644)
	_ = afero.WriteFile(fs, "/pkg/themes/dark.json", []byte(`{"type": "dark"}`), 0o644)
	_ = afero.WriteFile(fs, "/pkg/broken/dirinfo.json", []byte(`{{{`), 0o644)
	_ = fs.MkdirAll("/pkg/empty", 0o755)
	return fs
}

func TestTree(t *testing.T) {
	ctx := context.Background()

	Convey("Given a backed tree on an afero filesystem", t, func() {
		var reads atomic.Int32
		base := &AferoSource{Fs: newMemTree()}
		src := SourceFunc(func(ctx context.Context, loc Location) ([]byte, error) {
			reads.Add(1)
			return base.ReadFile(ctx, loc)
		})

		loc := Location{}.Join("/pkg")
		provider := vfs.NewProvider("test", Root(src, loc))

		Convey("The root lists the indexed children", func() {
			listing, err := provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)
			So(listing, ShouldHaveLength, 4)
		})

		Convey("Files resolve by joining paths and are read once", func() {
			first, err := provider.ReadFile(ctx, "/themes/dark.json")
			So(err, ShouldBeNil)
			readsAfterFirst := reads.Load()

			second, err := provider.ReadFile(ctx, "/themes/dark.json")
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
			So(reads.Load(), ShouldEqual, readsAfterFirst)
		})

		Convey("A malformed index yields an empty listing", func() {
			listing, err := provider.ReadDirectory(ctx, "/broken")
			So(err, ShouldBeNil)
			So(listing, ShouldBeEmpty)
		})

		Convey("A missing index yields an empty listing", func() {
			listing, err := provider.ReadDirectory(ctx, "/empty")
			So(err, ShouldBeNil)
			So(listing, ShouldBeEmpty)
		})

		Convey("Paths absent from the index are not found", func() {
			So(provider.WriteFile(ctx, "/package.json", []byte("{}"), vfs.WriteOptions{Overwrite: true}), ShouldBeNil)
			_, err := provider.ReadFile(ctx, "/themes/missing.json")
			So(errors.Is(err, vfs.ErrNotFound), ShouldBeTrue)

			data, err := provider.ReadFile(ctx, "/package.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "{}")
		})
	})
}

func TestHTTPSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given an HTTP server hosting a package", t, func() {
		var clientName atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientName.Store(r.Header.Get("X-Client-Name"))
			switch r.URL.Path {
			case "/pub/one/1.0.0/extension/dirinfo.json":
				_, _ = w.Write([]byte(`[["package.json", 1]]`))
			case "/pub/one/1.0.0/extension/package.json":
				_, _ = w.Write([]byte(`{"name": "one"}`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		src := &HTTPSource{Client: server.Client(), Header: http.Header{"X-Client-Name": {"theme-tester"}}}
		root, err := PackageRoot(server.URL+"/{publisher}/{name}/{version}/extension", Coordinate{Publisher: "pub", Name: "one", Version: "1.0.0"})
		So(err, ShouldBeNil)

		Convey("Files are fetched relative to the package root", func() {
			data, err := src.ReadFile(ctx, root.Join("package.json"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"name": "one"}`)
			So(clientName.Load(), ShouldEqual, "theme-tester")
		})

		Convey("Non-2xx responses are fetch errors", func() {
			_, err := src.ReadFile(ctx, root.Join("missing"))
			So(errors.Is(err, ErrFetch), ShouldBeTrue)

			var fetchErr *FetchError
			So(errors.As(err, &fetchErr), ShouldBeTrue)
			So(fetchErr.Status, ShouldEqual, http.StatusNotFound)
		})

		Convey("A backed tree browses over HTTP", func() {
			provider := vfs.NewProvider("pkg", Root(src, root))
			listing, err := provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)
			So(listing, ShouldResemble, []vfs.DirEntry{{Name: "package.json", Kind: vfs.KindFile}})
		})
	})
}

func TestUnindexedHost(t *testing.T) {
	ctx := context.Background()

	Convey("Given an HTTP host that serves package files without indexes", t, func() {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			switch r.URL.Path {
			case "/pkg/package.json":
				_, _ = w.Write([]byte(`{"name": "one"}`))
			case "/pkg/themes/dark.json":
				_, _ = w.Write([]byte(`{"type": "dark"}`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		root, err := ParseLocation(server.URL + "/pkg")
		So(err, ShouldBeNil)
		provider := vfs.NewProvider("pkg", Root(&HTTPSource{Client: server.Client()}, root))

		Convey("The root lists nothing", func() {
			listing, err := provider.ReadDirectory(ctx, "/")
			So(err, ShouldBeNil)
			So(listing, ShouldBeEmpty)
		})

		Convey("Known paths are read by joining them onto the root", func() {
			data, err := provider.ReadFile(ctx, "/themes/dark.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"type": "dark"}`)

			stats, err := provider.Stat(ctx, "/package.json")
			So(err, ShouldBeNil)
			So(stats.Kind, ShouldEqual, vfs.KindFile)
		})

		Convey("A joined file is fetched once", func() {
			_, err := provider.ReadFile(ctx, "/package.json")
			So(err, ShouldBeNil)
			afterFirst := requests.Load()

			_, err = provider.ReadFile(ctx, "/package.json")
			So(err, ShouldBeNil)
			So(requests.Load(), ShouldEqual, afterFirst)
		})

		Convey("Paths the host does not serve are not found", func() {
			_, err := provider.ReadFile(ctx, "/themes/light.json")
			So(errors.Is(err, vfs.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given an indexed tree", t, func() {
		provider := vfs.NewProvider("test", Root(&AferoSource{Fs: newMemTree()}, Location{}.Join("/pkg")))

		Convey("Names missing from the index are not joined", func() {
			_, err := provider.ReadFile(ctx, "/themes/dark.json")
			So(err, ShouldBeNil)

			_, err = provider.ReadFile(ctx, "/themes/light.json")
			So(errors.Is(err, vfs.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestCancelledListing(t *testing.T) {
	Convey("Given a backed tree first browsed with a cancelled context", t, func() {
		provider := vfs.NewProvider("test", Root(&AferoSource{Fs: newMemTree()}, Location{}.Join("/pkg")))

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := provider.ReadDirectory(cancelled, "/")
		So(errors.Is(err, context.Canceled), ShouldBeTrue)

		Convey("A later read with a live context lists the index again", func() {
			data, err := provider.ReadFile(context.Background(), "/package.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"name": "one"}`)

			listing, err := provider.ReadDirectory(context.Background(), "/")
			So(err, ShouldBeNil)
			So(listing, ShouldHaveLength, 4)
		})
	})
}

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	ctx := context.Background()

	Convey("Given an S3 mirror", t, func() {
		src := &S3Source{Client: &fakeS3{objects: map[string]string{
			"mirror/pub/one/package.json": `{"name": "one"}`,
		}}}

		Convey("Objects are addressed by bucket and key", func() {
			data, err := src.ReadFile(ctx, MustParseLocation("s3://mirror/pub/one/package.json"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"name": "one"}`)
		})

		Convey("Missing objects are fetch errors", func() {
			_, err := src.ReadFile(ctx, MustParseLocation("s3://mirror/pub/one/missing"))
			So(errors.Is(err, ErrFetch), ShouldBeTrue)
		})
	})
}

func TestRouterAndCoordinates(t *testing.T) {
	ctx := context.Background()

	Convey("Router", t, func() {
		router := NewRouter().Handle(SourceFunc(func(context.Context, Location) ([]byte, error) {
			return []byte("embedded"), nil
		}), SchemeEmbed)

		data, err := router.ReadFile(ctx, EmbedLocation("readme.md"))
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, "embedded")

		_, err = router.ReadFile(ctx, MustParseLocation("ftp://host/file"))
		So(errors.Is(err, ErrUnsupportedScheme), ShouldBeTrue)
	})

	Convey("PackageRoot", t, func() {
		root, err := PackageRoot("", Coordinate{Publisher: "azemoh", Name: "one-monokai", Version: "0.5.0"})
		So(err, ShouldBeNil)
		So(root.String(), ShouldEqual, "https://azemoh.vscode-unpkg.net/azemoh/one-monokai/0.5.0/extension")
		So(root.Join("package.json").String(), ShouldEqual, "https://azemoh.vscode-unpkg.net/azemoh/one-monokai/0.5.0/extension/package.json")

		_, err = PackageRoot("", Coordinate{Publisher: "azemoh", Name: "one-monokai"})
		So(err, ShouldNotBeNil)
	})
}

package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

const monokaiManifest = `{
	"name": "one-monokai",
	"publisher": "azemoh",
	"version": "0.5.0",
	"displayName": "One Monokai Theme",
	"contributes": {"themes": [{"label": "One Monokai", "uiTheme": "vs-dark", "path": "./themes/OneMonokai-color-theme.json"}]}
}`

type gallery struct {
	server   *httptest.Server
	queries  atomic.Int32
	lastBody atomic.Value
	headers  atomic.Value
}

func newGallery(versions map[string]string) *gallery {
	g := &gallery{}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/gallery":
			g.queries.Add(1)
			g.headers.Store(r.Header.Clone())
			body, _ := io.ReadAll(r.Body)
			g.lastBody.Store(string(body))

			var query galleryQuery
			_ = json.Unmarshal(body, &query)
			id := query.Filters[0].Criteria[1].Value

			version, ok := versions[id]
			if !ok {
				_, _ = w.Write([]byte(`{"results": [{"extensions": []}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"results": [{"extensions": [{"versions": [{"version": "` + version + `"}, {"version": "0.0.1"}]}]}]}`))
		case r.URL.Path == "/azemoh/one-monokai/0.5.0/extension/package.json":
			if r.Header.Get("X-Client-Name") != "theme-tester" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(monokaiManifest))
		case r.URL.Path == "/broken/pkg/1.0.0/extension/package.json":
			_, _ = w.Write([]byte(`{"name": `))
		default:
			http.NotFound(w, r)
		}
	}))
	return g
}

func (g *gallery) client(cachePath string) *Client {
	return New(Options{
		HTTP:            g.server.Client(),
		GalleryURL:      g.server.URL + "/gallery",
		PackageTemplate: g.server.URL + "/{publisher}/{name}/{version}/extension",
		CachePath:       cachePath,
	})
}

func TestLatestVersion(t *testing.T) {
	ctx := context.Background()

	Convey("Given a gallery that knows one extension", t, func() {
		g := newGallery(map[string]string{"azemoh.one-monokai": "0.5.0", "broken.pkg": "1.0.0"})
		defer g.server.Close()

		client := g.client("")

		Convey("The first listed version is returned", func() {
			version, err := client.LatestVersion(ctx, "azemoh", "one-monokai")
			So(err, ShouldBeNil)
			So(version, ShouldEqual, "0.5.0")

			headers := g.headers.Load().(http.Header)
			So(headers.Get("Accept"), ShouldEqual, "application/json;api-version=3.0-preview.1")
			So(headers.Get("X-Market-Client-Id"), ShouldEqual, DefaultClientID)

			body := g.lastBody.Load().(string)
			So(body, ShouldContainSubstring, `"filterType":8`)
			So(body, ShouldContainSubstring, `"value":"Microsoft.VisualStudio.Code"`)
			So(body, ShouldContainSubstring, `"flags":512`)
		})

		Convey("An unknown extension is not found", func() {
			_, err := client.LatestVersion(ctx, "nobody", "nothing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Versions are cached when a cache path is set", func() {
			cached := g.client("/cache/" + strings.ReplaceAll(t.Name(), "/", "_") + ".json")
			_, err := cached.LatestVersion(ctx, "azemoh", "one-monokai")
			So(err, ShouldBeNil)
			_, err = cached.LatestVersion(ctx, "Azemoh", "One-Monokai")
			So(err, ShouldBeNil)
			So(g.queries.Load(), ShouldEqual, 1)
		})
	})

	Convey("Given a failing gallery", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := New(Options{HTTP: server.Client(), GalleryURL: server.URL})

		Convey("The failure is a backing fetch error", func() {
			_, err := client.LatestVersion(ctx, "azemoh", "one-monokai")
			So(errors.Is(err, backing.ErrFetch), ShouldBeTrue)
			So(errors.Is(err, ErrNotFound), ShouldBeFalse)
		})
	})
}

func TestFind(t *testing.T) {
	ctx := context.Background()

	Convey("Given a gallery and a package host", t, func() {
		g := newGallery(map[string]string{"azemoh.one-monokai": "0.5.0", "broken.pkg": "1.0.0"})
		defer g.server.Close()

		client := g.client("")

		Convey("Find resolves the latest manifest", func() {
			pkg, err := client.Find(ctx, "azemoh", "one-monokai")
			So(err, ShouldBeNil)
			So(pkg.Manifest.Title(), ShouldEqual, "One Monokai Theme")
			So(pkg.Manifest.Contributes.Themes, ShouldHaveLength, 1)
			So(pkg.Manifest.Contributes.Themes[0].SettingsID(), ShouldEqual, "One Monokai")
			So(pkg.Coordinate.String(), ShouldEqual, "azemoh.one-monokai@0.5.0")
			So(pkg.Root.String(), ShouldEqual, g.server.URL+"/azemoh/one-monokai/0.5.0/extension")
			So(pkg.Installed, ShouldBeFalse)
		})

		Convey("A malformed manifest is a parse error", func() {
			_, err := client.Find(ctx, "broken", "pkg")
			So(errors.Is(err, ErrManifestParse), ShouldBeTrue)
		})

		Convey("A missing manifest is a fetch error", func() {
			_, err := client.FetchManifest(ctx, backing.Coordinate{Publisher: "azemoh", Name: "one-monokai", Version: "9.9.9"})
			So(errors.Is(err, backing.ErrFetch), ShouldBeTrue)
		})
	})
}

func TestManifest(t *testing.T) {
	Convey("Theme settings ids prefer id over label", t, func() {
		So(Theme{ID: "one", Label: "One"}.SettingsID(), ShouldEqual, "one")
		So(Theme{Label: "One"}.SettingsID(), ShouldEqual, "One")
	})

	Convey("Coordinate falls back to the given publisher", t, func() {
		m, err := ParseManifest("package.json", []byte(`{"name": "n", "version": "1.0.0"}`))
		So(err, ShouldBeNil)
		So(m.Coordinate("pub").ID(), ShouldEqual, "pub.n")
	})

	Convey("Schema names the required fields", t, func() {
		schema := Schema()
		So(schema.Required, ShouldContain, "name")
		So(schema.Required, ShouldContain, "version")
	})
}

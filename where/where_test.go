package where

import (
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/themetester/themetester/filesystem"
)

func init() {
	// Use in-memory filesystem for tests to avoid creating real directories
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Cache()", func() {
			path := Cache()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Extensions()", func() {
			path := Extensions()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			So(Installed(), ShouldEqual, filepath.Join(path, "installed.json"))
		})

		Convey("Config override", func() {
			t.Setenv(EnvConfigPath, "/custom/themetester")
			So(Config(), ShouldEqual, "/custom/themetester")
			So(Settings(), ShouldEqual, filepath.Join("/custom/themetester", "settings.json"))
		})
	})
}

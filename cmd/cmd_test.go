package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/themetester/themetester/filesystem"
)

func TestParseLocationArg(t *testing.T) {
	Convey("Locations are accepted bare or as links", t, func() {
		loc, err := parseLocationArg("azemoh.one-monokai")
		So(err, ShouldBeNil)
		So(loc.ID(), ShouldEqual, "azemoh.one-monokai")

		loc, err = parseLocationArg("https://vscode.dev/editor/theme/vscode.theme-defaults/Light+")
		So(err, ShouldBeNil)
		So(loc.ID(), ShouldEqual, "vscode.theme-defaults")
		So(loc.Theme, ShouldEqual, "Light+")

		_, err = parseLocationArg("no-dot")
		So(err, ShouldNotBeNil)
	})
}

func TestTreeLine(t *testing.T) {
	Convey("Tree lines are indented by depth", t, func() {
		So(treeLine("readme.md", "-", "readme.md"), ShouldEqual, "- readme.md")
		So(treeLine("src/styles.css", "-", "styles.css"), ShouldEqual, "  - styles.css")
		So(treeLine("a/b/c", "", "c"), ShouldEqual, "    c")
	})
}

func TestRemoveIfExists(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()

		Convey("Existing paths are removed", func() {
			So(filesystem.API().WriteFile("/cache/versions.json", []byte("{}"), 0o644), ShouldBeNil)
			So(removeIfExists(func() string { return "/cache/versions.json" })(), ShouldBeNil)

			exists, _ := filesystem.API().Exists("/cache/versions.json")
			So(exists, ShouldBeFalse)
		})

		Convey("Missing paths are already clear", func() {
			So(removeIfExists(func() string { return "/cache/missing" })(), ShouldBeNil)
		})
	})
}

package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuery(t *testing.T) {
	Convey("Given remembered locations", t, func() {
		viper.Set(key.PreviewShowSuggestions, true)
		So(Clear(), ShouldBeNil)

		So(Remember("azemoh.one-monokai", WeightPreviewed), ShouldBeNil)
		So(Remember("zhuangtongfa.Material-theme", WeightKept), ShouldBeNil)
		So(Remember("  dracula-theme.theme-dracula  ", WeightPreviewed), ShouldBeNil)

		Convey("Suggestions match fuzzily and sort by rank", func() {
			So(SuggestMany("theme"), ShouldResemble, []string{"zhuangtongfa.material-theme", "dracula-theme.theme-dracula"})
			So(Suggest("monokai").MustGet(), ShouldEqual, "azemoh.one-monokai")
		})

		Convey("Remembering again raises the rank", func() {
			So(Remember("dracula-theme.theme-dracula", WeightKept), ShouldBeNil)
			So(SuggestMany("theme")[0], ShouldEqual, "dracula-theme.theme-dracula")
		})

		Convey("Nothing matches an unknown input", func() {
			So(Suggest("solarized").IsAbsent(), ShouldBeTrue)
		})

		Convey("Suggestions can be turned off", func() {
			viper.Set(key.PreviewShowSuggestions, false)
			So(SuggestMany("theme"), ShouldBeEmpty)
		})

		Convey("Clear forgets everything", func() {
			So(Clear(), ShouldBeNil)
			So(SuggestMany(""), ShouldBeEmpty)
		})
	})
}

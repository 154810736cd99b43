package version

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/themetester/themetester/backing"
)

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		Convey("It orders by major, minor, then patch", func() {
			So(must(Compare("1.2.3", "1.2.3")), ShouldEqual, 0)
			So(must(Compare("2.0.0", "1.9.9")), ShouldEqual, 1)
			So(must(Compare("1.2.3", "1.10.0")), ShouldEqual, -1)
		})

		Convey("It tolerates prefixes, suffixes and short versions", func() {
			So(must(Compare("v1.2.3", "1.2.3")), ShouldEqual, 0)
			So(must(Compare("1.2.3-beta.1", "1.2.3")), ShouldEqual, 0)
			So(must(Compare("1.2", "1.2.0")), ShouldEqual, 0)
		})

		Convey("Garbage is an error", func() {
			_, err := Compare("latest", "1.0.0")
			So(err, ShouldNotBeNil)

			_, err = Compare("1.0.0", "1.0.0.0")
			So(err, ShouldNotBeNil)
		})
	})
}

func must(cmp int, err error) int {
	So(err, ShouldBeNil)
	return cmp
}

func TestOutdated(t *testing.T) {
	ctx := context.Background()

	Convey("Given installed extensions and published versions", t, func() {
		published := map[string]string{
			"pub.old":     "2.0.0",
			"pub.current": "1.0.0",
		}
		latest := func(_ context.Context, publisher, name string) (string, error) {
			v, ok := published[publisher+"."+name]
			if !ok {
				return "", errors.New("not found")
			}
			return v, nil
		}

		installed := []backing.Coordinate{
			{Publisher: "pub", Name: "old", Version: "1.4.0"},
			{Publisher: "pub", Name: "current", Version: "1.0.0"},
		}

		Convey("Only newer releases are reported", func() {
			updates, err := Outdated(ctx, installed, latest)
			So(err, ShouldBeNil)
			So(updates, ShouldHaveLength, 1)
			So(updates[0].String(), ShouldEqual, "pub.old 1.4.0 -> 2.0.0")
		})

		Convey("A failed lookup does not stop the others", func() {
			installed = append([]backing.Coordinate{{Publisher: "pub", Name: "gone", Version: "1.0.0"}}, installed...)
			updates, err := Outdated(ctx, installed, latest)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "pub.gone")
			So(updates, ShouldHaveLength, 1)
		})
	})
}

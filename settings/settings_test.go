package settings

import (
	"context"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/themetester/themetester/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestMemorySlot(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unset memory slot", t, func() {
		slot := NewMemorySlot("workbench.colorTheme", mo.None[string]())

		Convey("Get reports unset", func() {
			value, err := slot.Get(ctx)
			So(err, ShouldBeNil)
			So(value.IsAbsent(), ShouldBeTrue)
		})

		Convey("Set then Restore(None) unsets again", func() {
			So(slot.Set(ctx, "Dark+"), ShouldBeNil)
			So(Restore(ctx, slot, mo.None[string]()), ShouldBeNil)

			value, _ := slot.Get(ctx)
			So(value.IsAbsent(), ShouldBeTrue)
			So(slot.Writes(), ShouldResemble, []mo.Option[string]{mo.Some("Dark+"), mo.None[string]()})
		})

		Convey("Empty string is a value, not unset", func() {
			So(slot.Set(ctx, ""), ShouldBeNil)
			value, _ := slot.Get(ctx)
			So(value, ShouldResemble, mo.Some(""))
		})

		Convey("A cancelled context writes nothing", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			So(slot.Set(cancelled, "x"), ShouldNotBeNil)
			So(slot.Writes(), ShouldBeEmpty)
		})
	})
}

func TestFileSlot(t *testing.T) {
	ctx := context.Background()

	Convey("Given a file slot over a fresh settings document", t, func() {
		path := "/config/" + t.Name() + "/settings.json"
		slot := NewFileSlot(path, "workbench.colorTheme")

		Convey("It starts unset", func() {
			value, err := slot.Get(ctx)
			So(err, ShouldBeNil)
			So(value.IsAbsent(), ShouldBeTrue)
		})

		Convey("Set persists across slot instances", func() {
			So(slot.Set(ctx, "One Monokai"), ShouldBeNil)

			reopened := NewFileSlot(path, "workbench.colorTheme")
			value, err := reopened.Get(ctx)
			So(err, ShouldBeNil)
			So(value, ShouldResemble, mo.Some("One Monokai"))

			So(reopened.Unset(ctx), ShouldBeNil)
			value, _ = NewFileSlot(path, "workbench.colorTheme").Get(ctx)
			So(value.IsAbsent(), ShouldBeTrue)
		})

		Convey("Other settings in the document are untouched", func() {
			other := NewFileSlot(path, "editor.fontSize")
			So(other.Set(ctx, "14"), ShouldBeNil)
			So(slot.Set(ctx, "Dark+"), ShouldBeNil)
			So(slot.Unset(ctx), ShouldBeNil)

			doc, err := slot.All()
			So(err, ShouldBeNil)
			So(doc, ShouldResemble, Document{"editor.fontSize": "14"})
		})
	})
}

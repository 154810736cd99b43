package icon

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/key"
)

func TestGet(t *testing.T) {
	Convey("Given every registered icon", t, func() {
		all := []Icon{Success, Fail, Progress, Mark, Link, File, Directory, Theme}

		Convey("It renders for each variant", func() {
			for _, variant := range AvailableVariants() {
				Convey("variant="+variant, func() {
					viper.Set(key.IconsVariant, variant)
					for _, i := range all {
						So(Get(i), ShouldNotBeEmpty)
					}
				})
			}
		})

		Convey("It returns empty for an unknown variant", func() {
			viper.Set(key.IconsVariant, "")
			So(Get(Theme), ShouldBeEmpty)
		})
	})
}

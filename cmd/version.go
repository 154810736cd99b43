package cmd

import (
	"runtime"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/style"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version")
}

var versionTemplate = lo.Must(template.New("version").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"bold":   style.Bold,
	"accent": style.Fg(color.Accent),
}).Parse(`{{ accent "▇▇▇" }} {{ accent .App }}

  {{ faint "Version" }}     {{ bold .Version }}
  {{ faint "Platform" }}    {{ bold .OS }}/{{ bold .Arch }}
`))

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and platform",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), struct {
			App, Version, OS, Arch string
		}{
			App:     constant.Themetester,
			Version: constant.Version,
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
		}))
	},
}

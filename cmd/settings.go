package cmd

import (
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/icon"
	"github.com/themetester/themetester/style"
	"github.com/themetester/themetester/where"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
}

// settingsCmd works on the user settings document the previewer writes to.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or change the theme setting the previewer writes",
	Long: `Inspect or change the theme setting the previewer writes.

The setting lives in ` + "`settings.json`" + ` in the config directory; its name
is configured by preview.setting.`,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsGetCmd.Flags().BoolP("all", "a", false, "Print every setting in the document")
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current value of the theme setting",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		slot := newSlot()

		if lo.Must(cmd.Flags().GetBool("all")) {
			document, err := slot.All()
			handleErr(err)

			names := lo.Keys(document)
			sort.Strings(names)
			for _, name := range names {
				cmd.Printf("%s = %s\n", style.Fg(color.Purple)(name), style.Fg(color.Yellow)(document[name]))
			}
			return
		}

		value, err := slot.Get(cmd.Context())
		handleErr(err)

		if value.IsAbsent() {
			cmd.Println(style.Faint("unset"))
			return
		}
		cmd.Println(value.MustGet())
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <theme>",
	Short: "Set the theme setting without previewing",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slot := newSlot()
		handleErr(slot.Set(cmd.Context(), args[0]))

		cmd.Printf(
			"%s set %s to %s in %s\n",
			icon.Get(icon.Success),
			style.Fg(color.Purple)(slot.Name()),
			style.Fg(color.Yellow)(args[0]),
			style.Faint(where.Settings()),
		)
	},
}

func init() {
	settingsCmd.AddCommand(settingsUnsetCmd)
}

var settingsUnsetCmd = &cobra.Command{
	Use:     "unset",
	Short:   "Remove the theme setting so the editor falls back to its default",
	Aliases: []string{"reset"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		slot := newSlot()
		handleErr(slot.Unset(cmd.Context()))
		cmd.Printf("%s unset %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(slot.Name()))
	},
}

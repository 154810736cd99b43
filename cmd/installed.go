package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/icon"
	"github.com/themetester/themetester/preview"
	"github.com/themetester/themetester/progress"
	"github.com/themetester/themetester/registry"
	"github.com/themetester/themetester/style"
	"github.com/themetester/themetester/util"
	"github.com/themetester/themetester/version"
)

func init() {
	rootCmd.AddCommand(installedCmd)
}

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "Manage locally installed theme extensions",
}

func init() {
	installedCmd.AddCommand(installedListCmd)
	installedListCmd.Flags().BoolP("verify", "V", false, "Check that installed files still match the recorded checksum")
}

var installedListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List built-in and installed extensions",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		reg := newRegistry()
		records, err := reg.List()
		handleErr(err)

		verify := lo.Must(cmd.Flags().GetBool("verify"))
		var broken int

		for _, record := range records {
			line := fmt.Sprintf("%s %s", style.Bold(record.Coordinate.ID()), style.Faint(record.Coordinate.Version))
			if record.BuiltIn {
				line += " " + style.Fg(color.Muted)("built-in")
			}

			if verify {
				ok, err := reg.Verify(record)
				switch {
				case err != nil:
					broken++
					line = fmt.Sprintf("%s %s %s", icon.Get(icon.Fail), line, style.Fg(color.Failure)(err.Error()))
				case !ok:
					broken++
					line = fmt.Sprintf("%s %s %s", icon.Get(icon.Fail), line, style.Fg(color.Failure)("checksum mismatch"))
				default:
					line = icon.Get(icon.Success) + " " + line
				}
			}

			cmd.Println(line)
		}

		if verify && broken > 0 {
			handleErr(fmt.Errorf("%s failed verification", util.Quantify(broken, "extension", "extensions")))
		}
	},
}

func init() {
	installedCmd.AddCommand(installedRemoveCmd)
}

var installedRemoveCmd = &cobra.Command{
	Use:     "remove <publisher.name>",
	Short:   "Remove an installed extension",
	Aliases: []string{"rm", "uninstall"},
	Args:    cobra.ExactArgs(1),
	ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		records, _ := newRegistry().List()
		return lo.FilterMap(records, func(r registry.Record, _ int) (string, bool) {
			return r.Coordinate.ID(), !r.BuiltIn
		}), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		loc, err := preview.ParseLocation(args[0])
		handleErr(err)

		err = newRegistry().Uninstall(loc.Publisher, loc.Name)
		if errors.Is(err, registry.ErrNotInstalled) {
			handleErr(fmt.Errorf("%s is not installed", loc.ID()))
		}
		handleErr(err)

		cmd.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Accent)(loc.ID()))
	},
}

func init() {
	installedCmd.AddCommand(installedOutdatedCmd)
}

var installedOutdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "List installed extensions that have a newer release",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		records, err := newRegistry().List()
		handleErr(err)

		installed := lo.FilterMap(records, func(r registry.Record, _ int) (backing.Coordinate, bool) {
			return r.Coordinate, !r.BuiltIn
		})
		if len(installed) == 0 {
			cmd.Println(style.Faint("nothing installed"))
			return
		}

		client := newMarketplace()
		updates, err := progress.Run[[]version.Update](
			cmd.Context(),
			fmt.Sprintf("Checking %s...", util.Quantify(len(installed), "extension", "extensions")),
			func(ctx context.Context, _ func(string)) ([]version.Update, error) {
				return version.Outdated(ctx, installed, client.LatestVersion)
			},
		)
		for _, update := range updates {
			cmd.Printf(
				"%s %s %s %s\n",
				icon.Get(icon.Mark),
				style.Bold(update.Installed.ID()),
				style.Faint(update.Installed.Version+" ->"),
				style.Fg(color.Success)(update.Latest),
			)
		}
		handleErr(err)

		if len(updates) == 0 {
			cmd.Println(progress.Done("Everything is up to date"))
		}
	},
}

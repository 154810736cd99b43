package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/icon"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/preview"
	"github.com/themetester/themetester/style"
	"github.com/themetester/themetester/theme"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	inspectCmd.Flags().BoolP("yaml", "y", false, "Format the output as YAML")
	inspectCmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

type inspectedTheme struct {
	SettingsID string        `json:"settingsId" yaml:"settingsId"`
	UITheme    string        `json:"uiTheme" yaml:"uiTheme"`
	Summary    theme.Summary `json:"summary" yaml:"summary"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

type inspection struct {
	Extension string           `json:"extension" yaml:"extension"`
	Version   string           `json:"version" yaml:"version"`
	Root      string           `json:"root" yaml:"root"`
	Themes    []inspectedTheme `json:"themes" yaml:"themes"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <publisher.name[/theme]>",
	Short: "Summarize the color themes an extension contributes",
	Long: `Summarize the color themes an extension contributes.

Each theme document is read from the extension files and its include chain
is followed. Nothing is applied or installed.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeLocations,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		loc, err := parseLocationArg(args[0])
		handleErr(err)

		provider, pkg, err := openTree(ctx, loc.ID())
		handleErr(err)

		themes := pkg.Manifest.Contributes.Themes
		if loc.Theme != "" {
			settingsID, err := preview.Select(pkg.Manifest, loc)
			handleErr(err)
			themes = lo.Filter(themes, func(t marketplace.Theme, _ int) bool { return t.SettingsID() == settingsID })
		}

		result := inspection{
			Extension: pkg.Coordinate.ID(),
			Version:   pkg.Coordinate.Version,
			Root:      pkg.Root.String(),
		}
		for _, t := range themes {
			inspected := inspectedTheme{SettingsID: t.SettingsID(), UITheme: t.UITheme}
			summary, err := theme.Inspect(ctx, provider, t.Path)
			if err != nil {
				inspected.Error = err.Error()
			}
			inspected.Summary = summary
			result.Themes = append(result.Themes, inspected)
		}

		switch {
		case lo.Must(cmd.Flags().GetBool("json")):
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(result))
		case lo.Must(cmd.Flags().GetBool("yaml")):
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			handleErr(encoder.Encode(result))
			handleErr(encoder.Close())
		default:
			cmd.Println(style.Title(pkg.Manifest.Title()) + " " + style.Faint(pkg.Coordinate.String()))
			for _, t := range result.Themes {
				cmd.Println()
				cmd.Printf("%s %s %s\n", icon.Get(icon.Theme), style.Bold(t.SettingsID), style.UITheme(t.UITheme))
				if t.Error != "" {
					cmd.Printf("  %s %s\n", icon.Get(icon.Fail), style.Fg(color.Failure)(t.Error))
					continue
				}
				cmd.Printf("  %s %s\n", style.Faint("path"), t.Summary.Path)
				for _, include := range t.Summary.Includes {
					cmd.Printf("  %s %s\n", style.Faint("includes"), include)
				}
				cmd.Printf("  %s %s, %s\n",
					style.Faint("defines"),
					fmt.Sprintf("%d workbench colors", t.Summary.Colors),
					fmt.Sprintf("%d token rules", t.Summary.TokenColors),
				)
			}
		}
	},
}

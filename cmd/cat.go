package cmd

import (
	"context"

	"github.com/alecthomas/chroma/v2"
	"github.com/muesli/termenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/key"
	"github.com/themetester/themetester/preview"
)

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().StringP("theme", "t", "", "Color the output with a theme, given as publisher.name[/theme]")
	catCmd.Flags().BoolP("plain", "p", false, "Print without colors")
	_ = catCmd.RegisterFlagCompletionFunc("theme", completeLocations)
}

var catCmd = &cobra.Command{
	Use:   "cat <publisher.name|playground> <path>",
	Short: "Print a file of a theme extension or of the sample workspace",
	Long: `Print a file of a theme extension or of the sample workspace.

Markdown is rendered and source files are highlighted. With --theme the
colors come from that theme, so any file can be viewed the way it would look.`,
	Example: "  themetester cat playground hello.ts --theme azemoh.one-monokai\n  themetester cat vscode.theme-defaults package.json",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		provider, _, err := openTree(ctx, args[0])
		handleErr(err)

		var themed *chroma.Style
		if raw := lo.Must(cmd.Flags().GetString("theme")); raw != "" {
			themed, err = loadStyle(ctx, raw)
			handleErr(err)
		}

		options := renderOptions(themed)
		if lo.Must(cmd.Flags().GetBool("plain")) || !viper.GetBool(key.CliColored) {
			options.Profile = termenv.Ascii
		}

		out, err := renderFile(ctx, provider, args[1], options)
		handleErr(err)
		cmd.Print(out)
	},
}

// loadStyle resolves a theme location and converts the selected theme into a
// highlighter style without applying it.
func loadStyle(ctx context.Context, raw string) (*chroma.Style, error) {
	loc, err := parseLocationArg(raw)
	if err != nil {
		return nil, err
	}

	provider, pkg, err := openTree(ctx, loc.ID())
	if err != nil {
		return nil, err
	}

	settingsID, err := preview.Select(pkg.Manifest, loc)
	if err != nil {
		return nil, err
	}

	return themeStyle(ctx, provider, pkg.Manifest, settingsID)
}

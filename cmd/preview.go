package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/alecthomas/chroma/v2"
	"github.com/muesli/reflow/indent"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/icon"
	"github.com/themetester/themetester/key"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/open"
	"github.com/themetester/themetester/playground"
	"github.com/themetester/themetester/preview"
	"github.com/themetester/themetester/progress"
	"github.com/themetester/themetester/query"
	"github.com/themetester/themetester/style"
	"github.com/themetester/themetester/util"
)

// Answers to the question asked once a theme is applied.
const (
	answerInstall = "Install"
	answerBrowse  = "Browse More..."
	answerCancel  = "Cancel"
)

func addResolutionFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("keep", "k", false, "Keep the theme without asking")
	cmd.Flags().BoolP("undo", "u", false, "Undo the preview without asking")
	cmd.Flags().BoolP("sample", "s", true, "Show the sample files in the previewed theme")
	cmd.MarkFlagsMutuallyExclusive("keep", "undo")
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addResolutionFlags(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview [publisher.name[/theme]]",
	Short: "Apply a color theme for a trial, then keep or undo it",
	Long: `Apply a color theme for a trial, then keep or undo it.

The location names a theme extension and optionally one of its themes,
e.g. azemoh.one-monokai or "vscode.theme-defaults/Light+".
Without a theme name the first theme of the extension is used.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeLocations,
	Run: func(cmd *cobra.Command, args []string) {
		var raw string
		if len(args) == 1 {
			raw = args[0]
		} else {
			raw = askLocation()
		}

		loc, err := parseLocationArg(raw)
		handleErr(err)
		handleErr(runPreview(cmd, loc))
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	addResolutionFlags(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Preview the theme a link points to",
	Long: `Preview the theme a link points to.

Accepts links ending in /theme/publisher.name[/theme] and handler links
of the form .../open?<link>.`,
	Example: "  " + constant.Themetester + " open https://vscode.dev/editor/theme/azemoh.one-monokai",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		loc, err := preview.ParseURL(args[0])
		handleErr(err)
		handleErr(runPreview(cmd, loc))
	},
}

func askLocation() string {
	input := survey.Input{
		Message: "Which theme do you want to preview?",
		Default: query.Suggest("").OrElse(viper.GetString(key.PreviewDefaultLocation)),
		Help:    "publisher.name, optionally followed by /theme",
		Suggest: func(toComplete string) []string {
			return query.SuggestMany(toComplete)
		},
	}

	var response string
	handleErr(survey.AskOne(&input, &response, survey.WithValidator(survey.Required)))
	return response
}

func runPreview(cmd *cobra.Command, loc preview.Location) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	previewer := newPreviewer()
	session, err := progress.Run[*preview.Session](
		ctx,
		fmt.Sprintf("Previewing theme extension %s...", loc.ID()),
		func(ctx context.Context, status func(string)) (*preview.Session, error) {
			previewer.OnState = func(s preview.State) {
				status(fmt.Sprintf("%s %s...", util.Capitalize(s.String()), loc.ID()))
			}
			return previewer.Preview(ctx, loc)
		},
	)
	if err != nil {
		return err
	}

	if err := query.Remember(loc.String(), query.WeightPreviewed); err != nil {
		log.Warn(err)
	}

	cmd.Printf(
		"%s Welcome! Here's a preview of the %s theme in %s.\n",
		icon.Get(icon.Theme),
		style.Fg(color.Accent)(session.SettingsID()),
		previewer.Host.ProductName(),
	)

	if lo.Must(cmd.Flags().GetBool("sample")) {
		showSample(ctx, cmd, session)
	}

	switch {
	case lo.Must(cmd.Flags().GetBool("keep")):
		return keep(ctx, cmd, session, loc)
	case lo.Must(cmd.Flags().GetBool("undo")):
		return undo(ctx, cmd, session)
	}

	var answer string
	err = survey.AskOne(&survey.Select{
		Message: "Keep this theme?",
		Options: []string{answerInstall, answerBrowse, answerCancel},
	}, &answer)
	if err != nil {
		return errors.Join(err, undo(ctx, cmd, session))
	}

	switch answer {
	case answerInstall:
		return keep(ctx, cmd, session, loc)
	case answerBrowse:
		cmd.Printf("%s %s\n", icon.Get(icon.Link), open.ThemesURL)
		cmd.Println(style.Faint("The preview stays applied until you set another theme."))
		return open.Start(open.ThemesURL)
	default:
		return undo(ctx, cmd, session)
	}
}

func keep(ctx context.Context, cmd *cobra.Command, session *preview.Session, loc preview.Location) error {
	if err := session.Keep(ctx); err != nil {
		return err
	}

	if err := query.Remember(loc.String(), query.WeightKept); err != nil {
		log.Warn(err)
	}

	cmd.Printf("%s The theme is now installed and configured in the user settings.\n", icon.Get(icon.Success))
	return nil
}

func undo(ctx context.Context, cmd *cobra.Command, session *preview.Session) error {
	if err := session.Undo(ctx); err != nil {
		return err
	}

	cmd.Printf("%s Restored %s\n", icon.Get(icon.Success), style.Fg(color.Accent)(session.Prior().OrElse("the default theme")))
	return nil
}

const sampleIndent = 2

// showSample prints the sample readme and program in the colors of the
// previewed theme. Failures only cost the sample, never the preview.
func showSample(ctx context.Context, cmd *cobra.Command, session *preview.Session) {
	var themed *chroma.Style
	if pkg, ok := mounts.Get(constant.SchemePackage).Get(); ok {
		s, err := themeStyle(ctx, pkg, session.Package.Manifest, session.SettingsID())
		if err != nil {
			log.Warnf("theme style: %v", err)
		}
		themed = s
	}

	sample, ok := mounts.Get(constant.SchemePlayground).Get()
	if !ok {
		return
	}

	options := renderOptions(themed)
	options.Width -= sampleIndent
	for _, name := range []string{playground.Readme, "/hello.ts"} {
		out, err := renderFile(ctx, sample, name, options)
		if err != nil {
			log.Warnf("render %s: %v", name, err)
			continue
		}
		cmd.Println(style.Faint(sample.URI(name)))
		cmd.Println(indent.String(out, sampleIndent))
	}
}

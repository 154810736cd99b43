package cmd

import (
	"os"
	"path"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/icon"
	"github.com/themetester/themetester/style"
	"github.com/themetester/themetester/util"
	"github.com/themetester/themetester/vfs"
)

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().StringP("glob", "g", "", "Only list files matching the pattern, e.g. 'themes/*.json'")
	browseCmd.Flags().BoolP("uri", "U", false, "Print scheme-qualified paths instead of a tree")
}

var browseCmd = &cobra.Command{
	Use:   "browse <publisher.name|playground>",
	Short: "List the files of a theme extension without installing it",
	Long: `List the files of a theme extension without installing it.

Directories are fetched one at a time as the listing descends, so only the
directory indexes are downloaded. Use "playground" to list the sample files.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeLocations,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		provider, _, err := openTree(ctx, args[0])
		handleErr(err)

		var matcher glob.Glob
		if pattern := lo.Must(cmd.Flags().GetString("glob")); pattern != "" {
			matcher, err = glob.Compile(strings.TrimPrefix(pattern, "/"), '/')
			handleErr(err)
		}

		uris := lo.Must(cmd.Flags().GetBool("uri"))
		var files, dirs int

		err = afero.Walk(vfs.Afero(ctx, provider), "/", func(name string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if name == "/" {
				return nil
			}

			relative := strings.TrimPrefix(name, "/")
			if matcher != nil && (info.IsDir() || !matcher.Match(relative)) {
				return nil
			}

			if info.IsDir() {
				dirs++
			} else {
				files++
			}

			switch {
			case uris:
				cmd.Println(provider.URI(name))
			case info.IsDir():
				cmd.Println(treeLine(relative, icon.Get(icon.Directory), style.Fg(color.Link)(path.Base(name)+"/")))
			default:
				cmd.Println(treeLine(relative, icon.Get(icon.File), path.Base(name)))
			}
			return nil
		})
		handleErr(err)

		if !uris {
			cmd.Println(style.Faint(util.Quantify(dirs, "directory", "directories") + ", " + util.Quantify(files, "file", "files")))
		}
	},
}

func treeLine(relative, symbol, label string) string {
	depth := strings.Count(relative, "/")
	prefix := strings.Repeat("  ", depth)
	if symbol == "" {
		return prefix + label
	}
	return prefix + symbol + " " + label
}

package cmd

import (
	"encoding/json"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/preview"
	"github.com/themetester/themetester/style"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(manifestCmd)
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Work with extension manifests",
}

func init() {
	manifestCmd.AddCommand(manifestSchemaCmd)
}

var manifestSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the manifest fields that are read",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(marketplace.Schema()))
	},
}

func init() {
	manifestCmd.AddCommand(manifestShowCmd)
	manifestShowCmd.Flags().BoolP("raw", "r", false, "Print package.json as published")
	manifestShowCmd.Flags().BoolP("yaml", "y", false, "Format the output as YAML")
	manifestShowCmd.MarkFlagsMutuallyExclusive("raw", "yaml")
}

var manifestShowCmd = &cobra.Command{
	Use:               "show <publisher.name>",
	Short:             "Print the manifest of an extension and whether it can be previewed here",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeLocations,
	Run: func(cmd *cobra.Command, args []string) {
		loc, err := parseLocationArg(args[0])
		handleErr(err)

		pkg, err := newPreviewer().Resolve(cmd.Context(), loc)
		handleErr(err)

		switch {
		case lo.Must(cmd.Flags().GetBool("raw")):
			cmd.Println(string(pkg.Raw))
			return
		case lo.Must(cmd.Flags().GetBool("yaml")):
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			handleErr(encoder.Encode(pkg.Manifest))
			handleErr(encoder.Close())
			return
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(pkg.Manifest))

		if host := currentHost(); !host.Compatible(pkg.Manifest) {
			cmd.PrintErrln(style.Faint("can not be installed in " + host.ProductName()))
		}
		if ids := preview.SettingsIDs(pkg.Manifest); len(ids) == 0 {
			cmd.PrintErrln(style.Faint("contributes no color themes"))
		}
	},
}

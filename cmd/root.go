// Package cmd implements the command-line interface for themetester.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/icon"
	"github.com/themetester/themetester/key"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/style"
	"github.com/themetester/themetester/util"
	"github.com/themetester/themetester/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")
	addResolutionFlags(rootCmd)

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().Bool("web", false, "Behave like a browser-based editor")
	lo.Must0(viper.BindPFlag(key.HostWeb, rootCmd.PersistentFlags().Lookup("web")))

	rootCmd.PersistentFlags().String("remote", "", "Name of the remote the editor is connected to")
	lo.Must0(viper.BindPFlag(key.HostRemote, rootCmd.PersistentFlags().Lookup("remote")))

	rootCmd.SetOut(os.Stdout)

	// Leftovers of earlier runs.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.Themetester,
	Short: "Try editor color themes before installing them",
	Long: style.New().Bold(true).Foreground(color.Accent).Render(constant.Themetester) + "\n" +
		style.New().Italic(true).Foreground(color.Muted).Render("    - Try editor color themes before installing them") + `

Run without a command to pick a theme and preview it.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeLocations,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		previewCmd.Run(cmd, args)
	},
}

// Execute adds all child commands to the root command and runs it. An
// interrupt cancels the running command's context.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

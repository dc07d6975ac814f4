// Package cmd implements the streamgrab command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamgrab/streamgrab/color"
	"github.com/streamgrab/streamgrab/constant"
	"github.com/streamgrab/streamgrab/fetcher"
	"github.com/streamgrab/streamgrab/icon"
	"github.com/streamgrab/streamgrab/key"
	"github.com/streamgrab/streamgrab/log"
	"github.com/streamgrab/streamgrab/source"
	"github.com/streamgrab/streamgrab/style"
	"github.com/streamgrab/streamgrab/util"
	"github.com/streamgrab/streamgrab/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Record the download in the local history")
	lo.Must0(viper.BindPFlag(key.HistorySave, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.Flags().StringP("output", "o", "", "Output filename, relative to the downloads directory; the extension is chosen by the engine")
	rootCmd.Flags().String("id", "", "Watch page ID, expanded against the configured site base URL")

	rootCmd.Flags().StringP("dir", "d", "", "Directory to download into")
	lo.Must0(viper.BindPFlag(key.DownloadsDir, rootCmd.Flags().Lookup("dir")))

	rootCmd.Flags().StringP("engine", "e", "", "Stream download engine")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("engine", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return fetcher.Engines(), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.FetchEngine, rootCmd.Flags().Lookup("engine")))

	rootCmd.Flags().Bool("visible", false, "Show the browser window while capturing")
	rootCmd.Flags().BoolP("json", "j", false, "Print the outcome as JSON")
	rootCmd.Flags().Bool("open", false, "Open the downloaded file with the default application")
	rootCmd.Flags().BoolP("yes", "y", false, "Overwrite existing files without asking")

	// Stale artifacts of interrupted runs.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd downloads the stream behind a watch page.
var rootCmd = &cobra.Command{
	Use:   constant.App + " [url]",
	Short: "Download the video stream behind a watch page, falling back across its mirrors",
	Long: constant.Logo + "\n" +
		style.New().Italic(true).Foreground(color.Accent).Render("    - Capture stream manifests with a headless browser and download the first one that works"),
	Example: strings.Join([]string{
		"  " + constant.App + " https://example.com/watch/1590407",
		"  " + constant.App + " --id 1590407 -o episode-01",
		"  " + constant.App + " https://example.com/watch/1590407 --json",
	}, "\n"),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		target, err := resolveTarget(lo.Must(cmd.Flags().GetString("id")), args)
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("visible")) {
			viper.Set(key.BrowserHeadless, false)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		options := runOptions{
			URL:    target,
			Output: lo.Must(cmd.Flags().GetString("output")),
			JSON:   lo.Must(cmd.Flags().GetBool("json")),
			Open:   lo.Must(cmd.Flags().GetBool("open")),
			Yes:    lo.Must(cmd.Flags().GetBool("yes")),
		}

		if !run(ctx, options) {
			stop()
			os.Exit(1)
		}
	},
}

var errNoTarget = errors.New("a watch page URL or --id is required")

// resolveTarget picks the page to download from --id, the argument or a prompt.
func resolveTarget(id string, args []string) (string, error) {
	id = strings.TrimSpace(id)

	switch {
	case id != "" && len(args) > 0:
		return "", errors.New("pass either a URL or --id, not both")
	case id != "":
		return source.WatchURL(
			viper.GetString(key.SiteBaseURL),
			viper.GetString(key.SiteWatchPath),
			id,
		), nil
	case len(args) > 0:
		return args[0], nil
	case util.IsTerminal():
		var answer string
		err := survey.AskOne(&survey.Input{Message: "Watch page URL"}, &answer, survey.WithValidator(survey.Required))
		return answer, err
	default:
		return "", errNoTarget
	}
}

// Execute runs the root command.
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

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
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

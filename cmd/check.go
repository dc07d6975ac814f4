package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamgrab/streamgrab/browser"
	"github.com/streamgrab/streamgrab/color"
	"github.com/streamgrab/streamgrab/constant"
	"github.com/streamgrab/streamgrab/icon"
	"github.com/streamgrab/streamgrab/key"
	"github.com/streamgrab/streamgrab/style"
	"github.com/streamgrab/streamgrab/version"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkCmd reports the external programs a download may rely on.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check for the browser and the optional yt-dlp engine",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if bin, ok := browser.Installed(viper.GetString(key.BrowserBin)); ok {
			v, err := version.Of(ctx, bin)
			printFound("browser", bin, v, err)
		} else {
			fmt.Printf(
				"%s %s %s\n",
				style.Fg(color.Warning)(icon.Get(icon.Skip)),
				style.Bold("browser"),
				style.Faint("not installed, Chromium is downloaded on first capture"),
			)
		}

		ytdlp := viper.GetString(key.FetchYtdlpPath)
		bin, err := exec.LookPath(ytdlp)
		if err != nil {
			printMissingDependency(ytdlp)
			return
		}

		v, err := version.Of(ctx, bin)
		printFound("yt-dlp", bin, v, err)
		if err == nil && version.Outdated(v, version.MinYtdlp) {
			fmt.Printf(
				"  %s %s\n",
				style.Fg(color.Warning)(icon.Get(icon.Mark)),
				style.Faint(fmt.Sprintf("yt-dlp %s is older than %s, run %s", v, version.MinYtdlp, style.Bold(ytdlp+" -U"))),
			)
		}
	},
}

func printFound(name, path, v string, err error) {
	if err != nil {
		v = "unknown version"
	}

	fmt.Printf(
		"%s %s %s %s\n",
		style.Fg(color.Success)(icon.Get(icon.Success)),
		style.Bold(name),
		style.Fg(color.Link)(path),
		style.Faint(v),
	)
}

func printMissingDependency(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install yt-dlp"
	case constant.Linux:
		installCmd = "pipx install yt-dlp"
	case constant.Windows:
		installCmd = "scoop install yt-dlp"
	case constant.Android:
		installCmd = "pip install yt-dlp"
	}

	title := style.New().Bold(true).Foreground(color.Warning).Render(fmt.Sprintf("%s Optional dependency missing", icon.Get(icon.Skip)))
	body := fmt.Sprintf("'%s' was not found in your PATH.\nDownloads fall back to the native engine.", dep)

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\nTo install it, try running:\n  %s", style.New().Foreground(color.Accent).Bold(true).Render(installCmd))
	}

	fmt.Println(style.Box(color.Warning).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			body,
			suggestion,
		),
	))
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/streamgrab/streamgrab/color"
	"github.com/streamgrab/streamgrab/history"
	"github.com/streamgrab/streamgrab/icon"
	"github.com/streamgrab/streamgrab/style"
	"github.com/streamgrab/streamgrab/util"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolP("json", "j", false, "Print records as JSON")
	historyCmd.Flags().IntP("limit", "n", 0, "Show at most this many records")
	historyCmd.Flags().BoolP("failed", "f", false, "Only show failed downloads")

	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "List past downloads, newest first",
	Long:  "List past downloads, newest first.\nA query fuzzy-matches titles and page URLs.",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		records, err := history.Filter(strings.Join(args, " "))
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("failed")) {
			records = lo.Filter(records, func(r *history.Record, _ int) bool {
				return r.Status == history.Failed
			})
		}

		if limit := lo.Must(cmd.Flags().GetInt("limit")); limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(records))
			return
		}

		if len(records) == 0 {
			cmd.Println(style.Faint("No downloads recorded"))
			return
		}

		width := 80
		if w, _, err := util.TerminalSize(); err == nil && w > 0 {
			width = w
		}

		for _, r := range records {
			cmd.Println(formatRecord(r, width))
		}
	},
}

func formatRecord(r *history.Record, width int) string {
	mark := style.Fg(color.Success)(icon.Get(icon.Success))
	detail := r.Output
	if r.Status == history.Failed {
		mark = style.Fg(color.Failure)(icon.Get(icon.Fail))
		detail = r.Error
	}

	title := lo.Ternary(r.Title != "", r.Title, r.URL)

	return fmt.Sprintf(
		"%s %s %s\n  %s",
		mark,
		style.Faint(r.CreatedAt.Format("2006-01-02 15:04")),
		style.Bold(util.Ellipsize(title, width-20)),
		style.Faint(util.Ellipsize(detail, width-2)),
	)
}

package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/streamgrab/streamgrab/history"
	"github.com/streamgrab/streamgrab/icon"
	"github.com/streamgrab/streamgrab/util"
	"github.com/streamgrab/streamgrab/where"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	clear    func() error
}

func deleteDir(location func() string) func() error {
	return func() error { return util.Delete(location()) }
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), deleteDir(where.Cache)},
	{"download history", "history", mo.Some("s"), history.Clear},
	{"downloaded browser", "browser", mo.Some("b"), deleteDir(where.Browser)},
	{"temporary files", "temp", mo.Some("t"), deleteDir(where.Temp)},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached data, history and downloaded browsers",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anyCleared = true
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := target.clear()
			erase()
			handleErr(err)
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}

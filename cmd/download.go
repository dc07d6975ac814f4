package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/streamgrab/streamgrab/browser"
	"github.com/streamgrab/streamgrab/capture"
	"github.com/streamgrab/streamgrab/color"
	"github.com/streamgrab/streamgrab/constant"
	"github.com/streamgrab/streamgrab/download"
	"github.com/streamgrab/streamgrab/fetcher"
	"github.com/streamgrab/streamgrab/history"
	"github.com/streamgrab/streamgrab/icon"
	"github.com/streamgrab/streamgrab/inline"
	"github.com/streamgrab/streamgrab/key"
	"github.com/streamgrab/streamgrab/log"
	"github.com/streamgrab/streamgrab/network"
	"github.com/streamgrab/streamgrab/open"
	"github.com/streamgrab/streamgrab/style"
	"github.com/streamgrab/streamgrab/util"
	"github.com/streamgrab/streamgrab/where"
)

type runOptions struct {
	URL    string
	Output string
	JSON   bool
	Open   bool
	Yes    bool
}

var errOverwriteDeclined = errors.New("download cancelled, existing file kept")

// run downloads options.URL and reports the outcome. It returns false on failure.
func run(ctx context.Context, options runOptions) bool {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printer := newPrinter(options.JSON)

	capturer, release, err := newCapturer(ctx)
	if err != nil {
		return report(options, nil, err)
	}
	defer release()

	f, err := fetcher.New(fetcher.Options{
		Engine:    fetcher.Engine(viper.GetString(key.FetchEngine)),
		YtdlpPath: viper.GetString(key.FetchYtdlpPath),
		Format:    viper.GetString(key.FetchFormat),
		Retries:   viper.GetInt(key.FetchRetries),
		Client:    network.New(network.Options{Fingerprint: viper.GetBool(key.FetchTLSFingerprint)}),
		UserAgent: constant.UserAgent,
		Progress:  printer.Progress,
	})
	if err != nil {
		return report(options, nil, err)
	}

	guard := &overwriteGuard{
		Fetcher: f,
		ask:     !options.Yes && !options.JSON && util.IsTerminal(),
		cancel:  cancel,
	}

	d := download.New(capturer, guard, download.Options{
		OutputDir: viper.GetString(key.DownloadsDir),
		Observer:  printer,
	})

	filename := lo.Ternary(options.Output != "", mo.Some(options.Output), mo.None[string]())
	result, err := d.Download(ctx, options.URL, filename)
	if guard.declined {
		err = errOverwriteDeclined
	}

	return report(options, result, err)
}

// newCapturer builds the capture session, launching one shared browser when reuse is on.
func newCapturer(ctx context.Context) (download.Capturer, func(), error) {
	launch := browser.NewLauncher(browser.Options{
		Headless:   viper.GetBool(key.BrowserHeadless),
		Bin:        viper.GetString(key.BrowserBin),
		Stealth:    viper.GetBool(key.BrowserStealth),
		NoSandbox:  viper.GetBool(key.BrowserNoSandbox),
		BrowserDir: where.Browser(),
	})

	if !viper.GetBool(key.BrowserReuse) {
		return capture.New(launch, capture.FromConfig()), func() {}, nil
	}

	engine, err := launch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	release := func() {
		if err := engine.Close(); err != nil {
			log.Warn("closing browser: ", err)
		}
	}

	return capture.Shared(engine, capture.FromConfig()), release, nil
}

// overwriteGuard asks once before an attempt would replace an existing file.
type overwriteGuard struct {
	fetcher.Fetcher
	ask      bool
	cancel   context.CancelFunc
	asked    bool
	declined bool
}

func (g *overwriteGuard) Fetch(ctx context.Context, req fetcher.Request) (string, error) {
	if g.ask && !g.asked {
		if existing, err := fetcher.Existing(req.Output); err == nil && len(existing) > 0 {
			g.asked = true

			var overwrite bool
			prompt := &survey.Confirm{Message: fmt.Sprintf("%s already exists, overwrite?", existing[0])}
			if err := survey.AskOne(prompt, &overwrite); err != nil || !overwrite {
				g.declined = true
				g.cancel()
				return "", context.Canceled
			}
		}
	}

	return g.Fetcher.Fetch(ctx, req)
}

// report records and prints the outcome. It returns whether the download succeeded.
func report(options runOptions, result *download.Result, err error) bool {
	if viper.GetBool(key.HistorySave) {
		saveHistory(options.URL, result, err)
	}

	if options.JSON {
		handleErr(inline.Write(os.Stdout, inline.New(options.URL, result, err)))
		return err == nil
	}

	if err != nil {
		printFailure(err)
		return false
	}

	fmt.Printf(
		"%s saved to %s %s\n",
		style.Fg(color.Success)(icon.Get(icon.Success)),
		style.Fg(color.Link)(result.Path),
		style.Faint(fmt.Sprintf("(mirror %d, %s, %s)", result.Mirror, result.Candidate.Kind, result.Engine)),
	)

	if options.Open {
		if err := open.Start(result.Path); err != nil {
			log.Warn(err)
			fmt.Printf("%s %s\n", style.Fg(color.Warning)(icon.Get(icon.Fail)), err)
		}
	}

	return true
}

func saveHistory(url string, result *download.Result, err error) {
	var record *history.Record
	switch {
	case err == nil:
		record = history.Succeeded(result)
	case errors.Is(err, download.ErrInvalidInput), errors.Is(err, context.Canceled), errors.Is(err, errOverwriteDeclined):
		return
	default:
		record = history.Failure(url, err)
	}

	if err := history.Save(record); err != nil {
		log.Warn("saving history: ", err)
	}
}

func printFailure(err error) {
	log.Error(err)

	var (
		fail      = style.Fg(color.Failure)(icon.Get(icon.Fail))
		exhausted *download.ExhaustedError
	)

	switch {
	case errors.Is(err, download.ErrInvalidInput):
		_, _ = fmt.Fprintf(os.Stderr, "%s invalid input: %s\n", fail, err)
	case errors.Is(err, errOverwriteDeclined):
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", style.Fg(color.Warning)(icon.Get(icon.Skip)), err)
	case errors.Is(err, context.Canceled):
		_, _ = fmt.Fprintf(os.Stderr, "%s interrupted\n", fail)
	case errors.As(err, &exhausted):
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", fail, err)
		for _, attempt := range exhausted.Attempts {
			_, _ = fmt.Fprintf(os.Stderr, "  %s\n", style.Faint(attempt.String()))
		}
	default:
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", fail, err)
	}
}

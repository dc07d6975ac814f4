// Package download turns one page URL into one file on disk by exploring
// the page and its mirrors until some manifest downloads successfully.
package download

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/streamgrab/streamgrab/capture"
	"github.com/streamgrab/streamgrab/fetcher"
	"github.com/streamgrab/streamgrab/log"
	"github.com/streamgrab/streamgrab/source"
)

// Capturer visits a page and reports what it revealed.
type Capturer interface {
	Capture(ctx context.Context, rawURL string) (*capture.Result, error)
}

// Options configure a Downloader.
type Options struct {
	// OutputDir receives files whose name is derived from metadata,
	// and relative filename overrides.
	OutputDir string
	Observer  Observer
}

// Result describes a successful download.
type Result struct {
	URL       string                     `json:"url"`
	Path      string                     `json:"path"`
	Engine    string                     `json:"engine"`
	Mirror    int                        `json:"mirror"`
	MirrorURL string                     `json:"mirror_url"`
	Candidate source.Candidate           `json:"candidate"`
	Metadata  mo.Option[source.Metadata] `json:"metadata"`
	// Failures holds the attempts that failed before the successful one.
	Failures []Attempt `json:"failures"`
}

// Downloader runs the mirror exploration. It keeps no state between calls.
type Downloader struct {
	capturer  Capturer
	fetcher   fetcher.Fetcher
	outputDir string
	observer  Observer
}

func New(capturer Capturer, f fetcher.Fetcher, options Options) *Downloader {
	return &Downloader{
		capturer:  capturer,
		fetcher:   f,
		outputDir: lo.Ternary(options.OutputDir != "", options.OutputDir, "."),
		observer:  lo.Ternary[Observer](options.Observer != nil, options.Observer, NopObserver{}),
	}
}

// Download explores rawURL and its mirrors in order and stops at the first
// candidate that downloads. filename overrides the metadata-derived name.
func (d *Downloader) Download(ctx context.Context, rawURL string, filename mo.Option[string]) (*Result, error) {
	pageURL, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	canonical := pageURL.String()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var attempts []Attempt
	mirrors := source.MirrorLinks{canonical}

	primary, primaryErr := d.capturer.Capture(ctx, canonical)
	if primaryErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithFields(log.Fields{"mirror": 0, "url": canonical}).Warn("capture failed: ", primaryErr)
		attempts = append(attempts, Attempt{Mirror: 0, MirrorURL: canonical, Stage: StageCapture, Err: primaryErr})
	} else {
		for _, link := range primary.Mirrors {
			mirrors.Add(link)
		}
	}

	var primaryMetadata mo.Option[source.Metadata]
	if primary != nil {
		primaryMetadata = primary.Metadata
	}

	for i, mirror := range mirrors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d.observer.MirrorStarted(i, len(mirrors), mirror)

		result := primary
		if i == 0 && primary == nil {
			d.observer.MirrorSkipped(i, mirror, primaryErr)
			continue
		}

		if i > 0 {
			var captureErr error
			if result, captureErr = d.capturer.Capture(ctx, mirror); captureErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.WithFields(log.Fields{"mirror": i, "url": mirror}).Warn("capture failed: ", captureErr)
				attempts = append(attempts, Attempt{Mirror: i, MirrorURL: mirror, Stage: StageCapture, Err: captureErr})
				d.observer.MirrorSkipped(i, mirror, captureErr)
				continue
			}
		}

		if result.Manifests.Empty() {
			log.WithFields(log.Fields{"mirror": i, "url": mirror}).Info("no manifests found")
			d.observer.MirrorSkipped(i, mirror, nil)
			continue
		}

		candidates := result.Manifests.Candidates(i)
		d.observer.CandidatesRanked(i, candidates)

		metadata := lo.Ternary(result.Metadata.IsPresent(), result.Metadata, primaryMetadata)
		output := d.output(filename, metadata)

		for n, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			d.observer.AttemptStarted(n+1, len(candidates), candidate, output)

			path, fetchErr := d.fetcher.Fetch(ctx, fetcher.Request{
				ManifestURL: candidate.URL,
				Output:      output,
				Referer:     mirror,
			})
			if fetchErr == nil {
				d.observer.AttemptSucceeded(candidate, path)
				log.WithFields(log.Fields{"mirror": i, "kind": candidate.Kind, "path": path}).Info("download finished")

				return &Result{
					URL:       canonical,
					Path:      path,
					Engine:    d.fetcher.Name(),
					Mirror:    i,
					MirrorURL: mirror,
					Candidate: candidate,
					Metadata:  metadata,
					Failures:  attempts,
				}, nil
			}

			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			log.WithFields(log.Fields{"mirror": i, "kind": candidate.Kind, "url": candidate.URL}).Warn("attempt failed: ", fetchErr)
			attempts = append(attempts, Attempt{
				Mirror:    i,
				MirrorURL: mirror,
				Stage:     StageFetch,
				Candidate: mo.Some(candidate),
				Err:       fetchErr,
			})
			d.observer.AttemptFailed(candidate, fetchErr)
		}
	}

	return nil, &ExhaustedError{URL: canonical, Mirrors: len(mirrors), Attempts: attempts}
}

// mediaExts are stripped from filename overrides since the engine picks the extension.
var mediaExts = []string{".mp4", ".ts", ".mkv"}

func (d *Downloader) output(override mo.Option[string], metadata mo.Option[source.Metadata]) string {
	name := strings.TrimSpace(override.OrEmpty())
	if name == "" {
		return filepath.Join(d.outputDir, source.Filename(metadata))
	}

	if ext := strings.ToLower(filepath.Ext(name)); lo.Contains(mediaExts, ext) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.outputDir, name)
}

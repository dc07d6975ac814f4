package download

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamgrab/streamgrab/capture"
	"github.com/streamgrab/streamgrab/fetcher"
	"github.com/streamgrab/streamgrab/source"
)

const (
	primaryURL = "https://site.example/watch/1"
	mirror1    = "https://one.example/watch/1"
	mirror2    = "https://two.example/watch/1"
)

type capturedPage struct {
	result *capture.Result
	err    error
}

type fakeCapturer struct {
	pages  map[string]capturedPage
	calls  []string
	cancel context.CancelFunc
}

func (c *fakeCapturer) Capture(_ context.Context, rawURL string) (*capture.Result, error) {
	c.calls = append(c.calls, rawURL)
	if c.cancel != nil && len(c.calls) == 2 {
		c.cancel()
	}

	page, ok := c.pages[rawURL]
	if !ok {
		return &capture.Result{URL: rawURL}, nil
	}
	return page.result, page.err
}

type fakeFetcher struct {
	succeed  map[string]bool
	requests []fetcher.Request
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(_ context.Context, req fetcher.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.succeed[req.ManifestURL] {
		return req.Output + ".ts", nil
	}
	return "", errors.New("403 forbidden")
}

func (f *fakeFetcher) manifests() []string {
	return lo.Map(f.requests, func(r fetcher.Request, _ int) string { return r.ManifestURL })
}

func manifests(index string, masters ...string) source.ManifestSet {
	var set source.ManifestSet
	if index != "" {
		set.SetIndex(index)
	}
	for _, m := range masters {
		set.AddMaster(m)
	}
	return set
}

func show(title string) mo.Option[source.Metadata] {
	return mo.Some(source.Metadata{Title: title})
}

type recorder struct {
	NopObserver
	events []string
}

func (r *recorder) MirrorStarted(index, total int, _ string) {
	r.events = append(r.events, "mirror")
}

func (r *recorder) MirrorSkipped(int, string, error) {
	r.events = append(r.events, "skipped")
}

func (r *recorder) AttemptFailed(source.Candidate, error) {
	r.events = append(r.events, "failed")
}

func (r *recorder) AttemptSucceeded(source.Candidate, string) {
	r.events = append(r.events, "succeeded")
}

func TestDownloadMirrorFallback(t *testing.T) {
	Convey("Given mirrors where the first is empty, the second fails and the third works", t, func() {
		capturer := &fakeCapturer{pages: map[string]capturedPage{
			primaryURL: {result: &capture.Result{
				URL:      primaryURL,
				Mirrors:  source.MirrorLinks{mirror1, mirror2, mirror1},
				Metadata: show("Show"),
			}},
			mirror1: {result: &capture.Result{URL: mirror1, Manifests: manifests("https://one.example/index.m3u8")}},
			mirror2: {result: &capture.Result{URL: mirror2, Manifests: manifests("", "https://two.example/a.m3u8", "https://two.example/b.m3u8")}},
		}}
		fetch := &fakeFetcher{succeed: map[string]bool{"https://two.example/a.m3u8": true}}
		observer := &recorder{}

		d := New(capturer, fetch, Options{OutputDir: "/dl", Observer: observer})

		Convey("When the page is downloaded", func() {
			result, err := d.Download(context.Background(), primaryURL, mo.None[string]())
			So(err, ShouldBeNil)

			Convey("Then mirrors are visited once each in order", func() {
				So(capturer.calls, ShouldResemble, []string{primaryURL, mirror1, mirror2})
			})

			Convey("And the failing mirror is attempted before the working one", func() {
				So(fetch.manifests(), ShouldResemble, []string{
					"https://one.example/index.m3u8",
					"https://two.example/a.m3u8",
				})
			})

			Convey("And the result points at the winning candidate", func() {
				So(result.Mirror, ShouldEqual, 2)
				So(result.Candidate, ShouldResemble, source.Candidate{Mirror: 2, Kind: source.Master, URL: "https://two.example/a.m3u8"})
				So(result.Path, ShouldEqual, filepath.Join("/dl", "Show")+".ts")
				So(result.Engine, ShouldEqual, "fake")
				So(result.Failures, ShouldHaveLength, 1)
				So(result.Failures[0].Stage, ShouldEqual, StageFetch)
			})

			Convey("And the mirror page is sent as referer", func() {
				So(fetch.requests[1].Referer, ShouldEqual, mirror2)
			})

			Convey("And the observer saw the whole exploration", func() {
				So(observer.events, ShouldResemble, []string{
					"mirror", "skipped",
					"mirror", "failed",
					"mirror", "succeeded",
				})
			})
		})
	})

	Convey("Given a primary page with its own manifests", t, func() {
		capturer := &fakeCapturer{pages: map[string]capturedPage{
			primaryURL: {result: &capture.Result{
				URL:       primaryURL,
				Manifests: manifests("https://cdn.example/index.m3u8", "https://cdn.example/master.m3u8"),
			}},
		}}
		fetch := &fakeFetcher{succeed: map[string]bool{"https://cdn.example/master.m3u8": true}}
		d := New(capturer, fetch, Options{OutputDir: "/dl"})

		Convey("The index is tried before the master and no other page is captured", func() {
			result, err := d.Download(context.Background(), "  "+primaryURL+" ", mo.None[string]())
			So(err, ShouldBeNil)
			So(fetch.manifests(), ShouldResemble, []string{"https://cdn.example/index.m3u8", "https://cdn.example/master.m3u8"})
			So(capturer.calls, ShouldResemble, []string{primaryURL})
			So(result.Path, ShouldEqual, filepath.Join("/dl", source.Placeholder)+".ts")
		})
	})
}

func TestDownloadExhausted(t *testing.T) {
	Convey("Given mirrors whose candidates all fail", t, func() {
		capturer := &fakeCapturer{pages: map[string]capturedPage{
			primaryURL: {result: &capture.Result{
				URL:       primaryURL,
				Manifests: manifests("https://cdn.example/index.m3u8"),
			}},
		}}
		fetch := &fakeFetcher{}
		d := New(capturer, fetch, Options{})

		Convey("Every candidate is tried and the error lists each attempt", func() {
			_, err := d.Download(context.Background(), primaryURL, mo.None[string]())
			So(errors.Is(err, ErrAllMirrorsExhausted), ShouldBeTrue)
			So(errors.Is(err, ErrInvalidInput), ShouldBeFalse)

			var exhausted *ExhaustedError
			So(errors.As(err, &exhausted), ShouldBeTrue)
			So(exhausted.Mirrors, ShouldEqual, 1)
			So(exhausted.Attempts, ShouldHaveLength, 1)
			So(exhausted.Last().MustGet().Stage, ShouldEqual, StageFetch)
		})
	})

	Convey("Given two mirrors offering four candidates that all fail", t, func() {
		capturer := &fakeCapturer{pages: map[string]capturedPage{
			primaryURL: {result: &capture.Result{
				URL:     primaryURL,
				Mirrors: source.MirrorLinks{mirror1, mirror2},
			}},
			mirror1: {result: &capture.Result{URL: mirror1, Manifests: manifests(
				"https://one.example/index.m3u8",
				"https://one.example/a.m3u8",
				"https://one.example/b.m3u8",
			)}},
			mirror2: {result: &capture.Result{URL: mirror2, Manifests: manifests("", "https://two.example/a.m3u8")}},
		}}
		fetch := &fakeFetcher{}
		d := New(capturer, fetch, Options{})

		Convey("Every mirror and candidate is tried in order before giving up", func() {
			_, err := d.Download(context.Background(), primaryURL, mo.None[string]())
			So(errors.Is(err, ErrAllMirrorsExhausted), ShouldBeTrue)

			So(capturer.calls, ShouldResemble, []string{primaryURL, mirror1, mirror2})
			So(fetch.manifests(), ShouldResemble, []string{
				"https://one.example/index.m3u8",
				"https://one.example/a.m3u8",
				"https://one.example/b.m3u8",
				"https://two.example/a.m3u8",
			})

			var exhausted *ExhaustedError
			So(errors.As(err, &exhausted), ShouldBeTrue)
			So(exhausted.Mirrors, ShouldEqual, 3)
			So(exhausted.Attempts, ShouldHaveLength, 4)
			So(lo.Map(exhausted.Attempts, func(a Attempt, _ int) int { return a.Mirror }), ShouldResemble, []int{1, 1, 1, 2})
			So(exhausted.Last().MustGet().Candidate.MustGet().URL, ShouldEqual, "https://two.example/a.m3u8")
		})
	})

	Convey("Given a primary capture that fails", t, func() {
		capturer := &fakeCapturer{pages: map[string]capturedPage{
			primaryURL: {err: errors.New("browser crashed")},
		}}
		fetch := &fakeFetcher{}
		d := New(capturer, fetch, Options{})

		Convey("The failure is recorded and exploration ends exhausted", func() {
			_, err := d.Download(context.Background(), primaryURL, mo.None[string]())
			So(errors.Is(err, ErrAllMirrorsExhausted), ShouldBeTrue)

			var exhausted *ExhaustedError
			So(errors.As(err, &exhausted), ShouldBeTrue)
			last := exhausted.Last().MustGet()
			So(last.Stage, ShouldEqual, StageCapture)
			So(last.Candidate.IsAbsent(), ShouldBeTrue)
			So(fetch.requests, ShouldBeEmpty)
		})
	})

	Convey("Given pages revealing nothing at all", t, func() {
		capturer := &fakeCapturer{pages: map[string]capturedPage{}}
		d := New(capturer, &fakeFetcher{}, Options{})

		Convey("The error says no manifests were found", func() {
			_, err := d.Download(context.Background(), primaryURL, mo.None[string]())
			So(errors.Is(err, ErrAllMirrorsExhausted), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "no manifests")
		})
	})
}

func TestDownloadInvalidInput(t *testing.T) {
	Convey("Given an input without a scheme", t, func() {
		capturer := &fakeCapturer{}
		d := New(capturer, &fakeFetcher{}, Options{})

		Convey("It fails before any capture", func() {
			_, err := d.Download(context.Background(), "site.example/watch/1", mo.None[string]())
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
			So(capturer.calls, ShouldBeEmpty)
		})
	})
}

func TestDownloadFilename(t *testing.T) {
	Convey("Given a mirror without metadata behind a primary page with metadata", t, func() {
		capturer := &fakeCapturer{pages: map[string]capturedPage{
			primaryURL: {result: &capture.Result{
				URL:      primaryURL,
				Mirrors:  source.MirrorLinks{mirror1},
				Metadata: show("Primary"),
			}},
			mirror1: {result: &capture.Result{URL: mirror1, Manifests: manifests("https://one.example/index.m3u8")}},
		}}
		fetch := &fakeFetcher{succeed: map[string]bool{"https://one.example/index.m3u8": true}}
		d := New(capturer, fetch, Options{OutputDir: "/dl"})

		Convey("The primary metadata names the file", func() {
			result, err := d.Download(context.Background(), primaryURL, mo.None[string]())
			So(err, ShouldBeNil)
			So(fetch.requests[0].Output, ShouldEqual, filepath.Join("/dl", "Primary"))
			So(result.Metadata.MustGet().Title, ShouldEqual, "Primary")
		})

		Convey("An override wins and loses its media extension", func() {
			_, err := d.Download(context.Background(), primaryURL, mo.Some("custom/Name.mp4"))
			So(err, ShouldBeNil)
			So(fetch.requests[0].Output, ShouldEqual, filepath.Join("/dl", "custom", "Name"))
		})

		Convey("An absolute override ignores the output directory", func() {
			_, err := d.Download(context.Background(), primaryURL, mo.Some("/elsewhere/Name"))
			So(err, ShouldBeNil)
			So(fetch.requests[0].Output, ShouldEqual, "/elsewhere/Name")
		})
	})
}

func TestDownloadCancel(t *testing.T) {
	Convey("Given a context cancelled during the second capture", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		capturer := &fakeCapturer{
			cancel: cancel,
			pages: map[string]capturedPage{
				primaryURL: {result: &capture.Result{URL: primaryURL, Mirrors: source.MirrorLinks{mirror1, mirror2}}},
				mirror1:    {err: errors.New("navigation aborted")},
			},
		}
		d := New(capturer, &fakeFetcher{}, Options{})

		Convey("Exploration stops with the context error", func() {
			_, err := d.Download(ctx, primaryURL, mo.None[string]())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(capturer.calls, ShouldResemble, []string{primaryURL, mirror1})
		})
	})
}

func TestParseURL(t *testing.T) {
	Convey("ParseURL", t, func() {
		Convey("accepts absolute URLs", func() {
			for _, raw := range []string{"https://site.example/watch/1", "http://localhost:8080/x?y=1", " https://a.b "} {
				u, err := ParseURL(raw)
				So(err, ShouldBeNil)
				So(u.Host, ShouldNotBeEmpty)
			}
		})

		Convey("rejects inputs missing a scheme or host", func() {
			for _, raw := range []string{"", "   ", "site.example/watch/1", "/watch/1", "1590407", "https://"} {
				_, err := ParseURL(raw)
				So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)

				var inputErr *InputError
				So(errors.As(err, &inputErr), ShouldBeTrue)
			}
		})
	})
}

// Package fetcher downloads a stream given its manifest URL.
//
// Two engines exist: a native HLS downloader and a wrapper around yt-dlp.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"

	"github.com/streamgrab/streamgrab/log"
)

// Request describes one download.
type Request struct {
	ManifestURL string
	// Output is the destination path without extension. The engine picks the extension.
	Output string
	// Referer is sent with every request when set.
	Referer string
}

// Fetcher downloads a stream and returns the path of the written file.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, req Request) (string, error)
}

// Engine names a Fetcher implementation.
type Engine string

const (
	Auto   Engine = "auto"
	Native Engine = "native"
	Ytdlp  Engine = "ytdlp"
)

// Engines lists the accepted engine names.
func Engines() []string {
	return []string{string(Auto), string(Native), string(Ytdlp)}
}

// ProgressFunc is called after every written segment.
type ProgressFunc func(done, total int)

// Options configure the engines.
type Options struct {
	Engine    Engine
	YtdlpPath string
	Format    string
	Retries   int
	Client    *http.Client
	UserAgent string
	Progress  ProgressFunc
}

const defaultYtdlp = "yt-dlp"

var lookPath = exec.LookPath

// New returns the fetcher selected by options.Engine.
// Auto prefers yt-dlp when it is installed.
func New(options Options) (Fetcher, error) {
	if options.YtdlpPath == "" {
		options.YtdlpPath = defaultYtdlp
	}

	switch options.Engine {
	case Native:
		return NewNative(options), nil
	case Ytdlp:
		if _, err := lookPath(options.YtdlpPath); err != nil {
			return nil, fmt.Errorf("ytdlp engine: %w", err)
		}
		return NewYtdlp(options), nil
	case Auto, "":
		if _, err := lookPath(options.YtdlpPath); err == nil {
			return NewYtdlp(options), nil
		}
		log.Infof("%s not found, using the native engine", options.YtdlpPath)
		return NewNative(options), nil
	default:
		return nil, fmt.Errorf("unknown fetch engine %q", options.Engine)
	}
}

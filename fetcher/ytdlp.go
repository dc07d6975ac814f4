package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/streamgrab/streamgrab/filesystem"
	"github.com/streamgrab/streamgrab/log"
)

// partial marks files yt-dlp leaves behind while still working.
var partial = []string{".part", ".ytdl", ".temp"}

// YtdlpFetcher delegates the download to an external yt-dlp process.
type YtdlpFetcher struct {
	path   string
	format string
}

// NewYtdlp returns the yt-dlp engine.
func NewYtdlp(options Options) *YtdlpFetcher {
	return &YtdlpFetcher{
		path:   lo.Ternary(options.YtdlpPath != "", options.YtdlpPath, defaultYtdlp),
		format: lo.Ternary(options.Format != "", options.Format, "best"),
	}
}

func (y *YtdlpFetcher) Name() string {
	return string(Ytdlp)
}

func (y *YtdlpFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	if err := filesystem.API().MkdirAll(filepath.Dir(req.Output), os.ModePerm); err != nil {
		return "", err
	}

	before, err := Existing(req.Output)
	if err != nil {
		return "", err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.path, y.args(req)...)
	cmd.Stderr = &stderr

	log.Infof("running %s %s", y.path, strings.Join(y.args(req), " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("yt-dlp exited with %d: %s", exitErr.ExitCode(), lastLine(stderr.String()))
		}
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	return locate(req.Output, before)
}

func (y *YtdlpFetcher) args(req Request) []string {
	args := []string{
		"--no-playlist",
		"--newline",
		"-f", y.format,
		"-o", req.Output + ".%(ext)s",
	}

	if req.Referer != "" {
		args = append(args, "--referer", req.Referer)
	}

	return append(args, req.ManifestURL)
}

// Existing lists the finished files any engine produced for output.
func Existing(output string) ([]string, error) {
	matches, err := filesystem.Glob(globEscape(output) + ".*")
	if err != nil {
		return nil, err
	}

	return lo.Filter(matches, func(path string, _ int) bool {
		return !lo.SomeBy(partial, func(suffix string) bool {
			return strings.HasSuffix(path, suffix)
		})
	}), nil
}

// locate finds the file yt-dlp produced for output. Files that were not there
// before the run win over leftovers, then the most recently modified one.
func locate(output string, before []string) (string, error) {
	done, err := Existing(output)
	if err != nil {
		return "", err
	}

	if len(done) == 0 {
		return "", fmt.Errorf("yt-dlp reported success but no %s.* file exists", output)
	}

	if fresh := lo.Without(done, before...); len(fresh) > 0 {
		done = fresh
	}

	return lo.MaxBy(done, func(a, b string) bool {
		return modTime(a).After(modTime(b))
	}), nil
}

func modTime(path string) time.Time {
	info, err := filesystem.API().Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// globEscape quotes the metacharacters filepath.Match understands.
func globEscape(path string) string {
	var b strings.Builder
	for _, r := range path {
		if strings.ContainsRune("*?[", r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

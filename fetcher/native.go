package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/grafov/m3u8"
	"github.com/samber/lo"
	"github.com/streamgrab/streamgrab/filesystem"
	"github.com/streamgrab/streamgrab/log"
)

// maxNesting bounds how many master playlists may point at each other.
const maxNesting = 3

const retryDelay = 500 * time.Millisecond

// NativeFetcher downloads HLS streams segment by segment.
type NativeFetcher struct {
	client    *http.Client
	retries   int
	userAgent string
	progress  ProgressFunc
}

// NewNative returns the built-in HLS engine.
func NewNative(options Options) *NativeFetcher {
	return &NativeFetcher{
		client:    lo.Ternary(options.Client != nil, options.Client, http.DefaultClient),
		retries:   max(options.Retries, 1),
		userAgent: options.UserAgent,
		progress:  options.Progress,
	}
}

func (n *NativeFetcher) Name() string {
	return string(Native)
}

// Fetch resolves req.ManifestURL to a media playlist and concatenates its segments into one file.
// The file is removed when any segment fails.
func (n *NativeFetcher) Fetch(ctx context.Context, req Request) (path string, err error) {
	media, base, err := n.mediaPlaylist(ctx, req, req.ManifestURL, 0)
	if err != nil {
		return "", err
	}

	segments := lo.Compact(media.Segments)
	if len(segments) == 0 {
		return "", errors.New("media playlist has no segments")
	}

	ext := ".ts"
	if media.Map != nil || segments[0].Map != nil {
		ext = ".mp4"
	}
	out := req.Output + ext

	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(out), os.ModePerm); err != nil {
		return "", err
	}

	file, err := fs.Create(out)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			path, err = "", fmt.Errorf("close %s: %w", out, closeErr)
		}
		if err != nil {
			_ = fs.Remove(out)
		}
	}()

	keys := newKeyring(func(uri string) ([]byte, error) {
		return n.get(ctx, req, uri)
	})

	var (
		key     = media.Key
		initMap = media.Map
		written string
	)

	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if segment.Key != nil {
			key = segment.Key
		}
		if segment.Map != nil {
			initMap = segment.Map
		}

		if initMap != nil {
			mapURL := resolve(base, initMap.URI)
			if mapURL != written {
				if err := n.copy(ctx, req, file, mapURL, nil); err != nil {
					return "", fmt.Errorf("init segment: %w", err)
				}
				written = mapURL
			}
		}

		var decrypt *cipherSpec
		if key != nil && key.Method != "" && key.Method != "NONE" {
			spec, err := keys.spec(resolve(base, key.URI), key, media.SeqNo+uint64(i))
			if err != nil {
				return "", err
			}
			decrypt = &spec
		}

		if err := n.copy(ctx, req, file, resolve(base, segment.URI), decrypt); err != nil {
			return "", fmt.Errorf("segment %d: %w", i, err)
		}

		if n.progress != nil {
			n.progress(i+1, len(segments))
		}
	}

	log.Infof("wrote %d segments to %s", len(segments), out)
	return out, nil
}

// mediaPlaylist follows master playlists to the highest-bandwidth variant.
func (n *NativeFetcher) mediaPlaylist(ctx context.Context, req Request, manifestURL string, depth int) (*m3u8.MediaPlaylist, *url.URL, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, nil, fmt.Errorf("manifest url: %w", err)
	}

	resp, err := n.do(ctx, req, manifestURL)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return nil, nil, fmt.Errorf("decode playlist: %w", err)
	}

	switch listType {
	case m3u8.MEDIA:
		return playlist.(*m3u8.MediaPlaylist), base, nil
	case m3u8.MASTER:
		if depth >= maxNesting {
			return nil, nil, errors.New("master playlists nested too deeply")
		}

		variant := bestVariant(playlist.(*m3u8.MasterPlaylist))
		if variant == nil {
			return nil, nil, errors.New("master playlist has no variants")
		}

		log.Debugf("picked variant %s at %d bps", variant.URI, variant.Bandwidth)
		return n.mediaPlaylist(ctx, req, resolve(base, variant.URI), depth+1)
	default:
		return nil, nil, fmt.Errorf("unsupported playlist type %v", listType)
	}
}

func bestVariant(master *m3u8.MasterPlaylist) *m3u8.Variant {
	variants := lo.Filter(master.Variants, func(v *m3u8.Variant, _ int) bool {
		return v != nil && v.URI != ""
	})
	if len(variants) == 0 {
		return nil
	}

	return lo.MaxBy(variants, func(a, b *m3u8.Variant) bool {
		return a.Bandwidth > b.Bandwidth
	})
}

// copy downloads rawURL into w, retrying transient failures.
func (n *NativeFetcher) copy(ctx context.Context, req Request, w io.Writer, rawURL string, decrypt *cipherSpec) error {
	var lastErr error

	for attempt := 1; attempt <= n.retries; attempt++ {
		data, err := n.get(ctx, req, rawURL)
		if err == nil {
			if decrypt != nil {
				if data, err = decrypt.open(data); err != nil {
					return err
				}
			}

			_, err = w.Write(data)
			return err
		}

		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warnf("attempt %d/%d for %s failed: %s", attempt, n.retries, rawURL, err)
		if attempt < n.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}
	}

	return lastErr
}

func (n *NativeFetcher) get(ctx context.Context, req Request, rawURL string) ([]byte, error) {
	resp, err := n.do(ctx, req, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (n *NativeFetcher) do(ctx context.Context, req Request, rawURL string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	if n.userAgent != "" {
		httpReq.Header.Set("User-Agent", n.userAgent)
	}
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}

	return resp, nil
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

package capture

import (
	"errors"
	"strings"
	"sync"

	"github.com/samber/mo"
	"github.com/streamgrab/streamgrab/browser"
	"github.com/streamgrab/streamgrab/log"
	"github.com/streamgrab/streamgrab/source"
)

// state accumulates what a page reveals. Browser events arrive on another goroutine.
type state struct {
	markers Markers

	mu        sync.Mutex
	manifests source.ManifestSet
	metadata  mo.Option[source.Metadata]

	ready     chan struct{}
	readyOnce sync.Once
}

func newState(markers Markers) *state {
	return &state{
		markers: markers,
		ready:   make(chan struct{}),
	}
}

// request classifies an outgoing request URL.
func (s *state) request(url string) {
	if !strings.Contains(url, s.markers.Manifest) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.Contains(url, s.markers.Index):
		s.manifests.SetIndex(url)
		log.Debugf("captured index manifest %s", url)
	case strings.Contains(url, s.markers.Master):
		if s.manifests.AddMaster(url) {
			log.Debugf("captured master manifest %s", url)
		}
	default:
		return
	}

	s.signal()
}

// response picks up the page metadata. The first non-empty body that parses wins.
func (s *state) response(resp browser.Response) {
	if !strings.Contains(resp.URL(), s.markers.MetadataPath) {
		return
	}

	if status := resp.Status(); status < 200 || status > 299 {
		log.Debugf("ignoring metadata response %s with status %d", resp.URL(), status)
		return
	}

	s.mu.Lock()
	seen := s.metadata.IsPresent()
	s.mu.Unlock()
	if seen {
		return
	}

	body, err := resp.Body()
	if err != nil {
		log.Warnf("reading metadata body from %s: %s", resp.URL(), err)
		return
	}

	meta, err := source.ParseMetadata(body)
	switch {
	case errors.Is(err, source.ErrEmptyMetadata):
		log.Debugf("ignoring empty metadata from %s", resp.URL())
		return
	case err != nil:
		log.Warnf("parsing metadata from %s: %s", resp.URL(), err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metadata.IsPresent() {
		return
	}
	s.metadata = mo.Some(meta)
	s.signal()
}

// signal closes ready once both metadata and a manifest are known. Callers hold mu.
func (s *state) signal() {
	if s.metadata.IsPresent() && !s.manifests.Empty() {
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

// snapshot copies the accumulated state.
func (s *state) snapshot() (source.ManifestSet, mo.Option[source.Metadata]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifests.Clone(), s.metadata
}

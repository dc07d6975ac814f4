package capture

import (
	"context"
	"net/url"
	"strings"

	"github.com/streamgrab/streamgrab/browser"
	"github.com/streamgrab/streamgrab/log"
	"github.com/streamgrab/streamgrab/source"
)

// scanLinks collects alternate watch pages listed on page. Failures yield fewer links, never an error.
func (s *Session) scanLinks(ctx context.Context, page browser.Page, pageURL *url.URL) source.MirrorLinks {
	var links source.MirrorLinks

	if err := page.WaitIdle(ctx, s.options.IdleTimeout); err != nil {
		log.Debugf("scanning %s before network idle: %s", pageURL, err)
	}

	hrefs, err := page.Attributes(ctx, s.options.Markers.ListingXPath, "href")
	if err != nil {
		log.Warnf("scanning mirror links on %s: %s", pageURL, err)
		return links
	}

	for _, href := range hrefs {
		if !strings.Contains(href, s.options.Markers.WatchPath) {
			continue
		}

		if link, ok := source.ResolveLink(pageURL, href); ok && links.Add(link) {
			log.Debugf("found mirror %s", link)
		}
	}

	return links
}

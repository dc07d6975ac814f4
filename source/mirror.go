package source

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// MirrorLinks is an insertion-ordered, duplicate-free list of alternate watch pages.
type MirrorLinks []string

// Add appends link unless it is already present.
func (l *MirrorLinks) Add(link string) bool {
	if lo.Contains(*l, link) {
		return false
	}
	*l = append(*l, link)
	return true
}

// Origin returns the scheme and host of u with an empty path.
func Origin(u *url.URL) *url.URL {
	return &url.URL{Scheme: u.Scheme, Host: u.Host}
}

// ResolveLink turns an href found on page into an absolute URL.
// Relative references are resolved against the page origin, not the page path.
func ResolveLink(page *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	if ref.IsAbs() {
		return ref.String(), true
	}

	if !strings.HasPrefix(ref.Path, "/") {
		ref.Path = "/" + ref.Path
	}

	return Origin(page).ResolveReference(ref).String(), true
}

// WatchURL expands a bare watch ID into a page URL on base.
func WatchURL(base, watchPath, id string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Trim(watchPath, "/") + "/" + strings.Trim(id, "/")
}

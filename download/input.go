package download

import (
	"net/url"
	"strings"
)

// ParseURL validates a user-supplied page URL.
// Only absolute URLs with a host are accepted.
func ParseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &InputError{Input: raw, Reason: "empty"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &InputError{Input: raw, Reason: err.Error()}
	}

	if u.Scheme == "" {
		return nil, &InputError{Input: raw, Reason: "missing scheme"}
	}

	if u.Host == "" {
		return nil, &InputError{Input: raw, Reason: "missing host"}
	}

	return u, nil
}

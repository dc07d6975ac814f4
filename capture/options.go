package capture

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/streamgrab/streamgrab/config"
	"github.com/streamgrab/streamgrab/key"
)

// Markers are the substrings and selectors that classify what a page does.
type Markers struct {
	// Manifest marks a request as a playlist at all.
	Manifest string
	// Index and Master tell the two playlist kinds apart.
	Index  string
	Master string
	// MetadataPath marks the API response describing the page.
	MetadataPath string
	// WatchPath marks an anchor as a mirror watch page.
	WatchPath string
	// ListingXPath selects the anchors scanned for mirrors.
	ListingXPath string
}

// withDefaults replaces empty markers with the registered defaults.
// An empty marker would otherwise match everything.
func (m Markers) withDefaults() Markers {
	for target, k := range map[*string]string{
		&m.Manifest:     key.SiteManifestMarker,
		&m.Index:        key.SiteIndexMarker,
		&m.Master:       key.SiteMasterMarker,
		&m.MetadataPath: key.SiteMetadataPath,
		&m.WatchPath:    key.SiteWatchPath,
		&m.ListingXPath: key.SiteListingXPath,
	} {
		if strings.TrimSpace(*target) == "" {
			*target = cast.ToString(config.Default[k].Value)
		}
	}
	return m
}

// Options bound a capture in time and tell it what to look for.
type Options struct {
	NavigationTimeout time.Duration
	WaitBudget        time.Duration
	IdleTimeout       time.Duration
	Markers           Markers
}

const (
	defaultNavigationTimeout = 15 * time.Second
	defaultWaitBudget        = 8 * time.Second
	defaultIdleTimeout       = 5 * time.Second
)

// withDefaults fills zero durations and empty markers.
func (o Options) withDefaults() Options {
	o.Markers = o.Markers.withDefaults()

	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = defaultNavigationTimeout
	}
	if o.WaitBudget <= 0 {
		o.WaitBudget = defaultWaitBudget
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = defaultIdleTimeout
	}
	return o
}

// FromConfig reads capture options from configuration.
func FromConfig() Options {
	return Options{
		NavigationTimeout: config.Duration(key.CaptureNavigationTimeout),
		WaitBudget:        config.Duration(key.CaptureWaitBudget),
		IdleTimeout:       config.Duration(key.CaptureIdleTimeout),
		Markers: Markers{
			Manifest:     viper.GetString(key.SiteManifestMarker),
			Index:        viper.GetString(key.SiteIndexMarker),
			Master:       viper.GetString(key.SiteMasterMarker),
			MetadataPath: viper.GetString(key.SiteMetadataPath),
			WatchPath:    viper.GetString(key.SiteWatchPath),
			ListingXPath: viper.GetString(key.SiteListingXPath),
		},
	}
}

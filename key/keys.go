// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Downloads - where finished files land.
const (
	DownloadsDir = "downloads.dir"
)

// Site markers - substrings that classify traffic and links observed on the host site.
const (
	SiteBaseURL        = "site.base_url"
	SiteManifestMarker = "site.manifest_marker"
	SiteIndexMarker    = "site.index_marker"
	SiteMasterMarker   = "site.master_marker"
	SiteMetadataPath   = "site.metadata_path"
	SiteWatchPath      = "site.watch_path"
	SiteListingXPath   = "site.listing_xpath"
)

// Capture timing - bounds on every wait performed during a page visit.
const (
	CaptureNavigationTimeout = "capture.navigation_timeout"
	CaptureWaitBudget        = "capture.wait_budget"
	CaptureIdleTimeout       = "capture.idle_timeout"
)

// Browser - how the headless engine is launched.
const (
	BrowserHeadless  = "browser.headless"
	BrowserBin       = "browser.bin"
	BrowserStealth   = "browser.stealth"
	BrowserReuse     = "browser.reuse"
	BrowserNoSandbox = "browser.no_sandbox"
)

// Fetch - stream download engine selection and tuning.
const (
	FetchEngine         = "fetch.engine"
	FetchYtdlpPath      = "fetch.ytdlp_path"
	FetchFormat         = "fetch.format"
	FetchRetries        = "fetch.retries"
	FetchTLSFingerprint = "fetch.tls_fingerprint"
)

// History Tracking - persistence of download outcomes.
const (
	HistorySave = "history.save"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored = "cli.colored"
)

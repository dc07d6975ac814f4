package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/streamgrab/streamgrab/color"
	"github.com/streamgrab/streamgrab/constant"
	"github.com/streamgrab/streamgrab/key"
	"github.com/streamgrab/streamgrab/style"
)

// Field is a configuration key with its default value and help text.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty renders the field for config info.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env is the environment variable overriding the field.
func (f *Field) Env() string {
	return strings.ToUpper(constant.App + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Type names the kind of value the field accepts.
// Strings holding a duration such as "15s" report as duration.
func (f *Field) Type() string {
	switch v := f.Value.(type) {
	case string:
		if _, err := time.ParseDuration(v); err == nil {
			return "duration"
		}
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
		Env         string `json:"env"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.Type(),
		Env:         f.Env(),
	})
}

// fields is every supported key, grouped as in the key package.
var fields = []Field{
	{key.DownloadsDir, ".", "Directory where finished downloads are written"},
	{key.SiteBaseURL, "https://example.com", "Base URL of the host site.\nUsed to expand bare watch IDs passed with --id"},
	{key.SiteManifestMarker, ".m3u8", "Substring identifying manifest requests"},
	{key.SiteIndexMarker, "index.m3u8", "Substring identifying the pre-resolved index manifest.\nThe last one seen on a page wins"},
	{key.SiteMasterMarker, "master.m3u8", "Substring identifying master manifests.\nAll distinct ones are kept in discovery order"},
	{key.SiteMetadataPath, "/api/v1/watch/", "Path of the metadata API whose JSON response describes the page"},
	{key.SiteWatchPath, "/watch/", "Path fragment that marks a link as a mirror watch page"},
	{key.SiteListingXPath, `//*[@id="root"]/div[2]/div/div[2]/div/div//a`, "XPath of the anchors scanned for mirror links"},
	{key.CaptureNavigationTimeout, "15s", "Maximum time to wait for a page to reach DOMContentLoaded"},
	{key.CaptureWaitBudget, "8s", "Time to keep observing traffic after navigation.\nEnds early once metadata and a manifest were seen"},
	{key.CaptureIdleTimeout, "5s", "Maximum time to wait for network idle before scanning mirror links"},
	{key.BrowserHeadless, true, "Run the browser without a window"},
	{key.BrowserBin, "", "Path to a Chromium binary.\nWhen empty a system browser is looked up, then downloaded"},
	{key.BrowserStealth, true, "Hide common automation fingerprints from the page"},
	{key.BrowserReuse, true, "Launch one browser per run and share it between mirror captures"},
	{key.BrowserNoSandbox, false, "Pass --no-sandbox to the browser (needed when running as root in containers)"},
	{key.FetchEngine, "auto", "Stream download engine.\nAvailable options are: auto, native, ytdlp"},
	{key.FetchYtdlpPath, "yt-dlp", "yt-dlp executable used by the ytdlp engine"},
	{key.FetchFormat, "best", "Format selector passed to yt-dlp"},
	{key.FetchRetries, 3, "Attempts per segment for the native engine"},
	{key.FetchTLSFingerprint, false, "Use a Chrome TLS fingerprint for native segment requests"},
	{key.HistorySave, true, "Record every download in the local history"},
	{key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)"},
	{key.LogsWrite, false, "Write logs"},
	{key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace"},
	{key.LogsJson, false, "Use json format for logs"},
	{key.CliColored, true, "Enable colored CLI output"},
}

// Default indexes fields by key.
var Default = make(map[string]Field, len(fields))

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	for _, f := range fields {
		if _, exists := Default[f.Key]; exists {
			panic("duplicate config key: " + f.Key)
		}
		Default[f.Key] = f
		EnvExposed = append(EnvExposed, f.Key)
	}
}

func highlight(v any) string {
	switch value := v.(type) {
	case bool:
		b := strconv.FormatBool(value)
		if value {
			return style.Fg(color.Green)(b)
		}
		return style.Fg(color.Red)(b)
	case string:
		if value == "" {
			return style.Faint("(empty)")
		}
		return style.Fg(color.Yellow)(value)
	default:
		return fmt.Sprint(value)
	}
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"purple": style.Fg(color.Purple),
	"blue":   style.Fg(color.Blue),
	"value":  viper.Get,
	"hl":     highlight,
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl .Value }}
{{ blue "Type:" }}    {{ .Type }}`))

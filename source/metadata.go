package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/mo"
)

// UnknownTitle names media whose metadata carries no usable title.
const UnknownTitle = "Unknown"

// ErrEmptyMetadata is returned for bodies carrying neither a title nor an episode.
var ErrEmptyMetadata = errors.New("metadata: empty record")

// Episode locates a media item inside a series.
type Episode struct {
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
}

// Metadata describes the media a watch page plays.
type Metadata struct {
	Title   string             `json:"title"`
	Episode mo.Option[Episode] `json:"episode"`
}

// ParseMetadata decodes the body of a metadata API response.
// Missing or malformed fields fall back to defaults. A body that is not a JSON object
// or that has neither a title nor an episode is an error.
func ParseMetadata(body []byte) (Metadata, error) {
	var raw struct {
		Title   json.RawMessage `json:"title"`
		Episode json.RawMessage `json:"episode"`
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return Metadata{}, fmt.Errorf("metadata: %w", err)
	}

	title, hasTitle := parseTitle(raw.Title)
	episode, hasEpisode := parseEpisode(raw.Episode)
	if !hasTitle && !hasEpisode {
		return Metadata{}, ErrEmptyMetadata
	}

	meta := Metadata{Title: UnknownTitle}
	if hasTitle {
		meta.Title = title
	}
	if hasEpisode {
		meta.Episode = mo.Some(episode)
	}

	return meta, nil
}

func parseTitle(raw json.RawMessage) (string, bool) {
	var object struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &object) == nil && object.Name != "" {
		return object.Name, true
	}

	var plain string
	if json.Unmarshal(raw, &plain) == nil && plain != "" {
		return plain, true
	}

	return "", false
}

// parseEpisode accepts any non-empty object; absent numbers read as zero.
func parseEpisode(raw json.RawMessage) (Episode, bool) {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil || len(fields) == 0 {
		return Episode{}, false
	}

	var episode Episode
	decodeField(fields, "season_number", &episode.SeasonNumber)
	decodeField(fields, "episode_number", &episode.EpisodeNumber)
	decodeField(fields, "name", &episode.Name)

	return episode, true
}

func decodeField(fields map[string]json.RawMessage, name string, target any) {
	value, ok := fields[name]
	if !ok || bytes.Equal(value, []byte("null")) {
		return
	}

	_ = json.Unmarshal(value, target)
}

package source

import (
	"fmt"
	"strings"

	"github.com/samber/mo"
	"github.com/streamgrab/streamgrab/util"
)

// Placeholder is the file name used when a page exposed no metadata.
const Placeholder = "video"

// Filename derives a file name without extension from optional metadata.
func Filename(metadata mo.Option[Metadata]) string {
	meta, ok := metadata.Get()
	if !ok {
		return Placeholder
	}

	name := meta.Title
	if episode, ok := meta.Episode.Get(); ok {
		name = fmt.Sprintf("%s - S%02dE%02d", meta.Title, episode.SeasonNumber, episode.EpisodeNumber)
		if episode.Name != "" {
			name += " - " + episode.Name
		}
	}

	name = strings.TrimSpace(util.StripIllegal(name))
	if name == "" {
		return Placeholder
	}

	return name
}

package source

import (
	"strings"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilename(t *testing.T) {
	Convey("Filename", t, func() {
		Convey("Uses the placeholder without metadata", func() {
			So(Filename(mo.None[Metadata]()), ShouldEqual, Placeholder)
		})

		Convey("Uses the bare title for movies", func() {
			So(Filename(mo.Some(Metadata{Title: "Film"})), ShouldEqual, "Film")
		})

		Convey("Formats episodes with two-digit numbers", func() {
			meta := Metadata{Title: "Show", Episode: mo.Some(Episode{SeasonNumber: 1, EpisodeNumber: 3, Name: "Pilot"})}
			So(Filename(mo.Some(meta)), ShouldEqual, "Show - S01E03 - Pilot")
		})

		Convey("Omits an empty episode name", func() {
			meta := Metadata{Title: "Show", Episode: mo.Some(Episode{SeasonNumber: 2, EpisodeNumber: 11})}
			So(Filename(mo.Some(meta)), ShouldEqual, "Show - S02E11")
		})

		Convey("Strips characters that are illegal in file names", func() {
			meta := Metadata{Title: `What? A "Show"`, Episode: mo.Some(Episode{SeasonNumber: 1, EpisodeNumber: 1, Name: "Part 1/2: Begin*"})}
			name := Filename(mo.Some(meta))
			So(name, ShouldEqual, "What A Show - S01E01 - Part 12 Begin")
			So(strings.ContainsAny(name, `<>:"/\|?*`), ShouldBeFalse)
		})

		Convey("Falls back to the placeholder when nothing survives", func() {
			So(Filename(mo.Some(Metadata{Title: `???`})), ShouldEqual, Placeholder)
		})
	})
}

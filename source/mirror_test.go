package source

import (
	"net/url"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMirrorLinks(t *testing.T) {
	Convey("Given mirror links", t, func() {
		var links MirrorLinks

		So(links.Add("https://site/watch/2"), ShouldBeTrue)
		So(links.Add("https://site/watch/3"), ShouldBeTrue)
		So(links.Add("https://site/watch/2"), ShouldBeFalse)

		Convey("They keep insertion order without duplicates", func() {
			So([]string(links), ShouldResemble, []string{"https://site/watch/2", "https://site/watch/3"})
		})
	})
}

func TestResolveLink(t *testing.T) {
	Convey("Given a page URL with a path and query", t, func() {
		page := lo.Must(url.Parse("https://site.example/watch/1?x=1"))

		Convey("Absolute links are kept", func() {
			link, ok := ResolveLink(page, "https://other.example/watch/9")
			So(ok, ShouldBeTrue)
			So(link, ShouldEqual, "https://other.example/watch/9")
		})

		Convey("Root-relative links use the page origin", func() {
			link, ok := ResolveLink(page, "/watch/2")
			So(ok, ShouldBeTrue)
			So(link, ShouldEqual, "https://site.example/watch/2")
		})

		Convey("Path-relative links are anchored at the origin too", func() {
			link, ok := ResolveLink(page, "watch/3")
			So(ok, ShouldBeTrue)
			So(link, ShouldEqual, "https://site.example/watch/3")
		})

		Convey("Protocol-relative links inherit the scheme", func() {
			link, ok := ResolveLink(page, "//cdn.example/watch/4")
			So(ok, ShouldBeTrue)
			So(link, ShouldEqual, "https://cdn.example/watch/4")
		})

		Convey("Blank links are rejected", func() {
			_, ok := ResolveLink(page, "  ")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestWatchURL(t *testing.T) {
	Convey("WatchURL joins base, path and id", t, func() {
		So(WatchURL("https://site.example/", "/watch/", "1590407"), ShouldEqual, "https://site.example/watch/1590407")
		So(WatchURL("https://site.example", "watch", "/42"), ShouldEqual, "https://site.example/watch/42")
	})
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/streamgrab/streamgrab/color"
	"github.com/streamgrab/streamgrab/icon"
	"github.com/streamgrab/streamgrab/source"
	"github.com/streamgrab/streamgrab/style"
	"github.com/streamgrab/streamgrab/util"
)

// printer narrates the mirror exploration on stdout.
type printer struct {
	quiet       bool
	interactive bool
	width       int
	bar         progress.Model
	drawn       bool
}

func newPrinter(quiet bool) *printer {
	width := 80
	if w, _, err := util.TerminalSize(); err == nil && w > 0 {
		width = w
	}

	return &printer{
		quiet:       quiet,
		interactive: util.IsTerminal(),
		width:       width,
		bar: progress.New(
			progress.WithGradient(color.ProgressFrom, color.ProgressTo),
			progress.WithWidth(util.Max(util.Min(width-16, 60), 10)),
		),
	}
}

func (p *printer) println(format string, args ...any) {
	if p.quiet {
		return
	}
	p.clearBar()
	fmt.Printf(format+"\n", args...)
}

func (p *printer) clearBar() {
	if p.drawn {
		fmt.Printf("\r%s\r", strings.Repeat(" ", p.width-1))
		p.drawn = false
	}
}

func (p *printer) url(u string) string {
	return style.Fg(color.Link)(util.Ellipsize(u, p.width-12))
}

func (p *printer) MirrorStarted(index, total int, url string) {
	mark, label := icon.Search, "page"
	if index > 0 {
		mark, label = icon.Link, fmt.Sprintf("mirror %d/%d", index, total-1)
	}
	p.println("%s %s %s", style.Fg(color.Accent)(icon.Get(mark)), style.Bold(label), p.url(url))
}

func (p *printer) MirrorSkipped(_ int, _ string, err error) {
	reason := "no manifests found"
	if err != nil {
		reason = err.Error()
	}
	p.println("  %s %s", style.Fg(color.Warning)(icon.Get(icon.Skip)), style.Faint(reason))
}

func (p *printer) CandidatesRanked(_ int, candidates []source.Candidate) {
	p.println("  %s %s", icon.Get(icon.Mark), style.Faint(util.Quantify(len(candidates), "manifest", "manifests")+" found"))
}

func (p *printer) AttemptStarted(n, total int, candidate source.Candidate, _ string) {
	p.println(
		"  %s %s %s %s",
		style.Fg(color.Accent)(icon.Get(icon.Download)),
		style.Faint(fmt.Sprintf("[%d/%d]", n, total)),
		style.Kind(candidate.Kind),
		p.url(candidate.URL),
	)
}

func (p *printer) AttemptFailed(_ source.Candidate, err error) {
	p.println("    %s %s", style.Fg(color.Failure)(icon.Get(icon.Fail)), style.Faint(util.Ellipsize(err.Error(), p.width-8)))
}

func (p *printer) AttemptSucceeded(source.Candidate, string) {
	p.clearBar()
}

// Progress draws the segment progress bar in place.
func (p *printer) Progress(done, total int) {
	if p.quiet || !p.interactive || total <= 0 {
		return
	}

	fmt.Printf("\r    %s %s", p.bar.ViewAs(float64(done)/float64(total)), style.Faint(fmt.Sprintf("%d/%d", done, total)))
	p.drawn = true
}

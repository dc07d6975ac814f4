package download

import "github.com/streamgrab/streamgrab/source"

// Observer is told about exploration progress. Calls happen on the
// goroutine running Download, in order.
type Observer interface {
	MirrorStarted(index, total int, url string)
	// MirrorSkipped is called with a nil err when the mirror revealed no manifests.
	MirrorSkipped(index int, url string, err error)
	CandidatesRanked(index int, candidates []source.Candidate)
	AttemptStarted(n, total int, candidate source.Candidate, output string)
	AttemptFailed(candidate source.Candidate, err error)
	AttemptSucceeded(candidate source.Candidate, path string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) MirrorStarted(int, int, string)                    {}
func (NopObserver) MirrorSkipped(int, string, error)                  {}
func (NopObserver) CandidatesRanked(int, []source.Candidate)          {}
func (NopObserver) AttemptStarted(int, int, source.Candidate, string) {}
func (NopObserver) AttemptFailed(source.Candidate, error)             {}
func (NopObserver) AttemptSucceeded(source.Candidate, string)         {}

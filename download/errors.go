package download

import (
	"errors"
	"fmt"

	"github.com/samber/mo"
	"github.com/streamgrab/streamgrab/source"
)

var (
	// ErrInvalidInput indicates the input is not an absolute URL.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAllMirrorsExhausted indicates every mirror and candidate was tried without success.
	ErrAllMirrorsExhausted = errors.New("all download attempts failed")
)

// InputError is returned before any browser work when the input cannot be used.
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Stage names the step an attempt failed in.
type Stage string

const (
	StageCapture Stage = "capture"
	StageFetch   Stage = "fetch"
)

// Attempt records one failed unit of work.
type Attempt struct {
	Mirror    int                         `json:"mirror" jsonschema:"description=Position of the mirror in the exploration order"`
	MirrorURL string                      `json:"mirror_url"`
	Stage     Stage                       `json:"stage" jsonschema:"enum=capture,enum=fetch"`
	Candidate mo.Option[source.Candidate] `json:"candidate"`
	Err       error                       `json:"-"`
}

func (a Attempt) String() string {
	if candidate, ok := a.Candidate.Get(); ok {
		return fmt.Sprintf("mirror %d %s %s: %s", a.Mirror, a.Stage, candidate.Kind, a.Err)
	}
	return fmt.Sprintf("mirror %d %s: %s", a.Mirror, a.Stage, a.Err)
}

// ExhaustedError is returned when no mirror produced a file.
type ExhaustedError struct {
	URL      string
	Mirrors  int
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%s: no manifests found on %d mirror(s)", ErrAllMirrorsExhausted, e.Mirrors)
	}
	return fmt.Sprintf("%s: %d attempt(s) on %d mirror(s), last: %s", ErrAllMirrorsExhausted, len(e.Attempts), e.Mirrors, e.Attempts[len(e.Attempts)-1])
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllMirrorsExhausted
}

// Last returns the final recorded attempt.
func (e *ExhaustedError) Last() mo.Option[Attempt] {
	if len(e.Attempts) == 0 {
		return mo.None[Attempt]()
	}
	return mo.Some(e.Attempts[len(e.Attempts)-1])
}

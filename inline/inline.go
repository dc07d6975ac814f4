// Package inline renders the outcome of a download as JSON for scripts.
package inline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/streamgrab/streamgrab/download"
	"github.com/streamgrab/streamgrab/source"
)

// Reason classifies a failure.
type Reason string

const (
	InvalidInput Reason = "invalid_input"
	Exhausted    Reason = "exhausted"
	Cancelled    Reason = "cancelled"
	Other        Reason = "error"
)

type Attempt struct {
	Mirror    int    `json:"mirror"`
	MirrorURL string `json:"mirror_url"`
	Stage     string `json:"stage" jsonschema:"enum=capture,enum=fetch"`
	Kind      string `json:"kind,omitempty" jsonschema:"enum=index,enum=master"`
	Manifest  string `json:"manifest,omitempty"`
	Error     string `json:"error"`
}

type Episode struct {
	Season int    `json:"season"`
	Number int    `json:"number"`
	Name   string `json:"name,omitempty"`
}

type Metadata struct {
	Title   string   `json:"title"`
	Episode *Episode `json:"episode,omitempty"`
}

type Output struct {
	URL      string    `json:"url"`
	Success  bool      `json:"success"`
	Path     string    `json:"path,omitempty"`
	Engine   string    `json:"engine,omitempty"`
	Mirror   string    `json:"mirror,omitempty"`
	Manifest string    `json:"manifest,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Reason   Reason    `json:"reason,omitempty" jsonschema:"enum=invalid_input,enum=exhausted,enum=cancelled,enum=error"`
	Error    string    `json:"error,omitempty"`
	// Attempts lists failed attempts, including those before a success.
	Attempts []Attempt `json:"attempts"`
}

// New builds the output for one Download call.
func New(url string, result *download.Result, err error) *Output {
	out := &Output{URL: url, Attempts: []Attempt{}}

	if err == nil && result != nil {
		out.URL = result.URL
		out.Success = true
		out.Path = result.Path
		out.Engine = result.Engine
		out.Mirror = result.MirrorURL
		out.Manifest = result.Candidate.URL
		out.Attempts = attempts(result.Failures)
		if metadata, ok := result.Metadata.Get(); ok {
			out.Metadata = newMetadata(metadata)
		}
		return out
	}

	if err == nil {
		return out
	}

	out.Error = err.Error()

	var exhausted *download.ExhaustedError
	switch {
	case errors.Is(err, download.ErrInvalidInput):
		out.Reason = InvalidInput
	case errors.As(err, &exhausted):
		out.Reason = Exhausted
		out.Attempts = attempts(exhausted.Attempts)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Reason = Cancelled
	default:
		out.Reason = Other
	}

	return out
}

func attempts(list []download.Attempt) []Attempt {
	return lo.Map(list, func(a download.Attempt, _ int) Attempt {
		converted := Attempt{
			Mirror:    a.Mirror,
			MirrorURL: a.MirrorURL,
			Stage:     string(a.Stage),
		}
		if a.Err != nil {
			converted.Error = a.Err.Error()
		}
		if candidate, ok := a.Candidate.Get(); ok {
			converted.Kind = string(candidate.Kind)
			converted.Manifest = candidate.URL
		}
		return converted
	})
}

func newMetadata(m source.Metadata) *Metadata {
	metadata := &Metadata{Title: m.Title}
	if episode, ok := m.Episode.Get(); ok {
		metadata.Episode = &Episode{
			Season: episode.SeasonNumber,
			Number: episode.EpisodeNumber,
			Name:   episode.Name,
		}
	}
	return metadata
}

// Write encodes out to w.
func Write(w io.Writer, out *Output) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// Schema describes Output.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		return "inline." + t.Name()
	}

	return reflector.Reflect(&Output{})
}

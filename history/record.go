package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streamgrab/streamgrab/download"
	"github.com/streamgrab/streamgrab/source"
)

// Status is the outcome of a download.
type Status string

const (
	Done   Status = "done"
	Failed Status = "failed"
)

// Record is one download as remembered between runs.
type Record struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Status    Status    `json:"status"`
	Output    string    `json:"output,omitempty"`
	Mirror    string    `json:"mirror,omitempty"`
	Manifest  string    `json:"manifest,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newRecord(url string, status Status) *Record {
	return &Record{
		ID:        uuid.New(),
		URL:       url,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

// Succeeded records a finished download.
func Succeeded(result *download.Result) *Record {
	r := newRecord(result.URL, Done)
	r.Title = source.Filename(result.Metadata)
	r.Output = result.Path
	r.Mirror = result.MirrorURL
	r.Manifest = result.Candidate.URL
	return r
}

// Failure records a download that produced no file.
func Failure(url string, err error) *Record {
	r := newRecord(url, Failed)
	r.Error = err.Error()

	var exhausted *download.ExhaustedError
	if errors.As(err, &exhausted) {
		if last, ok := exhausted.Last().Get(); ok {
			r.Mirror = last.MirrorURL
			if candidate, ok := last.Candidate.Get(); ok {
				r.Manifest = candidate.URL
			}
		}
	}

	return r
}

func (r *Record) String() string {
	name := r.Title
	if name == "" {
		name = r.URL
	}
	return fmt.Sprintf("%s %s (%s)", r.CreatedAt.Format(time.DateTime), name, r.Status)
}

// Package source defines the domain model shared by capture and download:
// manifest sets, mirror links, page metadata and ranked candidates.
package source

import "fmt"

// Kind classifies a manifest URL.
type Kind string

const (
	// Index is the single pre-resolved playlist a page requests when it has one.
	Index Kind = "index"
	// Master is a variant playlist; a page may request several.
	Master Kind = "master"
)

// Candidate is a manifest URL ranked for one download attempt.
type Candidate struct {
	Mirror int    `json:"mirror" jsonschema:"description=Position of the mirror in exploration order, 0 is the requested page"`
	Kind   Kind   `json:"kind" jsonschema:"enum=index,enum=master"`
	URL    string `json:"url"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s %s", c.Kind, c.URL)
}

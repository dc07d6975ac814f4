package source

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ManifestSet holds the manifests observed during one page visit.
type ManifestSet struct {
	Index   mo.Option[string] `json:"index"`
	Masters []string          `json:"masters"`
}

// SetIndex records an index manifest. Later calls replace earlier ones.
func (m *ManifestSet) SetIndex(url string) {
	m.Index = mo.Some(url)
}

// AddMaster appends a master manifest unless the exact URL is already known.
func (m *ManifestSet) AddMaster(url string) bool {
	if lo.Contains(m.Masters, url) {
		return false
	}
	m.Masters = append(m.Masters, url)
	return true
}

// Empty reports whether no manifest was observed.
func (m ManifestSet) Empty() bool {
	return m.Index.IsAbsent() && len(m.Masters) == 0
}

// Len returns the number of distinct manifests.
func (m ManifestSet) Len() int {
	if m.Index.IsPresent() {
		return len(m.Masters) + 1
	}
	return len(m.Masters)
}

// Candidates ranks the set for download: the index first, then masters in discovery order.
func (m ManifestSet) Candidates(mirror int) []Candidate {
	candidates := make([]Candidate, 0, m.Len())

	if url, ok := m.Index.Get(); ok {
		candidates = append(candidates, Candidate{Mirror: mirror, Kind: Index, URL: url})
	}

	for _, url := range m.Masters {
		candidates = append(candidates, Candidate{Mirror: mirror, Kind: Master, URL: url})
	}

	return candidates
}

// Clone returns a copy that shares no memory with m.
func (m ManifestSet) Clone() ManifestSet {
	return ManifestSet{
		Index:   m.Index,
		Masters: append([]string(nil), m.Masters...),
	}
}

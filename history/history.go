// Package history remembers past downloads on disk.
package history

import (
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/streamgrab/streamgrab/filesystem"
	"github.com/streamgrab/streamgrab/where"
	"golang.org/x/exp/slices"
)

var cacher = gache.New[map[string]*Record](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// mu serialises read-modify-write cycles on the store.
var mu sync.Mutex

func load() (map[string]*Record, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Record), nil
	}
	return cached, nil
}

// Get returns every record, newest first.
func Get() ([]*Record, error) {
	mu.Lock()
	defer mu.Unlock()

	saved, err := load()
	if err != nil {
		return nil, err
	}

	records := lo.Values(saved)
	slices.SortFunc(records, func(a, b *Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return records, nil
}

// Save stores record, replacing an earlier one with the same ID.
func Save(record *Record) error {
	mu.Lock()
	defer mu.Unlock()

	saved, err := load()
	if err != nil {
		return err
	}

	saved[record.ID.String()] = record
	return cacher.Set(saved)
}

// Filter returns the records whose title or URL fuzzily match query, newest first.
// An empty query matches everything.
func Filter(query string) ([]*Record, error) {
	records, err := Get()
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return records, nil
	}

	return lo.Filter(records, func(r *Record, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, r.Title) || fuzzy.MatchNormalizedFold(query, r.URL)
	}), nil
}

// Clear forgets every record.
func Clear() error {
	mu.Lock()
	defer mu.Unlock()

	return cacher.Set(make(map[string]*Record))
}

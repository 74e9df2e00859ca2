package store

import (
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Prune removes all but the keep most recent semver-tagged generations of
// each repository, returning the entries it removed. Tags that don't parse
// as semver (a moving tag like "latest", or a digest-pinned entry) are
// left untouched — pruning only applies to generational releases.
func (s *Store) Prune(keep int) ([]Entry, error) {
	entries, err := s.Index()
	if err != nil {
		return nil, err
	}

	type versioned struct {
		entry   Entry
		version *semver.Version
	}
	byRepo := make(map[string][]versioned)
	for _, e := range entries {
		v, err := semver.NewVersion(e.Tag)
		if err != nil {
			continue
		}
		key := e.Registry + "/" + e.Repository
		byRepo[key] = append(byRepo[key], versioned{entry: e, version: v})
	}

	var removed []Entry
	for _, versions := range byRepo {
		sort.Slice(versions, func(i, j int) bool {
			return versions[i].version.GreaterThan(versions[j].version)
		})
		if len(versions) <= keep {
			continue
		}
		for _, v := range versions[keep:] {
			if err := os.RemoveAll(v.entry.Dir); err != nil {
				return removed, err
			}
			removed = append(removed, v.entry)
		}
	}
	return removed, nil
}

package store

import (
	"os"
	"path/filepath"
	"strings"
)

// Entry describes one cached bundle as discovered by walking the store's
// directory tree.
type Entry struct {
	Registry   string
	Repository string
	Tag        string
	Dir        string
}

// Index walks the store root and returns every cache entry found, used by
// "mcpkit bundle list" and by Prune. It tolerates a partially populated
// tree (a directory with no metadata.json is skipped, not an error) since
// an interrupted Put can leave one behind.
func (s *Store) Index() ([]Entry, error) {
	var entries []Entry
	root := s.Dir

	registries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, reg := range registries {
		if !reg.IsDir() {
			continue
		}
		err := walkRepositories(filepath.Join(root, reg.Name()), nil, func(repoSegments []string, tagDir string) {
			if _, statErr := os.Stat(filepath.Join(tagDir, metadataFileName)); statErr != nil {
				return
			}
			// The last segment is the tag directory itself, not part of
			// the repository path.
			repo := repoSegments
			if len(repo) > 0 {
				repo = repo[:len(repo)-1]
			}
			entries = append(entries, Entry{
				Registry:   reg.Name(),
				Repository: strings.Join(repo, "/"),
				Tag:        filepath.Base(tagDir),
				Dir:        tagDir,
			})
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// walkRepositories recurses through repository path segments until it
// finds a directory containing metadata.json-or-not at the tag level; the
// store layout has no fixed repository depth (an organization/name split
// is just two more directory levels), so this walks until leaves are found.
func walkRepositories(dir string, segments []string, onTagDir func(segments []string, tagDir string)) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	hasMetadataSibling := false
	for _, c := range children {
		if !c.IsDir() && c.Name() == metadataFileName {
			hasMetadataSibling = true
		}
	}
	if hasMetadataSibling {
		onTagDir(segments, dir)
		return nil
	}
	for _, c := range children {
		if !c.IsDir() {
			continue
		}
		if err := walkRepositories(filepath.Join(dir, c.Name()), append(append([]string{}, segments...), c.Name()), onTagDir); err != nil {
			return err
		}
	}
	return nil
}

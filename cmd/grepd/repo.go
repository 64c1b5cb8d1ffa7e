package main

import (
	"os"
	"path/filepath"

	"github.com/crestsearch/grepd/corpus"
)

// fsRepo adapts a plain directory tree to corpus.Repository, mirroring
// the teacher's cindex.go filepath.Walk skip-rules (dotfiles, '#' and
// '~' temporaries) but through the abstract Repository interface
// instead of calling ix.AddFile directly, since corpus.WalkRef owns the
// tree traversal.
//
// A ref here is simply an absolute root directory path; "trees" and
// "blobs" are both just filesystem paths, distinguished by IsTree in
// the TreeEntry returned from Tree.
type fsRepo struct{}

func (fsRepo) ResolveRef(ref string) (string, error) {
	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func (fsRepo) Tree(id string) ([]corpus.TreeEntry, error) {
	entries, err := os.ReadDir(id)
	if err != nil {
		return nil, err
	}
	var out []corpus.TreeEntry
	for _, e := range entries {
		name := e.Name()
		if skipName(name) {
			continue
		}
		out = append(out, corpus.TreeEntry{
			Name:   name,
			IsTree: e.IsDir(),
			ID:     filepath.Join(id, name),
		})
	}
	return out, nil
}

func (fsRepo) Blob(id string) ([]byte, error) {
	return os.ReadFile(id)
}

// skipName mirrors cindex.go's skip rule for temporary/hidden files:
// leading '.', '#', or trailing '~'.
func skipName(name string) bool {
	if name == "" {
		return false
	}
	if name[0] == '.' || name[0] == '#' {
		return true
	}
	if name[len(name)-1] == '~' {
		return true
	}
	return false
}

package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCorpus(t *testing.T, chunkSize int) *Corpus {
	t.Helper()
	c := New()
	c.SetAllocator(NewAllocator(chunkSize))
	return c
}

func TestIngestDedupsIdenticalLines(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)

	require.NoError(t, c.Ingest("a", []byte("package foo\n\nfunc Bar() {}\n"), "main", "a.go"))
	require.NoError(t, c.Ingest("b", []byte("package foo\n\nfunc Baz() {}\n"), "main", "b.go"))

	c.Finalize()

	require.Equal(t, 2, c.NumFiles())
	// Both files share the identical "package foo" and "" lines; dedup
	// means the chunk holds four distinct lines, not six.
	chunk := c.Chunks()[0]
	require.Len(t, chunk.Data(), len("package foo\n")+len("\n")+len("func Bar() {}\n")+len("func Baz() {}\n"))
}

func TestIngestSameOIDAttachesPath(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)

	require.NoError(t, c.Ingest("same", []byte("hello\n"), "main", "a.txt"))
	require.NoError(t, c.Ingest("same", []byte("hello\n"), "other", "b.txt"))

	c.Finalize()

	require.Equal(t, 1, c.NumFiles())
	f := c.File(0)
	require.Len(t, f.Paths, 2)
	require.Equal(t, Path("a.txt"), f.Paths[0].Path)
	require.Equal(t, Path("b.txt"), f.Paths[1].Path)
}

func TestIngestSkipsBinaryBlobs(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)

	err := c.Ingest("bin", []byte("abc\x00def\n"), "main", "bin.dat")
	require.ErrorIs(t, err, ErrBinary)
	require.Equal(t, 0, c.NumFiles())
}

func TestIngestDropsUnterminatedFinalLine(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)

	require.NoError(t, c.Ingest("a", []byte("line one\nline two (no newline)"), "main", "a.txt"))
	c.Finalize()

	f := c.File(0)
	require.Equal(t, 1, f.totalLines())
}

func TestLocateConfirmsOwningFile(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)

	require.NoError(t, c.Ingest("a", []byte("alpha\nbeta\ngamma\n"), "main", "a.txt"))
	require.NoError(t, c.Ingest("b", []byte("beta\ndelta\n"), "main", "b.txt"))
	c.Finalize()

	fa := c.File(0)
	sp := fa.Content[0]
	_, lineNumber, ok := fa.Locate(c, sp.Chunk, sp.Offset)
	require.True(t, ok)
	require.Equal(t, 1, lineNumber)

	fb := c.File(1)
	// fb's first line is "beta", which is byte-identical to fa's second
	// line and therefore dedup-shares the same span; fb must still
	// confirm ownership of its own occurrence as its own line 1 (fa
	// confirms the same bytes as its line 2).
	spBeta := fb.Content[0]
	_, lnB, okB := fb.Locate(c, spBeta.Chunk, spBeta.Offset)
	require.True(t, okB)
	require.Equal(t, 1, lnB)
}

func TestPanicsOnIngestBeforeAllocator(t *testing.T) {
	c := New()
	require.Panics(t, func() {
		_ = c.Ingest("a", []byte("x\n"), "main", "a.txt")
	})
}

func TestPanicsOnIngestAfterFinalize(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)
	c.Finalize()
	require.Panics(t, func() {
		_ = c.Ingest("a", []byte("x\n"), "main", "a.txt")
	})
}

func TestWalkRefOrdersRootsAndIngestsBlobs(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)
	repo := &fakeRepo{
		refs: map[string]string{"main": "root"},
		trees: map[string][]TreeEntry{
			"root": {
				{Name: "z", IsTree: false, ID: "blob-z"},
				{Name: "src", IsTree: true, ID: "tree-src"},
				{Name: "docs", IsTree: true, ID: "tree-docs"},
			},
			"tree-src":  {{Name: "main.go", IsTree: false, ID: "blob-main"}},
			"tree-docs": {{Name: "readme.md", IsTree: false, ID: "blob-readme"}},
		},
		blobs: map[string][]byte{
			"blob-z":      []byte("z\n"),
			"blob-main":   []byte("package main\n"),
			"blob-readme": []byte("hello\n"),
		},
	}

	require.NoError(t, WalkRef(c, repo, "main", []string{"src", "docs"}))
	c.Finalize()

	require.Equal(t, 3, c.NumFiles())
	paths := map[Path]bool{}
	for _, f := range c.Files() {
		for _, p := range f.Paths {
			paths[p.Path] = true
		}
	}
	require.True(t, paths["src/main.go"])
	require.True(t, paths["docs/readme.md"])
	require.True(t, paths["z"])
}

// fakeRepo is a minimal in-memory Repository for tests.
type fakeRepo struct {
	refs  map[string]string
	trees map[string][]TreeEntry
	blobs map[string][]byte
}

func (r *fakeRepo) ResolveRef(ref string) (string, error) { return r.refs[ref], nil }
func (r *fakeRepo) Tree(id string) ([]TreeEntry, error)   { return r.trees[id], nil }
func (r *fakeRepo) Blob(id string) ([]byte, error)        { return r.blobs[id], nil }

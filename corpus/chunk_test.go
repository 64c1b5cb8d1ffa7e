package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFilesTreeMatchesBruteForce(t *testing.T) {
	c := newTestCorpus(t, DefaultChunkSize)
	require.NoError(t, c.Ingest("a", []byte("one\ntwo\nthree\n"), "main", "a.txt"))
	require.NoError(t, c.Ingest("b", []byte("four\nfive\n"), "main", "b.txt"))
	require.NoError(t, c.Ingest("c", []byte("six\n"), "main", "c.txt"))
	c.Finalize()

	chunk := c.Chunks()[0]
	for off := 0; off < chunk.Size(); off++ {
		brute := chunk.ResolveFiles(off, false)
		indexed := chunk.ResolveFiles(off, true)
		require.Equal(t, len(brute), len(indexed), "offset %d", off)
		for i := range brute {
			require.Equal(t, brute[i].Left, indexed[i].Left, "offset %d", off)
			require.Equal(t, brute[i].Right, indexed[i].Right, "offset %d", off)
		}
	}
}

func TestCapacityReturnsAllocatorChunkSize(t *testing.T) {
	c := newTestCorpus(t, 1<<16)
	require.NoError(t, c.Ingest("a", []byte("x\n"), "main", "a.txt"))
	c.Finalize()

	require.Equal(t, 1<<16, c.Chunks()[0].Capacity())
}

func TestLineStartLineEnd(t *testing.T) {
	data := []byte("alpha\nbeta\ngamma\n")
	require.Equal(t, 0, LineStart(data, 0))
	require.Equal(t, 0, LineStart(data, 3))
	require.Equal(t, 6, LineStart(data, 6))
	require.Equal(t, 6, LineStart(data, 9))
	require.Equal(t, 11, LineStart(data, 16))

	require.Equal(t, 6, LineEnd(data, 0))
	require.Equal(t, 11, LineEnd(data, 6))
	require.Equal(t, 17, LineEnd(data, 11))
}

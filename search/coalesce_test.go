package search

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crestsearch/grepd/corpus"
)

func TestRadixSortMatchesSort(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	offsets := make([]int, 500)
	for i := range offsets {
		offsets[i] = r.Intn(1 << 20)
	}
	want := append([]int(nil), offsets...)
	sort.Ints(want)

	radixSort(offsets)
	require.Equal(t, want, offsets)
}

func TestRadixSortSmallSlices(t *testing.T) {
	for _, in := range [][]int{nil, {}, {5}, {2, 1}, {1, 1, 1}} {
		got := append([]int(nil), in...)
		radixSort(got)
		want := append([]int(nil), in...)
		sort.Ints(want)
		require.Equal(t, want, got)
	}
}

func TestCoalesceRangesMergesWithinMinSkip(t *testing.T) {
	c := newTestChunk(t, "aaaa\nbbbb\ncccc\ndddd\n")
	data := c.Data()

	near := []int{0, 5} // "aaaa" and "bbbb" start close together, well under kMinSkip
	ranges := coalesceRanges(c, near)
	require.Len(t, ranges, 1)
	require.Equal(t, lineRange{0, corpus.LineEnd(data, 5)}, ranges[0])
}

func TestCoalesceRangesSplitsBeyondMinSkip(t *testing.T) {
	// A line longer than kMinSkip separates "aaaa" from "bbbb", so the
	// two candidate offsets lie more than kMinSkip bytes apart.
	c := newTestChunk(t, "aaaa\n"+strings.Repeat("x", kMinSkip+50)+"\nbbbb\n")
	data := c.Data()
	far := []int{0, len(data) - len("bbbb\n")}
	ranges := coalesceRanges(c, far)
	require.Len(t, ranges, 2)
	require.Equal(t, lineRange{0, corpus.LineEnd(data, 0)}, ranges[0])
	require.Equal(t, lineRange{far[1], len(data)}, ranges[1])
}

func newTestChunk(t *testing.T, content string) *corpus.Chunk {
	t.Helper()
	c := corpus.New()
	c.SetAllocator(corpus.NewAllocator(corpus.DefaultChunkSize))
	for i, line := range splitForTest(content) {
		require.NoError(t, c.Ingest(string(rune('a'+i))+line, []byte(line+"\n"), "main", corpus.Path(line)))
	}
	c.Finalize()
	return c.Chunks()[0]
}

func splitForTest(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}

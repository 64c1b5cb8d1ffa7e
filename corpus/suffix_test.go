package corpus

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSuffixArrayOrdersBySentinelRule(t *testing.T) {
	data := []byte("cat\ncar\nbat\n")
	suf := buildSuffixArray(data)
	require.Len(t, suf, len(data))
	require.True(t, sort.SliceIsSorted(suf, func(i, j int) bool {
		return compareSuffixes(data, int(suf[i]), int(suf[j])) < 0
	}))

	// The suffix starting at a '\n' sorts first: the sentinel rank of
	// '\n' is below every other byte.
	require.Equal(t, byte('\n'), data[suf[0]])
}

func TestSplitRangeNarrowsByDepth(t *testing.T) {
	data := []byte("cat\ncar\nbat\n")
	c := &Chunk{data: data}
	c.suffixes = buildSuffixArray(data)

	// At depth 0, every suffix starting with 'c' ('c' == 'c') should be
	// contiguous in the array and distinguishable from those starting
	// with 'b' or '\n'.
	lo, hi := c.SplitRange(0, len(c.suffixes), 0, Rank('c'), Rank('c'))
	require.True(t, hi > lo)
	for i := lo; i < hi; i++ {
		off := c.SuffixOffset(i)
		require.Equal(t, byte('c'), data[off])
	}
}

func TestSuffixByteRankSentinelAfterLineEnd(t *testing.T) {
	data := []byte("ab\n")
	c := &Chunk{data: data}
	c.suffixes = buildSuffixArray(data)

	for i := range c.suffixes {
		off := int(c.suffixes[i])
		if data[off] != '\n' {
			continue
		}
		require.Equal(t, -1, c.SuffixByteRank(i, 0))
		require.Equal(t, -1, c.SuffixByteRank(i, 5))
	}
}

package corpus

import "sort"

// buildSuffixArray returns the offsets [0,len(data)) sorted by the byte
// sequence starting at that offset, with '\n' treated as a sentinel that
// compares less than every other byte (§4.2). This makes a suffix
// terminate logically at the next line boundary: two offsets whose
// bytes diverge only after their next '\n' sort by the shorter prefix.
//
// A full lexicographic sort of raw suffixes would need O(n) comparisons
// per pair in the worst case; instead we bound each comparison at the
// next '\n' (equivalent to comparing NUL-free lines under this
// package's sentinel rule) which in practice terminates in a handful of
// bytes for source code corpora. sort.Slice's introsort keeps the
// overall cost close to O(n log n) comparisons.
func buildSuffixArray(data []byte) []int32 {
	n := len(data)
	suf := make([]int32, n)
	for i := range suf {
		suf[i] = int32(i)
	}
	sort.Slice(suf, func(i, j int) bool {
		return compareSuffixes(data, int(suf[i]), int(suf[j])) < 0
	})
	return suf
}

// compareSuffixes compares the suffixes of data starting at a and b
// using the sentinel rule: '\n' sorts before every other byte, so a
// suffix effectively ends at (and includes) its first '\n'.
func compareSuffixes(data []byte, a, b int) int {
	na, nb := len(data), len(data)
	for {
		var ca, cb int
		aDone := a >= na
		bDone := b >= nb
		if aDone && bDone {
			return 0
		}
		if aDone {
			return -1
		}
		if bDone {
			return 1
		}
		ca = sentinelRank(data[a])
		cb = sentinelRank(data[b])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		if data[a] == '\n' {
			// Both suffixes terminate their comparison at this
			// shared newline; equal so far and both logically end
			// here.
			return 0
		}
		a++
		b++
	}
}

// sentinelRank orders '\n' before every other byte value, per §4.2.
func sentinelRank(c byte) int {
	if c == '\n' {
		return -1
	}
	return int(c)
}

// suffixLowerBound returns the smallest index i in suffixes[lo:hi] such
// that the byte at depth `depth` of suffixes[i]'s suffix is >= target
// under the sentinel rule, or hi if none.
func suffixLowerBound(data []byte, suffixes []int32, lo, hi, depth int, target int) int {
	for lo < hi {
		mid := (lo + hi) / 2
		if byteAt(data, int(suffixes[mid]), depth) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// suffixUpperBound returns the smallest index i in suffixes[lo:hi] such
// that the byte at depth `depth` of suffixes[i]'s suffix is > target.
func suffixUpperBound(data []byte, suffixes []int32, lo, hi, depth int, target int) int {
	for lo < hi {
		mid := (lo + hi) / 2
		if byteAt(data, int(suffixes[mid]), depth) <= target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// byteAt returns the sentinel-ranked byte at position off+depth of the
// suffix beginning at off. Once a suffix has logically ended — it hit a
// '\n' or the end of the buffer at or before this depth — its rank is
// defined to be the sentinel rank (-1) forever after, since the suffix
// is conceptually followed by an infinite run of sentinels (mirroring
// how compareSuffixes treats a shared '\n' as a tie that ends the
// comparison rather than reading past it).
func byteAt(data []byte, off, depth int) int {
	pos := off
	for i := 0; i < depth; i++ {
		if pos >= len(data) || data[pos] == '\n' {
			return -1
		}
		pos++
	}
	if pos >= len(data) {
		return -1
	}
	return sentinelRank(data[pos])
}

// Rank returns the sentinel-aware sort rank of a literal byte value:
// '\n' ranks below every other byte, per §4.2.
func Rank(b byte) int {
	return sentinelRank(b)
}

// SuffixByteRank returns the sentinel-aware rank of the byte at position
// depth of the suffix beginning at suffixes[idx].
func (c *Chunk) SuffixByteRank(idx, depth int) int {
	return byteAt(c.data, int(c.suffixes[idx]), depth)
}

// SplitRange narrows the sub-range [left,right) of the chunk's suffix
// array to the elements whose byte at position depth has sentinel rank
// in [rankLo, rankHi], inclusive. The caller must already know that
// every suffix in [left,right) agrees on bytes [0,depth).
func (c *Chunk) SplitRange(left, right, depth, rankLo, rankHi int) (int, int) {
	lo := suffixLowerBound(c.data, c.suffixes, left, right, depth, rankLo)
	hi := suffixUpperBound(c.data, c.suffixes, left, right, depth, rankHi)
	return lo, hi
}

// SuffixOffset returns the chunk-buffer byte offset suffixes[idx] points
// to.
func (c *Chunk) SuffixOffset(idx int) int {
	return int(c.suffixes[idx])
}

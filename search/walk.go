package search

import (
	"github.com/crestsearch/grepd/corpus"
	"github.com/crestsearch/grepd/indexkey"
)

// walkFrame is one stack entry of the filtered suffix-array walk
// (spec.md §4.3): [left,right) is a sub-range of the chunk's suffix
// array every member of which already agrees on bytes [0,depth), and
// key governs how to split it further.
type walkFrame struct {
	left, right, depth int
	key                indexkey.Key
}

// filteredWalk descends the chunk's suffix array under key, appending
// every candidate byte offset it emits to dst. It returns the
// (possibly grown) dst slice and overflow=true if the candidate count
// exceeded cap before the walk finished, per spec.md §4.3's "abandon the
// filter for this chunk" cap.
func filteredWalk(c *corpus.Chunk, key indexkey.Key, dst []int, capLimit int) ([]int, bool) {
	stack := []walkFrame{{left: 0, right: len(c.Suffixes()), depth: 0, key: key}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fr.right <= fr.left {
			continue
		}
		if fr.key == nil || fr.key.Empty() || fr.right-fr.left <= minSuffixesFloor {
			for i := fr.left; i < fr.right; i++ {
				if len(dst) >= capLimit {
					return dst, true
				}
				dst = append(dst, c.SuffixOffset(i))
			}
			continue
		}
		for _, e := range fr.key.Edges() {
			// Split per byte value so that every pushed frame agrees on
			// bytes [0,depth+1), as SplitRange requires at the next depth.
			for ch := int(e.Lo); ch <= int(e.Hi); ch++ {
				r := corpus.Rank(byte(ch))
				subLeft, subRight := c.SplitRange(fr.left, fr.right, fr.depth, r, r)
				if subLeft >= subRight {
					continue
				}
				stack = append(stack, walkFrame{left: subLeft, right: subRight, depth: fr.depth + 1, key: e.Child})
			}
		}
	}
	return dst, false
}

// candidateCap is the pre-sized candidate-buffer limit of spec.md §4.3:
// kChunkSize / kMinFilterRatio, using the chunk's actual capacity since
// grepd's allocator may be configured with a non-default chunk size.
func candidateCap(c *corpus.Chunk) int {
	n := c.Capacity() / kMinFilterRatio
	if n < minSuffixesFloor {
		n = minSuffixesFloor
	}
	return n
}

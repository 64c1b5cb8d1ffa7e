package search

import "github.com/crestsearch/grepd/corpus"

// radixSort sorts non-negative byte offsets ascending via an LSD
// radix sort over four 8-bit passes, grounded on the teacher's
// postings sort in index/write.go (sortPost): counting sort per byte is
// stable, so four passes over a 32-bit key fully order it without
// comparisons.
func radixSort(offsets []int) {
	if len(offsets) < 2 {
		return
	}
	a := offsets
	b := make([]int, len(offsets))
	for pass := uint(0); pass < 4; pass++ {
		shift := pass * 8
		var count [257]int
		for _, v := range a {
			count[((v>>shift)&0xFF)+1]++
		}
		for i := 1; i < len(count); i++ {
			count[i] += count[i-1]
		}
		for _, v := range a {
			bucket := (v >> shift) & 0xFF
			b[count[bucket]] = v
			count[bucket]++
		}
		a, b = b, a
	}
	if len(offsets) > 0 && &a[0] != &offsets[0] {
		copy(offsets, a)
	}
}

// coalesceRanges merges sorted candidate offsets into line-aligned scan
// ranges, greedily absorbing a following candidate whenever it falls
// within kMinSkip bytes of the current range's end (spec.md §4.4).
func coalesceRanges(c *corpus.Chunk, offsets []int) []lineRange {
	if len(offsets) == 0 {
		return nil
	}
	data := c.Data()
	var ranges []lineRange
	max := offsets[0]
	lo := corpus.LineStart(data, max)
	for _, off := range offsets[1:] {
		if off <= max+kMinSkip {
			if off > max {
				max = off
			}
			continue
		}
		ranges = append(ranges, lineRange{lo, corpus.LineEnd(data, max)})
		max = off
		lo = corpus.LineStart(data, max)
	}
	ranges = append(ranges, lineRange{lo, corpus.LineEnd(data, max)})
	return ranges
}

// fileFinger implements spec.md §4.6's file-range-skipping walk over a
// chunk's ChunkFiles: given an outer [pos,maxpos) range, it narrows to
// the next sub-range intersecting a ChunkFile with at least one
// accepted search_file, absorbing immediately-following accepted
// ChunkFiles into the same sub-range while the gap between them stays
// within kMinSkip.
type fileFinger struct {
	files    []*corpus.ChunkFile
	idx      int
	accepted func(corpus.File) bool
}

func newFileFinger(c *corpus.Chunk, accepted func(corpus.File) bool) *fileFinger {
	return &fileFinger{files: c.Files(), accepted: accepted}
}

func (fg *fileFinger) hasAccepted(cf *corpus.ChunkFile) bool {
	for _, f := range cf.Files {
		if fg.accepted(f) {
			return true
		}
	}
	return false
}

// next advances past ChunkFiles ending before pos or lacking an
// accepted file, then returns the narrowed [npos,nend) sub-range of
// [pos,maxpos). ok is false once no further accepted ChunkFile starts
// before maxpos.
func (fg *fileFinger) next(pos, maxpos int) (npos, nend int, ok bool) {
	for fg.idx < len(fg.files) {
		cf := fg.files[fg.idx]
		if cf.Right < pos || !fg.hasAccepted(cf) {
			fg.idx++
			continue
		}
		break
	}
	if fg.idx >= len(fg.files) || fg.files[fg.idx].Left >= maxpos {
		return maxpos, maxpos, false
	}

	cf := fg.files[fg.idx]
	npos = pos
	if cf.Left > npos {
		npos = cf.Left
	}
	nend = cf.Right + 1

	j := fg.idx + 1
	for j < len(fg.files) && nend < maxpos {
		next := fg.files[j]
		if !fg.hasAccepted(next) || next.Left-nend > kMinSkip {
			break
		}
		if next.Right+1 > nend {
			nend = next.Right + 1
		}
		j++
	}
	if nend > maxpos {
		nend = maxpos
	}
	fg.idx = j
	return npos, nend, true
}

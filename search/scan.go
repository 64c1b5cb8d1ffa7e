package search

import (
	"unicode/utf8"

	"github.com/crestsearch/grepd/corpus"
	"github.com/crestsearch/grepd/rxengine"
)

// chunkScan holds the per-chunk, per-worker state of one Search call: a
// private compiled regex triple (unanchored, anchored twin, file
// pattern) exclusive to this goroutine, the chunk being scanned, and
// the accumulating results.
type chunkScan struct {
	sr       *Searcher
	chunk    *corpus.Chunk
	re       *rxengine.Regexp
	anchored *rxengine.Regexp
	fileRe   *rxengine.Regexp

	results []MatchResult
}

// lineRange is one byte range of a chunk queued for regex scanning,
// already aligned to whole lines: start is a line's first byte, end is
// one past the last scanned line's trailing '\n' (or chunk.Size()).
type lineRange struct {
	start, end int
}

func (cs *chunkScan) run() []MatchResult {
	ranges := cs.candidateRanges()
	for _, r := range ranges {
		if cs.sr.exceeded() {
			break
		}
		cs.scanOuterRange(r.start, r.end)
	}
	return cs.results
}

// candidateRanges implements spec.md §4.3-§4.5: the filtered
// suffix-array walk plus its fallbacks to an unfiltered whole-chunk
// scan — candidate-buffer overflow, the byte-density heuristic, and the
// file-pattern density heuristic — or no range at all when filtering
// proves the pattern cannot occur in this chunk.
func (cs *chunkScan) candidateRanges() []lineRange {
	whole := []lineRange{{0, cs.chunk.Size()}}
	if !cs.sr.opts.UseIndex || cs.sr.key == nil || cs.sr.key.Empty() {
		return whole
	}

	capLimit := candidateCap(cs.chunk)
	candidates, overflow := filteredWalk(cs.chunk, cs.sr.key, make([]int, 0, 64), capLimit)
	if overflow {
		return whole
	}
	if len(candidates) == 0 {
		return nil
	}

	radixSort(candidates)

	if len(candidates)*kMinFilterRatio > cs.chunk.Size() {
		return whole
	}
	if cs.fileRe != nil {
		density := cs.sr.filesDensity()
		if fileFilterRatio*len(candidates) > int(density*float64(cs.chunk.Size())) {
			return whole
		}
	}

	return coalesceRanges(cs.chunk, candidates)
}

// scanOuterRange regex-scans one outer range, first narrowing it
// through the file-range-skipping finger when a file pattern is active
// and the index is enabled (spec.md §4.6); otherwise it scans the whole
// range directly.
func (cs *chunkScan) scanOuterRange(pos, maxpos int) {
	if cs.fileRe == nil || !cs.sr.opts.UseIndex {
		cs.scanWindowed(pos, maxpos)
		return
	}
	fg := newFileFinger(cs.chunk, cs.acceptFile)
	for pos < maxpos {
		if cs.sr.exceeded() {
			return
		}
		npos, nend, ok := fg.next(pos, maxpos)
		if !ok {
			return
		}
		cs.scanWindowed(npos, nend)
		pos = nend
	}
}

// scanWindowed runs the unanchored regex over [pos,maxpos) in chunks of
// at most kMaxScan bytes, extending a truncated window to the next line
// boundary so that a match is never split across two windows (spec.md
// §4.6).
func (cs *chunkScan) scanWindowed(pos, maxpos int) {
	data := cs.chunk.Data()
	for pos < maxpos {
		if cs.sr.exceeded() {
			return
		}
		winEnd := pos + kMaxScan
		if winEnd >= maxpos {
			winEnd = maxpos
		} else {
			winEnd = corpus.LineEnd(data, winEnd-1)
			if winEnd > maxpos {
				winEnd = maxpos
			}
		}

		beginText := pos == 0
		endText := winEnd == len(data)
		end := cs.re.Match(data[pos:winEnd], beginText, endText)
		if end < 0 {
			pos = winEnd
			continue
		}

		matchEndAbs := pos + end
		bound := matchEndAbs
		if bound >= len(data) {
			bound = len(data) - 1
		}
		lineStart := corpus.LineStart(data, bound)
		lineEndIncl := corpus.LineEnd(data, lineStart) // one past the trailing '\n'
		lineEnd := lineEndIncl
		if lineEnd > lineStart && data[lineEnd-1] == '\n' {
			lineEnd--
		}

		cs.handleLine(lineStart, lineEnd, matchEndAbs)
		pos = lineEndIncl
	}
}

// handleLine verifies the matched line is valid UTF-8, pinpoints the
// match's start offset, converts both edges to rune offsets, and
// resolves and emits the match (spec.md §4.6-§4.8).
func (cs *chunkScan) handleLine(lineStart, lineEnd, matchEndAbs int) {
	data := cs.chunk.Data()
	line := data[lineStart:lineEnd]
	if !corpus.ValidUTF8Line(line) {
		return
	}

	relEnd := matchEndAbs - lineStart
	if relEnd > len(line) {
		relEnd = len(line)
	}
	if relEnd < 0 {
		relEnd = 0
	}
	relStart := cs.findMatchStart(line, relEnd)
	if relStart < 0 {
		return
	}

	matchLeft := utf8.RuneCount(line[:relStart])
	matchRight := utf8.RuneCount(line[:relEnd])

	group, _ := cs.resolveLine(lineStart, lineEnd, matchLeft, matchRight)
	if group == nil {
		return
	}
	flushed := group.flush()
	cs.results = append(cs.results, flushed...)
	// Count and check the cap as soon as this line's matches land, not
	// once at the end of the chunk: otherwise a single-chunk corpus
	// never sees its own in-flight matches against MaxMatches until it's
	// too late to stop (spec.md §6, §9 worked example S3).
	cs.sr.addMatches(len(flushed))
}

// findMatchStart recovers the byte offset within line where the match
// ending at relEnd begins. The ported DFA (faithful to the teacher's
// matcher) only ever reports a match's end offset, never its start, so
// an anchored twin of the pattern (no dot-star prefix) is slid forward
// one byte at a time and tested against line[i:relEnd] with
// beginText=(i==0) and endText=true: the first i at which it fully
// consumes that span is the true leftmost start, since a fixed end
// point has at most one leftmost match reaching it.
func (cs *chunkScan) findMatchStart(line []byte, relEnd int) int {
	for i := 0; i <= relEnd; i++ {
		sub := line[i:relEnd]
		if end := cs.anchored.Match(sub, i == 0, true); end == len(sub) {
			return i
		}
	}
	return -1
}

package search

import "github.com/crestsearch/grepd/corpus"

// resolveLine implements spec.md §4.7-§4.8 for one matched line:
// resolving the chunk_files covering it, confirming candidate
// search_files via Locate, filtering their paths against the query's
// file pattern, and gathering up to kContextLines of surrounding
// context. It returns nil if nothing actually confirms — every
// touching chunk_file was a dedup artifact of some other file, or none
// of their paths pass the filter.
func (cs *chunkScan) resolveLine(lineStart, lineEnd, matchLeft, matchRight int) (*matchGroup, int) {
	files := cs.chunk.ResolveFiles(lineStart, cs.sr.opts.UseIndex)
	if len(files) == 0 {
		return nil, 0
	}
	cp := cs.sr.corpus
	line := cs.chunk.Data()[lineStart:lineEnd]
	group := newMatchGroup(line, matchLeft, matchRight)
	newPaths := 0
	for _, cf := range files {
		if cs.sr.exceeded() {
			break
		}
		for _, no := range cf.Files {
			if !cs.acceptFile(no) {
				continue
			}
			sf := cp.File(no)
			spanIdx, lineNumber, ok := sf.Locate(cp, cs.chunk.ID(), lineStart)
			if !ok {
				continue
			}
			accepted := cs.filterPaths(sf.Paths)
			if len(accepted) == 0 {
				continue
			}
			before, after := cs.lineContext(sf, spanIdx, lineStart)
			ctx := MatchContext{
				File:          no,
				LineNumber:    lineNumber,
				ContextBefore: before,
				ContextAfter:  after,
				Paths:         accepted,
			}
			newPaths += group.add(ctx, accepted)
		}
	}
	if len(group.order) == 0 {
		return nil, 0
	}
	return group, newPaths
}

// acceptFile reports whether search_file no has at least one path
// matching the query's file pattern, memoizing the answer in the
// query-wide cache (spec.md §5: "races are benign, the same answer is
// computed twice"). Absent a file pattern, every file is accepted.
func (cs *chunkScan) acceptFile(no corpus.File) bool {
	if cs.fileRe == nil {
		return true
	}
	if v, ok := cs.sr.acceptance.Load(no); ok {
		return v.(bool)
	}
	sf := cs.sr.corpus.File(no)
	accept := pathsMatch(cs.fileRe, sf.Paths)
	cs.sr.acceptance.Store(no, accept)
	return accept
}

// filterPaths returns the subset of paths matching the query's file
// pattern, or paths unchanged when no file pattern is active.
func (cs *chunkScan) filterPaths(paths []corpus.PathRef) []corpus.PathRef {
	if cs.fileRe == nil {
		return paths
	}
	var out []corpus.PathRef
	for _, p := range paths {
		if cs.fileRe.Match([]byte(p.Path), true, true) >= 0 {
			out = append(out, p)
		}
	}
	return out
}

// lineContext gathers up to kContextLines preceding and following
// lines of sf, starting from the line at lineOffset within content
// span spanIdx, crossing span boundaries via PrevLine/NextLine.
func (cs *chunkScan) lineContext(sf *corpus.SearchFile, spanIdx, lineOffset int) (before, after [][]byte) {
	cp := cs.sr.corpus

	sIdx, off := spanIdx, lineOffset
	for i := 0; i < kContextLines; i++ {
		line, prevIdx, prevOff, ok := sf.PrevLine(cp, sIdx, off)
		if !ok {
			break
		}
		before = append(before, line.Bytes(cp))
		sIdx, off = prevIdx, prevOff
	}
	reverseLines(before)

	sIdx, off = spanIdx, lineOffset
	for i := 0; i < kContextLines; i++ {
		line, nextIdx, nextOff, ok := sf.NextLine(cp, sIdx, off)
		if !ok {
			break
		}
		after = append(after, line.Bytes(cp))
		sIdx, off = nextIdx, nextOff
	}
	return before, after
}

func reverseLines(lines [][]byte) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}

package search

import (
	"time"

	"github.com/crestsearch/grepd/corpus"
)

// MatchResult is one emitted match, per spec.md §6's match_result.
type MatchResult struct {
	// Line is the matched source line's bytes, excluding the trailing
	// '\n'.
	Line []byte
	// MatchLeft and MatchRight are Unicode scalar-value (rune) offsets
	// of the match's edges within Line, per spec.md's testable
	// property 5.
	MatchLeft, MatchRight int
	// Context holds one entry per confirming search_file that has this
	// result's path among its accepted (ref, path) pairs.
	Context []MatchContext
}

// MatchContext is spec.md §6's match_context.
type MatchContext struct {
	File          corpus.File
	LineNumber    int
	ContextBefore [][]byte
	ContextAfter  [][]byte
	Paths         []corpus.PathRef
}

// Stats declares the original engine's per-query profiling counters
// (SPEC_FULL.md §C.2). Coordinator.Run never populates it, so
// QueryResult.Stats is always nil.
type Stats struct {
	RE2Time     time.Duration
	IndexTime   time.Duration
	SortTime    time.Duration
	AnalyzeTime time.Duration
}

// QueryResult is the terminal outcome of one query.
type QueryResult struct {
	Results    []MatchResult
	ExitReason ExitReason
	Stats      *Stats
}

// matchGroup accumulates match_contexts per path for one matched
// (chunk, line) before being flushed into one MatchResult per path, per
// spec.md §4.8. A single confirming search_file contributes one
// match_context, attached under every distinct path string among its
// accepted (ref, path) aliases; two unrelated search_files that happen
// to share a path string accumulate two separate contexts under that
// key.
type matchGroup struct {
	line                  []byte
	matchLeft, matchRight int
	order                 []corpus.Path
	byPath                map[corpus.Path][]MatchContext
}

func newMatchGroup(line []byte, left, right int) *matchGroup {
	return &matchGroup{line: line, matchLeft: left, matchRight: right, byPath: make(map[corpus.Path][]MatchContext)}
}

// add attaches one confirming search_file's context to every distinct
// path string among accepted, returning how many new distinct paths
// this introduced to the group (the caller increments the query-wide
// match counter by exactly that much).
func (g *matchGroup) add(ctx MatchContext, accepted []corpus.PathRef) (newPaths int) {
	seen := make(map[corpus.Path]bool, len(accepted))
	for _, pr := range accepted {
		if seen[pr.Path] {
			continue
		}
		seen[pr.Path] = true
		if _, ok := g.byPath[pr.Path]; !ok {
			g.order = append(g.order, pr.Path)
			newPaths++
		}
		g.byPath[pr.Path] = append(g.byPath[pr.Path], ctx)
	}
	return newPaths
}

// flush emits one MatchResult per distinct path in first-seen order.
func (g *matchGroup) flush() []MatchResult {
	out := make([]MatchResult, 0, len(g.order))
	for _, p := range g.order {
		out = append(out, MatchResult{
			Line:       g.line,
			MatchLeft:  g.matchLeft,
			MatchRight: g.matchRight,
			Context:    g.byPath[p],
		})
	}
	return out
}

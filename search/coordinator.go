package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crestsearch/grepd/corpus"
)

// DefaultNumWorkers is the coordinator's fixed worker-pool size (spec.md
// §5: "a fixed-size pool of worker goroutines"). A server wiring a
// Coordinator from config may size this to the host's core count.
const DefaultNumWorkers = 8

// Coordinator dispatches every finalized chunk of a corpus to a
// Searcher and drains results, honoring Options.MaxMatches and
// Options.TimeoutSeconds (spec.md §5).
type Coordinator struct {
	Corpus     *corpus.Corpus
	NumWorkers int
}

// NewCoordinator returns a Coordinator with the default worker count.
func NewCoordinator(c *corpus.Corpus) *Coordinator {
	return &Coordinator{Corpus: c, NumWorkers: DefaultNumWorkers}
}

// Run executes one query across every chunk of the coordinator's
// corpus, using an errgroup-backed pool capped at NumWorkers in place
// of a hand-rolled channel dispatcher (grounded on the pack's
// errgroup.WithContext + SetLimit idiom).
func (co *Coordinator) Run(ctx context.Context, opts Options) (QueryResult, error) {
	if !co.Corpus.Finalized() {
		panic("search: query issued before corpus.Finalize")
	}
	opts = opts.withDefaults()

	if opts.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	sr, err := newSearcher(ctx, co.Corpus, opts)
	if err != nil {
		return QueryResult{}, err
	}
	if !opts.PerformSearch {
		return QueryResult{ExitReason: ExitNone}, nil
	}

	numWorkers := co.NumWorkers
	if numWorkers <= 0 {
		numWorkers = DefaultNumWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	sr.ctx = gctx

	var mu sync.Mutex
	var results []MatchResult

	for _, c := range co.Corpus.Chunks() {
		c := c
		if sr.exceeded() {
			break
		}
		g.Go(func() error {
			if sr.exceeded() {
				return nil
			}
			res := sr.Search(c)
			if len(res) > 0 {
				mu.Lock()
				results = append(results, res...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	reason := ExitNone
	switch atomic.LoadInt32(&sr.exitReason) {
	case exitMatchLimit:
		reason = ExitMatchLimit
	case exitTimeout:
		reason = ExitTimeout
	}
	if reason == ExitNone && ctx.Err() == context.DeadlineExceeded {
		reason = ExitTimeout
	}
	if opts.FilesWithMatches {
		results = filesWithMatches(results)
	}
	// Workers racing to the cap can each land one result after it's
	// already reached, so MaxMatches is a target, not a hard ceiling, at
	// the per-chunk level; truncate here as a backstop so the caller
	// never sees more than it asked for.
	if opts.MaxMatches > 0 && len(results) > opts.MaxMatches {
		results = results[:opts.MaxMatches]
	}
	return QueryResult{Results: results, ExitReason: reason}, nil
}

// filesWithMatches collapses results to at most one MatchResult per
// distinct path, discarding per-line detail, mirroring the original
// engine's "-l" flag (SPEC_FULL.md §C.4).
func filesWithMatches(results []MatchResult) []MatchResult {
	seen := make(map[corpus.Path]bool)
	var out []MatchResult
	for _, r := range results {
		keep := false
		for _, ctx := range r.Context {
			for _, p := range ctx.Paths {
				if !seen[p.Path] {
					seen[p.Path] = true
					keep = true
				}
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

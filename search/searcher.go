package search

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/crestsearch/grepd/corpus"
	"github.com/crestsearch/grepd/indexkey"
	"github.com/crestsearch/grepd/rxengine"
)

const (
	exitNone int32 = iota
	exitMatchLimit
	exitTimeout
)

// Searcher is the per-query object of spec.md §2/§5: the pattern and
// file pattern text, the derived IndexKey, and every piece of state
// shared across the chunks a Coordinator dispatches concurrently — the
// atomic match counter, the monotonic exit-reason transition, the
// per-query file-acceptance cache, and the lazily-computed files
// density estimate.
//
// A compiled rxengine.Regexp caches per-byte DFA transitions lazily and
// is therefore unsafe to call concurrently. The only compiled regex
// Searcher holds, densityRe, is used solely inside filesDensity's
// sync.Once; Search compiles fresh, exclusive copies of the pattern and
// file pattern for each chunk it processes.
type Searcher struct {
	corpus      *corpus.Corpus
	opts        Options
	pattern     string
	filePattern string
	key         indexkey.Key

	ctx context.Context

	matchCount int64 // atomic
	exitReason int32 // atomic

	acceptance sync.Map // corpus.File -> bool

	densityOnce sync.Once
	density     float64
	densityRe   *rxengine.Regexp
}

// newSearcher validates and compiles the query once (surfacing BadInput
// synchronously, per spec.md §7), and derives the IndexKey.
func newSearcher(ctx context.Context, c *corpus.Corpus, opts Options) (*Searcher, error) {
	pattern := opts.pattern()
	if _, err := rxengine.Compile(pattern); err != nil {
		return nil, err
	}
	var key indexkey.Key
	if opts.UseIndex {
		key, _ = indexkey.Derive(pattern, indexkey.DefaultMaxDepth)
	}
	sr := &Searcher{
		corpus:      c,
		opts:        opts,
		pattern:     pattern,
		filePattern: opts.FilePattern,
		key:         key,
		ctx:         ctx,
	}
	if sr.filePattern != "" {
		re, err := rxengine.Compile(sr.filePattern)
		if err != nil {
			return nil, err
		}
		sr.densityRe = re
	}
	return sr, nil
}

// exceeded reports whether the query should stop starting new work,
// checking (and if newly true, latching) the exit reason per spec.md
// §4.9: the context deadline, then the match cap.
func (sr *Searcher) exceeded() bool {
	if atomic.LoadInt32(&sr.exitReason) != exitNone {
		return true
	}
	if sr.ctx != nil && sr.ctx.Err() != nil {
		sr.setExitReason(exitTimeout)
		return true
	}
	if sr.opts.MaxMatches > 0 && atomic.LoadInt64(&sr.matchCount) >= int64(sr.opts.MaxMatches) {
		sr.setExitReason(exitMatchLimit)
		return true
	}
	return false
}

// setExitReason performs the monotonic first-writer-wins transition of
// spec.md §5's cancellation model.
func (sr *Searcher) setExitReason(r int32) {
	atomic.CompareAndSwapInt32(&sr.exitReason, exitNone, r)
}

// addMatches advances the query-wide match counter by n newly-emitted
// distinct (path, line) matches.
func (sr *Searcher) addMatches(n int) {
	if n > 0 {
		atomic.AddInt64(&sr.matchCount, int64(n))
	}
}

// filesDensity lazily estimates, once per query, the fraction of the
// corpus's search_files whose paths match the file pattern, sampling up
// to 1,000 files uniformly at random (spec.md §4.4).
func (sr *Searcher) filesDensity() float64 {
	sr.densityOnce.Do(func() {
		files := sr.corpus.Files()
		n := len(files)
		if n == 0 {
			sr.density = 0
			return
		}
		const sampleSize = 1000
		hits := 0
		samples := n
		if samples > sampleSize {
			samples = sampleSize
			perm := rand.Perm(n)[:sampleSize]
			for _, i := range perm {
				if pathsMatch(sr.densityRe, files[i].Paths) {
					hits++
				}
			}
		} else {
			for _, f := range files {
				if pathsMatch(sr.densityRe, f.Paths) {
					hits++
				}
			}
		}
		sr.density = float64(hits) / float64(samples)
	})
	return sr.density
}

func pathsMatch(re *rxengine.Regexp, paths []corpus.PathRef) bool {
	for _, p := range paths {
		b := []byte(p.Path)
		if re.Match(b, true, true) >= 0 {
			return true
		}
	}
	return false
}

// Search runs the full filtered-search pipeline (spec.md §4.3-§4.8)
// over one chunk, returning the query's matches from that chunk. It is
// safe to call concurrently for distinct chunks of the same Searcher.
func (sr *Searcher) Search(c *corpus.Chunk) []MatchResult {
	if sr.exceeded() {
		return nil
	}
	re, err := rxengine.Compile(sr.pattern)
	if err != nil {
		return nil
	}
	anchored, err := rxengine.CompileAnchored(sr.pattern)
	if err != nil {
		return nil
	}
	var fileRe *rxengine.Regexp
	if sr.filePattern != "" {
		fileRe, err = rxengine.Compile(sr.filePattern)
		if err != nil {
			return nil
		}
	}
	cs := &chunkScan{
		sr:       sr,
		chunk:    c,
		re:       re,
		anchored: anchored,
		fileRe:   fileRe,
	}
	return cs.run()
}

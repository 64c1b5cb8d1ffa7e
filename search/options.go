// Package search implements the filtered-search algorithm of spec.md
// §4-§5: per-query Searcher, the filtered suffix-array walk, candidate
// coalescing, range scanning with file-range skipping, interval-tree
// file resolution, and the worker-pool coordinator that dispatches
// chunks and drains results with early termination on a match cap or
// deadline.
package search

import "github.com/google/uuid"

// Tunable constants, part of the external contract (spec.md §6):
// changing any of these changes observable latency/result-count
// behavior under load, never correctness.
const (
	// kContextLines is the number of lines of context kept before and
	// after a matched line.
	kContextLines = 3
	// kMinSkip is the maximum byte gap between two candidates (or two
	// accepted chunk_files) that still get merged into one scan range.
	kMinSkip = 250
	// kMinFilterRatio bounds the filtered-walk candidate buffer
	// (chunk.size / kMinFilterRatio) and gates the "candidates too
	// dense" fallback to an unfiltered scan.
	kMinFilterRatio = 50
	// kMaxScan is the maximum byte window handed to the regex engine
	// in one call during range scanning.
	kMaxScan = 1 << 20
	// minSuffixesFloor is the §4.3 "100-suffix floor": once a filtered
	// walk's range drops to this size or smaller, stop descending the
	// IndexKey and just emit every offset in range.
	minSuffixesFloor = 100
	// fileFilterRatio is the unexplained §4.4 constant gating the
	// file-pattern-density fallback; spec.md's Open Questions call for
	// keeping it a literal tunable rather than deriving a rationale for
	// it.
	fileFilterRatio = 30
)

// Options configures one query, per spec.md §6.
type Options struct {
	// Pattern is the regex to search for. Required.
	Pattern string
	// FilePattern, if non-empty, restricts results to (ref, path) pairs
	// whose path matches this regex.
	FilePattern string

	// MaxMatches caps the number of distinct (path, line) matches
	// returned; 0 selects the default of 50.
	MaxMatches int
	// TimeoutSeconds bounds per-query wall-clock; 0 selects the
	// default of 1; <0 disables the timeout.
	TimeoutSeconds int
	// UseIndex disables the filtered path entirely when false: every
	// chunk scan uses the unfiltered scan of §4.5.
	UseIndex bool
	// PerformSearch, when false, still compiles the pattern and derives
	// the IndexKey, but scans no chunk and returns no results — an
	// index-testing mode.
	PerformSearch bool

	// FilesWithMatches restricts each path to at most one result,
	// discarding line detail, mirroring cserver.go's "-l" flag.
	FilesWithMatches bool
	// IgnoreCase lowers to a "(?i)" prefix on Pattern, mirroring
	// cserver.go's "-i" flag.
	IgnoreCase bool

	// RequestID correlates this query's log lines; if zero-value, a
	// fresh one is assigned by withDefaults.
	RequestID uuid.UUID
}

// DefaultMaxMatches and DefaultTimeoutSeconds are Options' zero-value
// defaults, applied by withDefaults when Coordinator.Run starts a query.
const (
	DefaultMaxMatches     = 50
	DefaultTimeoutSeconds = 1
)

func (o Options) withDefaults() Options {
	if o.MaxMatches == 0 {
		o.MaxMatches = DefaultMaxMatches
	}
	if o.TimeoutSeconds == 0 {
		o.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if o.RequestID == uuid.Nil {
		o.RequestID = uuid.New()
	}
	return o
}

// pattern returns the effective pattern text after IgnoreCase lowering.
func (o Options) pattern() string {
	if o.IgnoreCase {
		return "(?i)" + o.Pattern
	}
	return o.Pattern
}

// ExitReason is the termination cause surfaced on QueryResult, per
// spec.md §7.
type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitMatchLimit
	ExitTimeout
)

func (r ExitReason) String() string {
	switch r {
	case ExitMatchLimit:
		return "MatchLimit"
	case ExitTimeout:
		return "Timeout"
	default:
		return "None"
	}
}

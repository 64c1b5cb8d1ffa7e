package corpus

import "github.com/cespare/xxhash/v2"

// dedupEntry records where one already-ingested line's bytes live.
type dedupEntry struct {
	span Span
	len  int // length of the line content, excluding the trailing '\n'
}

// dedupTable is a content-keyed set of line spans: identical line bytes,
// regardless of which blob they came from, are stored exactly once and
// shared via Span, per spec.md §3's line dedup table.
type dedupTable struct {
	buckets map[uint64][]dedupEntry
}

func newDedupTable() *dedupTable {
	return &dedupTable{buckets: make(map[uint64][]dedupEntry)}
}

func hashLine(line []byte) uint64 {
	return xxhash.Sum64(line)
}

// lookup returns the span of a previously-ingested line with identical
// content, if any.
func (d *dedupTable) lookup(c *Corpus, line []byte) (Span, bool) {
	h := hashLine(line)
	for _, e := range d.buckets[h] {
		if e.len != len(line) {
			continue
		}
		existing := e.span.Bytes(c)[:e.len]
		if string(existing) == string(line) {
			return e.span, true
		}
	}
	return Span{}, false
}

// insert records a newly-ingested line's span under its content hash.
func (d *dedupTable) insert(line []byte, span Span) {
	h := hashLine(line)
	d.buckets[h] = append(d.buckets[h], dedupEntry{span: span, len: len(line)})
}

package corpus

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Corpus is the immutable-after-finalize collection of chunks, the
// dedup table, and the file table (spec.md §3). Ingestion mutates it;
// once Finalize returns, every method below is safe to call
// concurrently without synchronization.
type Corpus struct {
	alloc Allocator
	dedup *dedupTable

	files []*SearchFile
	byOID map[string]File

	finalized bool
}

// New returns an empty Corpus with no allocator set. SetAllocator must
// be called exactly once, before the first call to Ingest, per spec.md
// §6's set_allocator(alloc).
func New() *Corpus {
	return &Corpus{
		dedup: newDedupTable(),
		byOID: make(map[string]File),
	}
}

// SetAllocator installs the chunk allocator. It must be called exactly
// once, before any ingestion.
func (c *Corpus) SetAllocator(a Allocator) {
	if c.alloc != nil {
		panic("corpus: SetAllocator called more than once")
	}
	c.alloc = a
}

func (c *Corpus) chunk(id ChunkID) *Chunk {
	return c.alloc.Chunk(id)
}

// NumFiles returns the number of unique search files ingested.
func (c *Corpus) NumFiles() int { return len(c.files) }

// File returns the search_file with dense index no.
func (c *Corpus) File(no File) *SearchFile { return c.files[no] }

// Files returns every search_file, in ingestion order.
func (c *Corpus) Files() []*SearchFile { return c.files }

// Chunks returns every finalized chunk.
func (c *Corpus) Chunks() []*Chunk { return c.alloc.Chunks() }

// Finalized reports whether Finalize has run.
func (c *Corpus) Finalized() bool { return c.finalized }

// Ingest adds one blob's bytes under (ref, path), identified by a
// caller-provided content id (e.g. a VCS oid, opaque to the corpus).
// If id was ingested before, the new (ref, path) is attached to the
// existing search_file and no bytes are re-examined (spec.md §4.1: "If
// the blob's oid already exists, attach the new {ref, path} to the
// existing search_file and skip ingestion entirely").
//
// Ingest silently skips blobs containing a NUL byte (spec.md §4.1),
// returning ErrBinary so callers may log it if they wish; this is a
// non-fatal, expected condition, not a caller error.
func (c *Corpus) Ingest(id string, data []byte, ref Ref, path Path) error {
	if c.finalized {
		panic("corpus: Ingest called after Finalize")
	}
	if c.alloc == nil {
		panic("corpus: Ingest called before SetAllocator")
	}

	if existing, ok := c.byOID[id]; ok {
		c.files[existing].AddPath(ref, path)
		return nil
	}

	if bytes.IndexByte(data, 0) >= 0 {
		return ErrBinary
	}

	f := &SearchFile{
		OID:   OID(xxhash.Sum64String(id)),
		No:    File(len(c.files)),
		Paths: []PathRef{{Ref: ref, Path: path}},
	}

	touched := make(map[ChunkID]bool)
	for _, line := range splitLines(data) {
		span, hit := c.dedup.lookup(c, line)
		var chunkID ChunkID
		var offset, lineLen int
		if hit {
			chunkID, offset, lineLen = span.Chunk, span.Offset, span.Len-1
		} else {
			buf := make([]byte, len(line)+1)
			copy(buf, line)
			buf[len(line)] = '\n'
			newSpan := c.alloc.Append(buf)
			c.dedup.insert(line, newSpan)
			chunkID, offset, lineLen = newSpan.Chunk, newSpan.Offset, len(line)
		}

		c.chunk(chunkID).observeLine(f.No, offset, lineLen)
		touched[chunkID] = true

		if n := len(f.Content); n > 0 {
			last := &f.Content[n-1]
			if last.Chunk == chunkID && last.Offset+last.Len+1 == offset {
				last.Len = (offset + lineLen) - last.Offset
				f.lines[n-1]++
				continue
			}
		}
		f.Content = append(f.Content, Span{Chunk: chunkID, Offset: offset, Len: lineLen})
		f.lines = append(f.lines, 1)
	}

	// Close this file's open ChunkFile run in every chunk it touched
	// now, rather than leaving it for the next file's first observeLine
	// to notice via a file-id mismatch: otherwise a later file sharing a
	// dedup-identical prefix of lines, then diverging, would reopen a
	// run over bytes this file's still-open run already covers deeper
	// in the chunk, producing overlapping ChunkFiles.
	for chunkID := range touched {
		c.chunk(chunkID).closeOpen()
	}

	c.files = append(c.files, f)
	c.byOID[id] = f.No
	return nil
}

// Finalize seals the corpus: builds every chunk's suffix array and
// interval tree. All searches must occur strictly afterward, and no
// further ingestion is permitted.
func (c *Corpus) Finalize() {
	if c.finalized {
		panic("corpus: Finalize called twice")
	}
	if c.alloc == nil {
		panic("corpus: Finalize called before SetAllocator")
	}
	c.alloc.Finalize()
	c.finalized = true
}

// splitLines splits data on '\n', discarding a final unterminated
// remainder if present (DESIGN.md's Open Question decision: an
// unterminated final line is never ingested).
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	return lines
}

// ErrBinary is returned by Ingest for a blob containing a NUL byte.
var ErrBinary = fmt.Errorf("corpus: blob contains a NUL byte")

// ValidUTF8Line reports whether b is valid UTF-8, used at match time to
// silently skip lines that are not (spec.md §1, §4.6).
func ValidUTF8Line(b []byte) bool {
	return utf8.Valid(b)
}

// Repository is the abstract, content-addressed store the corpus's
// ingestion walks (spec.md §6). It is intentionally minimal: the core
// only needs to enumerate tree entries, read blob bytes, and resolve a
// ref to a root tree. Implementations adapt a real VCS (git, hg, a flat
// filesystem) to this shape; the corpus never talks to a VCS directly.
type Repository interface {
	// ResolveRef resolves a ref name to the id of its root tree.
	ResolveRef(ref string) (string, error)
	// Tree returns the entries of the tree with the given id.
	Tree(id string) ([]TreeEntry, error)
	// Blob returns the content of the blob with the given id.
	Blob(id string) ([]byte, error)
}

// TreeEntry is one entry of a tree: either a nested tree or a blob.
type TreeEntry struct {
	Name   string
	IsTree bool
	ID     string // child tree id, or blob id
}

// WalkRef ingests every blob reachable from ref. Top-level tree entries
// are walked in the order given by rootOrder; entries not named in
// rootOrder follow afterward in the tree's own order (SPEC_FULL.md §C.1,
// restoring the original engine's order_root behavior). Nested trees are
// always walked in the underlying tree's own order.
//
// Errors reading individual trees or blobs are collected and returned
// together at the end; WalkRef makes a best effort to ingest everything
// else.
func WalkRef(c *Corpus, repo Repository, ref string, rootOrder []string) error {
	rootID, err := repo.ResolveRef(ref)
	if err != nil {
		return fmt.Errorf("resolve ref %q: %w", ref, err)
	}
	entries, err := repo.Tree(rootID)
	if err != nil {
		return fmt.Errorf("read root tree of %q: %w", ref, err)
	}
	entries = orderRoots(entries, rootOrder)

	var errs []error
	var walk func(prefix string, entries []TreeEntry)
	walk = func(prefix string, entries []TreeEntry) {
		for _, e := range entries {
			p := e.Name
			if prefix != "" {
				p = prefix + "/" + e.Name
			}
			if e.IsTree {
				sub, err := repo.Tree(e.ID)
				if err != nil {
					errs = append(errs, fmt.Errorf("read tree %q: %w", p, err))
					continue
				}
				walk(p, sub)
				continue
			}
			data, err := repo.Blob(e.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("read blob %q: %w", p, err))
				continue
			}
			if err := c.Ingest(e.ID, data, Ref(ref), Path(p)); err != nil && err != ErrBinary {
				errs = append(errs, fmt.Errorf("ingest %q: %w", p, err))
			}
		}
	}
	walk("", entries)

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("walk_ref %q: %d error(s): %v", ref, len(errs), msgs)
}

// orderRoots reorders top-level entries so that names listed in
// rootOrder come first, in that order, followed by the remainder in
// their original relative order.
func orderRoots(entries []TreeEntry, rootOrder []string) []TreeEntry {
	if len(rootOrder) == 0 {
		return entries
	}
	rank := make(map[string]int, len(rootOrder))
	for i, name := range rootOrder {
		rank[name] = i
	}
	out := make([]TreeEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].Name]
		rj, jok := rank[out[j].Name]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return false
		}
	})
	return out
}

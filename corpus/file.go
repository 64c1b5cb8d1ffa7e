// Package corpus holds the in-memory representation of an ingested set of
// source files: deduplicated line bytes packed into chunks, the file table
// that maps content back to (ref, path) pairs, and the finalize step that
// builds each chunk's suffix array and interval tree.
package corpus

import "bytes"

// Ref names a version-controlled snapshot a file was discovered under
// (e.g. a branch tip). It is opaque to the corpus.
type Ref string

// Path is a file path within a ref, exactly as reported by the
// Repository the file was walked from.
type Path string

// PathRef is one (ref, path) pair a search_file appears under.
type PathRef struct {
	Ref  Ref
	Path Path
}

// OID is the content hash of a blob, used to deduplicate identical blobs
// discovered under multiple refs or paths.
type OID uint64

// Span is a byte range [ChunkID, Offset, Offset+Len) inside one chunk's
// buffer. Spans never span multiple chunks: a span is a non-owning view
// bounded by the corpus's lifetime, per SPEC_FULL.md's note on modeling
// shared ownership without lifetimes.
type Span struct {
	Chunk  ChunkID
	Offset int
	Len    int
}

// Bytes resolves the span against its owning corpus.
func (s Span) Bytes(c *Corpus) []byte {
	ch := c.chunk(s.Chunk)
	return ch.data[s.Offset : s.Offset+s.Len]
}

// File is the dense, zero-based index of a search_file in the corpus's
// file table.
type File int

// SearchFile is the canonical record for one unique blob: its content
// hash, the (ref, path) pairs it is known under, and its content as an
// ordered list of spans that together reproduce the blob's bytes, one
// line at a time, with adjacent lines merged into a single span whenever
// they landed contiguously in the same chunk.
type SearchFile struct {
	OID   OID
	No    File
	Paths []PathRef

	// Content is the ordered list of spans reconstructing the blob.
	// Consecutive spans are logically separated by '\n' the way the
	// original lines were; within one span there is no gap.
	Content []Span

	// lines counts spans' worth of newline-delimited lines, used to
	// translate a Span back into a 1-based line number without
	// rescanning bytes (see (*SearchFile).Locate).
	lines []int // lines[i] = number of lines contained in Content[i]
}

// AddPath appends a (ref, path) this blob is also known under. Callers
// must not add a duplicate (ref, path) pair.
func (f *SearchFile) AddPath(ref Ref, path Path) {
	f.Paths = append(f.Paths, PathRef{Ref: ref, Path: path})
}

// totalLines returns the number of lines across all of f's content spans.
func (f *SearchFile) totalLines() int {
	n := 0
	for _, l := range f.lines {
		n += l
	}
	return n
}

// Locate confirms whether the line beginning at byte offset lineOffset
// inside chunk chunkID belongs to f — i.e. some content span of f covers
// that offset — and if so returns the containing span's index and the
// line's 1-based line number within f (§4.8's "confirming a match in a
// file"). The chunk merely told us some file touches these bytes;
// dedup means it might not be f, in which case ok is false and the
// caller must drop the match silently.
func (f *SearchFile) Locate(c *Corpus, chunkID ChunkID, lineOffset int) (spanIdx, lineNumber int, ok bool) {
	seen := 0
	for i, sp := range f.Content {
		if sp.Chunk == chunkID && lineOffset >= sp.Offset && lineOffset < sp.Offset+sp.Len {
			rel := lineOffset - sp.Offset
			data := sp.Bytes(c)
			return i, seen + countNL(data[:rel]) + 1, true
		}
		seen += f.lines[i]
	}
	return 0, 0, false
}

// LineSpan returns the byte span of the line starting at lineOffset
// within content span spanIdx (lineOffset must be a valid line start
// inside that span, e.g. as returned by Locate).
func (f *SearchFile) LineSpan(c *Corpus, spanIdx, lineOffset int) Span {
	sp := f.Content[spanIdx]
	data := sp.Bytes(c)
	rel := lineOffset - sp.Offset
	end := len(data)
	if i := bytes.IndexByte(data[rel:], '\n'); i >= 0 {
		end = rel + i
	}
	return Span{Chunk: sp.Chunk, Offset: lineOffset, Len: end - rel}
}

// PrevLine returns the line immediately preceding the one starting at
// lineOffset within content span spanIdx, crossing into the previous
// content span when lineOffset is the first line of spanIdx. ok is
// false when lineOffset is the first line of the file.
func (f *SearchFile) PrevLine(c *Corpus, spanIdx, lineOffset int) (line Span, prevSpanIdx, prevLineOffset int, ok bool) {
	sp := f.Content[spanIdx]
	rel := lineOffset - sp.Offset
	if rel == 0 {
		if spanIdx == 0 {
			return Span{}, 0, 0, false
		}
		prevSpanIdx = spanIdx - 1
		prevSp := f.Content[prevSpanIdx]
		data := prevSp.Bytes(c)
		start := 0
		if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
			start = i + 1
		}
		prevLineOffset = prevSp.Offset + start
		return Span{Chunk: prevSp.Chunk, Offset: prevLineOffset, Len: len(data) - start}, prevSpanIdx, prevLineOffset, true
	}
	data := sp.Bytes(c)
	// data[rel-1] is the '\n' separating the previous line from this one.
	start := 0
	if i := bytes.LastIndexByte(data[:rel-1], '\n'); i >= 0 {
		start = i + 1
	}
	prevLineOffset = sp.Offset + start
	return Span{Chunk: sp.Chunk, Offset: prevLineOffset, Len: (rel - 1) - start}, spanIdx, prevLineOffset, true
}

// NextLine returns the line immediately following the one starting at
// lineOffset within content span spanIdx, crossing into the next content
// span when the current line is the last one of spanIdx. ok is false
// when lineOffset's line is the last line of the file.
func (f *SearchFile) NextLine(c *Corpus, spanIdx, lineOffset int) (line Span, nextSpanIdx, nextLineOffset int, ok bool) {
	sp := f.Content[spanIdx]
	data := sp.Bytes(c)
	rel := lineOffset - sp.Offset
	i := bytes.IndexByte(data[rel:], '\n')
	if i < 0 {
		// lineOffset's line is the last line of this span.
		if spanIdx+1 >= len(f.Content) {
			return Span{}, 0, 0, false
		}
		nextSpanIdx = spanIdx + 1
		nextSp := f.Content[nextSpanIdx]
		nextData := nextSp.Bytes(c)
		end := len(nextData)
		if j := bytes.IndexByte(nextData, '\n'); j >= 0 {
			end = j
		}
		return Span{Chunk: nextSp.Chunk, Offset: nextSp.Offset, Len: end}, nextSpanIdx, nextSp.Offset, true
	}
	nextLineOffset = lineOffset + i + 1
	end := len(data)
	if j := bytes.IndexByte(data[rel+i+1:], '\n'); j >= 0 {
		end = rel + i + 1 + j
	}
	return Span{Chunk: sp.Chunk, Offset: nextLineOffset, Len: end - (rel + i + 1)}, spanIdx, nextLineOffset, true
}

func countNL(b []byte) int {
	n := 0
	for {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			return n
		}
		n++
		b = b[i+1:]
	}
}

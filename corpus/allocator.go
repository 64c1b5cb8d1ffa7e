package corpus

// DefaultChunkSize is the byte capacity of a chunk when no allocator is
// supplied explicitly. It is a tuning knob, not part of the wire
// contract (unlike the constants in search.Options).
const DefaultChunkSize = 4 << 20

// Allocator is the interface the search core consumes from the chunk
// allocator (spec.md §1, §6, §9: the allocator's byte-arena internals are
// an external collaborator; only this interface is in scope here).
// Implementations own a sequence of fixed-capacity chunks and hand out
// append-only byte spans from the current chunk, rolling over to a new
// chunk when the current one is full.
type Allocator interface {
	// Append copies line into the current chunk (opening a new one if
	// the current chunk lacks room), returning the span it now occupies.
	// line must fit within a single chunk's capacity.
	Append(line []byte) Span

	// CurrentChunk returns the chunk Append is currently writing into.
	CurrentChunk() *Chunk

	// ChunkSize returns the capacity chunks are allocated with.
	ChunkSize() int

	// Chunks returns every chunk created so far, in allocation order.
	Chunks() []*Chunk

	// Chunk returns the chunk with the given id.
	Chunk(id ChunkID) *Chunk

	// Finalize seals every chunk: closes open ChunkFiles, builds the
	// suffix array, and builds the interval tree. Idempotent per chunk.
	Finalize()
}

// arenaAllocator is the default in-process Allocator: a simple sequence
// of Go byte slices, one per chunk.
type arenaAllocator struct {
	chunkSize int
	chunks    []*Chunk
}

// NewAllocator returns the default Allocator, packing lines into chunks
// of the given capacity.
func NewAllocator(chunkSize int) Allocator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &arenaAllocator{chunkSize: chunkSize}
	a.chunks = append(a.chunks, newChunk(0, chunkSize))
	return a
}

func (a *arenaAllocator) ChunkSize() int { return a.chunkSize }

func (a *arenaAllocator) CurrentChunk() *Chunk { return a.chunks[len(a.chunks)-1] }

func (a *arenaAllocator) Chunks() []*Chunk { return a.chunks }

func (a *arenaAllocator) Chunk(id ChunkID) *Chunk { return a.chunks[id] }

func (a *arenaAllocator) Finalize() {
	for _, c := range a.chunks {
		c.finalize()
	}
}

func (a *arenaAllocator) Append(line []byte) Span {
	if len(line) > a.chunkSize {
		panic("corpus: line exceeds chunk capacity")
	}
	cur := a.CurrentChunk()
	if cur.remaining() < len(line) {
		cur = newChunk(ChunkID(len(a.chunks)), a.chunkSize)
		a.chunks = append(a.chunks, cur)
	}
	off := cur.append(line)
	return Span{Chunk: cur.id, Offset: off, Len: len(line)}
}

package bridge

import "io"

// ownState tracks who is responsible for invoking a descriptor's release
// callback. A handle starts as the owner; ownership moves exactly once.
type ownState uint8

const (
	stateOwned ownState = iota
	stateMoved
	stateReleased
)

// SchemaHandle is a single-owner wrapper around an exported ArrowSchema
// descriptor. On construction the handle is responsible for invoking the
// descriptor's release callback. TakeOwnership moves that responsibility to
// the caller and marks the handle consumed; a second TakeOwnership fails
// loudly instead of risking a double release.
type SchemaHandle struct {
	raw   *ArrowSchema
	state ownState
}

// NewSchemaHandle wraps a freshly exported schema descriptor.
func NewSchemaHandle(raw *ArrowSchema) *SchemaHandle {
	return &SchemaHandle{raw: raw}
}

// TakeOwnership returns the raw descriptor and moves the release
// responsibility to the caller.
func (h *SchemaHandle) TakeOwnership() (*ArrowSchema, error) {
	switch h.state {
	case stateMoved:
		return nil, ErrOwnershipTaken
	case stateReleased:
		return nil, ErrDescriptorReleased
	}
	h.state = stateMoved
	return h.raw, nil
}

// Release invokes the release callback if the handle still owns the
// descriptor. Safe to call more than once; only the first call releases.
func (h *SchemaHandle) Release() {
	if h.state != stateOwned {
		return
	}
	h.state = stateReleased
	ReleaseArrowSchema(h.raw)
}

// Consumed reports whether ownership has moved or the descriptor was released.
func (h *SchemaHandle) Consumed() bool { return h.state != stateOwned }

// ArrayHandle is the single-owner wrapper for an ArrowArray descriptor.
// Same contract as SchemaHandle.
type ArrayHandle struct {
	raw   *ArrowArray
	state ownState
}

// NewArrayHandle wraps a freshly exported array descriptor.
func NewArrayHandle(raw *ArrowArray) *ArrayHandle {
	return &ArrayHandle{raw: raw}
}

// TakeOwnership returns the raw descriptor and moves the release
// responsibility to the caller.
func (h *ArrayHandle) TakeOwnership() (*ArrowArray, error) {
	switch h.state {
	case stateMoved:
		return nil, ErrOwnershipTaken
	case stateReleased:
		return nil, ErrDescriptorReleased
	}
	h.state = stateMoved
	return h.raw, nil
}

// Release invokes the release callback if the handle still owns the descriptor.
func (h *ArrayHandle) Release() {
	if h.state != stateOwned {
		return
	}
	h.state = stateReleased
	ReleaseArrowArray(h.raw)
}

// Consumed reports whether ownership has moved or the descriptor was released.
func (h *ArrayHandle) Consumed() bool { return h.state != stateOwned }

// Length returns the row count of the wrapped array descriptor.
func (h *ArrayHandle) Length() int64 { return ArrayLength(h.raw) }

// Chunk is one exported result batch: a schema descriptor plus the array
// descriptor holding the batch's buffers. Both sides move together.
type Chunk struct {
	Schema *SchemaHandle
	Array  *ArrayHandle
}

// NewChunk wraps a freshly exported descriptor pair.
func NewChunk(schema *ArrowSchema, array *ArrowArray) *Chunk {
	return &Chunk{
		Schema: NewSchemaHandle(schema),
		Array:  NewArrayHandle(array),
	}
}

// Take moves ownership of both descriptors to the caller. The pair moves
// atomically: if either side has already been consumed, neither is taken.
func (c *Chunk) Take() (*ArrowSchema, *ArrowArray, error) {
	if c.Schema.Consumed() || c.Array.Consumed() {
		if c.Schema.state == stateReleased || c.Array.state == stateReleased {
			return nil, nil, ErrDescriptorReleased
		}
		return nil, nil, ErrOwnershipTaken
	}
	schema, err := c.Schema.TakeOwnership()
	if err != nil {
		return nil, nil, err
	}
	array, err := c.Array.TakeOwnership()
	if err != nil {
		return nil, nil, err
	}
	return schema, array, nil
}

// Release releases whichever descriptors the chunk still owns.
func (c *Chunk) Release() {
	c.Schema.Release()
	c.Array.Release()
}

// NumRows returns the row count of the chunk.
func (c *Chunk) NumRows() int64 { return c.Array.Length() }

// ChunkStream is the producer side of the interchange: a lazy, finite,
// non-restartable sequence of exported chunks. Next returns io.EOF when the
// sequence is exhausted. Ownership of each emitted chunk moves to the caller
// on emission; the caller must either hand it to an importer or release it.
//
// Schema exports a standalone schema descriptor so an importer can build an
// empty table when the stream has no chunks. The returned handle is owned by
// the caller.
type ChunkStream interface {
	Schema() (*SchemaHandle, error)
	Next() (*Chunk, error)
}

// ChunkSlice is an in-memory ChunkStream over already exported descriptor
// pairs, with a separately exported schema descriptor. Used by tests and by
// callers that materialize chunks before importing.
type ChunkSlice struct {
	schema *SchemaHandle
	chunks []*Chunk
	pos    int
}

// NewChunkSlice builds a ChunkStream from an exported schema descriptor and
// a list of chunks. The slice takes ownership of the handles passed in.
func NewChunkSlice(schema *SchemaHandle, chunks []*Chunk) *ChunkSlice {
	return &ChunkSlice{schema: schema, chunks: chunks}
}

// Schema returns the stream-level schema descriptor handle.
func (s *ChunkSlice) Schema() (*SchemaHandle, error) {
	return s.schema, nil
}

// Next emits the next chunk, or io.EOF.
func (s *ChunkSlice) Next() (*Chunk, error) {
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

// Release releases every descriptor the stream still owns. Chunks already
// emitted and taken by an importer are not touched.
func (s *ChunkSlice) Release() {
	s.schema.Release()
	for _, c := range s.chunks {
		c.Release()
	}
}

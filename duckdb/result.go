package duckdb

import (
	"io"

	"github.com/duckdb-polars-bridge/bridge"
)

// ArrowResult is a materialized query result held by the engine. Its chunks
// can be exported exactly once, as a lazy sequence of Arrow C Data Interface
// descriptor pairs.
type ArrowResult struct {
	eng       *Engine
	result    uintptr
	exported  bool
	destroyed bool
}

// RowCount returns the total number of rows in the result.
func (r *ArrowResult) RowCount() uint64 {
	if r.destroyed {
		return 0
	}
	return r.eng.resultRowCount(r.result)
}

// ColumnCount returns the number of columns in the result.
func (r *ArrowResult) ColumnCount() uint64 {
	if r.destroyed {
		return 0
	}
	return r.eng.resultColumnCount(r.result)
}

// Export returns the one-shot chunk stream for this result. A second call,
// or a call after Destroy, fails with ErrResultConsumed: the engine emits
// each chunk's descriptors once and ownership moves on emission.
func (r *ArrowResult) Export() (*ResultStream, error) {
	if r.exported || r.destroyed {
		return nil, bridge.ErrResultConsumed
	}
	r.exported = true
	return &ResultStream{res: r}, nil
}

// Destroy releases the engine-side result. Descriptors already exported are
// unaffected; their buffers belong to whoever took ownership of them.
func (r *ArrowResult) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.eng.destroyResult(&r.result)
}

// ResultStream walks an ArrowResult chunk by chunk. It implements
// bridge.ChunkStream. The sequence is finite (bounded by the result's row
// count) and not restartable.
type ResultStream struct {
	res     *ArrowResult
	fetched uint64
}

// Schema exports a standalone schema descriptor for the result. Each call
// exports a fresh descriptor owned by the caller.
func (s *ResultStream) Schema() (*bridge.SchemaHandle, error) {
	if s.res.destroyed {
		return nil, bridge.ErrResultConsumed
	}
	schema := new(bridge.ArrowSchema)
	if err := s.res.eng.exportSchema(s.res.result, schema); err != nil {
		return nil, err
	}
	return bridge.NewSchemaHandle(schema), nil
}

// Next exports the next chunk as an owning descriptor-pair handle, or
// io.EOF once all rows have been emitted. On an engine error the export
// aborts: descriptors already emitted belong to their takers, nothing new
// is leaked here because a failed export call populates no descriptor.
func (s *ResultStream) Next() (*bridge.Chunk, error) {
	if s.res.destroyed {
		return nil, bridge.ErrResultConsumed
	}
	if s.fetched >= s.res.RowCount() {
		return nil, io.EOF
	}

	schema := new(bridge.ArrowSchema)
	if err := s.res.eng.exportSchema(s.res.result, schema); err != nil {
		return nil, err
	}
	array := new(bridge.ArrowArray)
	if err := s.res.eng.exportArray(s.res.result, array); err != nil {
		bridge.ReleaseArrowSchema(schema)
		return nil, err
	}

	chunk := bridge.NewChunk(schema, array)
	n := chunk.NumRows()
	if n == 0 {
		// The engine can hand back an empty terminal chunk; treat it as
		// end of stream rather than emitting a zero-row pair.
		chunk.Release()
		return nil, io.EOF
	}
	s.fetched += uint64(n)
	return chunk, nil
}

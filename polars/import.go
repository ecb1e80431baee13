package polars

import (
	"errors"
	"io"

	"github.com/duckdb-polars-bridge/bridge"
)

// FromArrowStream drains a ChunkStream into a Polars DataFrame via the
// Arrow C Data Interface, attaching to the exported buffers without copying
// values.
//
// Ownership discipline per chunk: Take moves both descriptors to this
// importer; a successful engine call moves them on to Rust (which nulls
// their release members and becomes responsible for the buffers); a failed
// engine call leaves them with the importer, which releases them before the
// error surfaces. Descriptors never emitted by the stream are untouched.
//
// A stream with no chunks yields an empty DataFrame built from the
// stream-level schema descriptor.
func FromArrowStream(brg *bridge.Bridge, stream bridge.ChunkStream) (*DataFrame, error) {
	if !bridge.CDataSupported() {
		return nil, &bridge.ImportError{Msg: "zero-copy import requires cgo (set CGO_ENABLED=1)"}
	}

	var handle uint64
	fail := func(err error) (*DataFrame, error) {
		if handle != 0 {
			// Chunks already imported were moved into the partial frame;
			// freeing it releases their buffers exactly once.
			brg.FreeDataFrame(handle)
		}
		return nil, err
	}

	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(err)
		}

		schema, array, err := chunk.Take()
		if err != nil {
			return fail(&bridge.ImportError{Msg: "chunk descriptors", Err: err})
		}

		if handle == 0 {
			handle, err = brg.DataFrameFromArrow(schema, array)
		} else {
			err = brg.DataFrameVstackArrow(handle, schema, array)
		}
		if err != nil {
			// The engine did not consume the pair; we own it and must
			// release it. Release is a no-op for a moved descriptor.
			bridge.ReleaseArrowSchema(schema)
			bridge.ReleaseArrowArray(array)
			return fail(&bridge.ImportError{Msg: "engine rejected chunk", Err: err})
		}
	}

	if handle == 0 {
		sh, err := stream.Schema()
		if err != nil {
			return nil, err
		}
		schema, err := sh.TakeOwnership()
		if err != nil {
			return nil, &bridge.ImportError{Msg: "schema descriptor", Err: err}
		}
		handle, err = brg.DataFrameEmptyFromSchema(schema)
		if err != nil {
			bridge.ReleaseArrowSchema(schema)
			return nil, &bridge.ImportError{Msg: "engine rejected schema", Err: err}
		}
	}

	return newDataFrame(handle, brg), nil
}

//go:build cgo
// +build cgo

package bridge

import (
	"errors"
	"io"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/cdata"
)

// ImportSchema consumes a schema descriptor handle and imports it as an
// arrow.Schema. The descriptor is released before returning.
func ImportSchema(h *SchemaHandle) (*arrow.Schema, error) {
	raw, err := h.TakeOwnership()
	if err != nil {
		return nil, &ImportError{Msg: "schema descriptor", Err: err}
	}
	// cdata.ImportCArrowSchema only reads the descriptor; releasing stays
	// our responsibility. A moved descriptor has a NULL release member, so
	// the deferred call can never double-release.
	defer ReleaseArrowSchema(raw)

	schema, err := cdata.ImportCArrowSchema((*cdata.CArrowSchema)(unsafe.Pointer(raw)))
	if err != nil {
		return nil, &ImportError{Msg: "unsupported or malformed schema", Err: err}
	}
	return schema, nil
}

// ImportRecord consumes one chunk and attaches its buffers to a native
// record batch without copying values. On success the returned batch owns
// the buffers; releasing the batch invokes the original release callbacks.
// On failure the chunk's descriptors are released here.
func ImportRecord(chunk *Chunk) (arrow.RecordBatch, error) {
	rawSchema, rawArray, err := chunk.Take()
	if err != nil {
		return nil, &ImportError{Msg: "chunk descriptors", Err: err}
	}
	// ImportCRecordBatch moves both descriptors on success (their release
	// members are nulled), so these run only on the failure paths.
	defer ReleaseArrowSchema(rawSchema)
	defer ReleaseArrowArray(rawArray)

	rec, err := cdata.ImportCRecordBatch(
		(*cdata.CArrowArray)(unsafe.Pointer(rawArray)),
		(*cdata.CArrowSchema)(unsafe.Pointer(rawSchema)),
	)
	if err != nil {
		return nil, &ImportError{Msg: "unsupported or malformed chunk", Err: err}
	}
	return rec, nil
}

// ImportTable drains a ChunkStream into a native arrow.Table, attaching to
// the exported buffers without copying values. Every chunk's schema must
// match the first chunk's; a mismatch fails the import. On any failure, all
// descriptors this function took ownership of are released before the error
// surfaces; chunks never emitted by the stream stay with the producer.
//
// A stream with no chunks yields a valid empty table built from the
// stream-level schema descriptor.
func ImportTable(stream ChunkStream) (arrow.Table, error) {
	var (
		schema  *arrow.Schema
		records []arrow.RecordBatch
	)
	releaseAll := func() {
		for _, rec := range records {
			rec.Release()
		}
	}

	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			releaseAll()
			return nil, err
		}

		rec, err := ImportRecord(chunk)
		if err != nil {
			releaseAll()
			return nil, err
		}
		if schema == nil {
			schema = rec.Schema()
		} else if !schema.Equal(rec.Schema()) {
			rec.Release()
			releaseAll()
			return nil, &ImportError{Msg: "schema mismatch between chunks"}
		}
		records = append(records, rec)
	}

	if schema == nil {
		sh, err := stream.Schema()
		if err != nil {
			return nil, err
		}
		schema, err = ImportSchema(sh)
		if err != nil {
			return nil, err
		}
	}

	table := array.NewTableFromRecords(schema, records)
	// The table retained the record columns; drop our references.
	releaseAll()
	return table, nil
}

//go:build !cgo
// +build !cgo

package bridge

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ImportSchema requires cgo.
func ImportSchema(_ *SchemaHandle) (*arrow.Schema, error) {
	return nil, fmt.Errorf("arrow import requires cgo (set CGO_ENABLED=1)")
}

// ImportRecord requires cgo.
func ImportRecord(_ *Chunk) (arrow.RecordBatch, error) {
	return nil, fmt.Errorf("arrow import requires cgo (set CGO_ENABLED=1)")
}

// ImportTable requires cgo.
func ImportTable(_ ChunkStream) (arrow.Table, error) {
	return nil, fmt.Errorf("arrow import requires cgo (set CGO_ENABLED=1)")
}

//go:build !cgo
// +build !cgo

package bridge

const cgoEnabled = false

// ArrowSchema represents Arrow schema in C (cgo disabled placeholder).
type ArrowSchema struct{}

// ArrowArray represents Arrow array data in C (cgo disabled placeholder).
type ArrowArray struct{}

// CDataSupported reports whether the Arrow C Data Interface path is available.
func CDataSupported() bool { return false }

// ReleaseArrowSchema is a no-op when cgo is disabled.
func ReleaseArrowSchema(_ *ArrowSchema) {}

// ReleaseArrowArray is a no-op when cgo is disabled.
func ReleaseArrowArray(_ *ArrowArray) {}

// SchemaReleased always reports true when cgo is disabled.
func SchemaReleased(_ *ArrowSchema) bool { return true }

// ArrayReleased always reports true when cgo is disabled.
func ArrayReleased(_ *ArrowArray) bool { return true }

// ArrayLength returns 0 when cgo is disabled.
func ArrayLength(_ *ArrowArray) int64 { return 0 }

// ArrayNullCount returns 0 when cgo is disabled.
func ArrayNullCount(_ *ArrowArray) int64 { return 0 }

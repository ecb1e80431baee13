//go:build cgo && !windows
// +build cgo,!windows

package bridge

import (
	"testing"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/stretchr/testify/require"
)

// Byte offsets of the release member in the ABI-fixed descriptor layouts
// (64-bit: format/name/metadata + flags + n_children + children + dictionary
// precede it in ArrowSchema; five int64 fields + three pointers in ArrowArray).
const (
	schemaReleaseOffset = 56
	arrayReleaseOffset  = 64
)

// newCountingSchema fabricates a schema descriptor whose release callback
// increments a counter and, per the C Data Interface spec, marks the
// descriptor released by nulling its own release member.
func newCountingSchema(count *int) *ArrowSchema {
	s := new(ArrowSchema)
	cb := purego.NewCallback(func(ptr uintptr) uintptr {
		*count++
		*(*uintptr)(unsafe.Pointer(ptr + schemaReleaseOffset)) = 0
		return 0
	})
	*(*uintptr)(unsafe.Add(unsafe.Pointer(s), schemaReleaseOffset)) = cb
	return s
}

func newCountingArray(count *int) *ArrowArray {
	a := new(ArrowArray)
	cb := purego.NewCallback(func(ptr uintptr) uintptr {
		*count++
		*(*uintptr)(unsafe.Pointer(ptr + arrayReleaseOffset)) = 0
		return 0
	})
	*(*uintptr)(unsafe.Add(unsafe.Pointer(a), arrayReleaseOffset)) = cb
	return a
}

func TestReleaseArrowSchemaExactlyOnce(t *testing.T) {
	var released int
	s := newCountingSchema(&released)

	require.False(t, SchemaReleased(s))
	ReleaseArrowSchema(s)
	require.Equal(t, 1, released)
	require.True(t, SchemaReleased(s))

	// The callback nulled the release member; a second call is a no-op.
	ReleaseArrowSchema(s)
	require.Equal(t, 1, released)
}

func TestReleaseArrowArrayExactlyOnce(t *testing.T) {
	var released int
	a := newCountingArray(&released)

	ReleaseArrowArray(a)
	ReleaseArrowArray(a)
	require.Equal(t, 1, released)
	require.True(t, ArrayReleased(a))
}

func TestHandleReleasesExactlyOnce(t *testing.T) {
	var released int
	h := NewSchemaHandle(newCountingSchema(&released))

	h.Release()
	h.Release()
	require.Equal(t, 1, released)
}

func TestMovedHandleNeverReleases(t *testing.T) {
	var released int
	h := NewSchemaHandle(newCountingSchema(&released))

	raw, err := h.TakeOwnership()
	require.NoError(t, err)

	// The handle moved ownership out; its Release must not fire the callback.
	h.Release()
	require.Equal(t, 0, released)

	// The new owner releases exactly once.
	ReleaseArrowSchema(raw)
	require.Equal(t, 1, released)
}

func TestChunkReleaseCoversBothDescriptors(t *testing.T) {
	var schemaReleased, arrayReleased int
	c := NewChunk(newCountingSchema(&schemaReleased), newCountingArray(&arrayReleased))

	c.Release()
	c.Release()
	require.Equal(t, 1, schemaReleased)
	require.Equal(t, 1, arrayReleased)
}

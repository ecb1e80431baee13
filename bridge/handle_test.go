package bridge

import (
	"errors"
	"io"
	"testing"
)

func TestSchemaHandleSingleOwner(t *testing.T) {
	h := NewSchemaHandle(new(ArrowSchema))

	if h.Consumed() {
		t.Fatal("fresh handle must not be consumed")
	}

	if _, err := h.TakeOwnership(); err != nil {
		t.Fatalf("first TakeOwnership failed: %v", err)
	}
	if !h.Consumed() {
		t.Fatal("handle must be consumed after TakeOwnership")
	}

	if _, err := h.TakeOwnership(); !errors.Is(err, ErrOwnershipTaken) {
		t.Fatalf("second TakeOwnership: expected ErrOwnershipTaken, got %v", err)
	}
}

func TestSchemaHandleTakeAfterRelease(t *testing.T) {
	h := NewSchemaHandle(new(ArrowSchema))
	h.Release()

	if _, err := h.TakeOwnership(); !errors.Is(err, ErrDescriptorReleased) {
		t.Fatalf("expected ErrDescriptorReleased, got %v", err)
	}

	// Release after release stays a no-op.
	h.Release()
}

func TestArrayHandleSingleOwner(t *testing.T) {
	h := NewArrayHandle(new(ArrowArray))

	if _, err := h.TakeOwnership(); err != nil {
		t.Fatalf("first TakeOwnership failed: %v", err)
	}
	if _, err := h.TakeOwnership(); !errors.Is(err, ErrOwnershipTaken) {
		t.Fatalf("second TakeOwnership: expected ErrOwnershipTaken, got %v", err)
	}

	// Release after the move must not touch the descriptor.
	h.Release()
}

func TestChunkTakeIsAtomic(t *testing.T) {
	c := NewChunk(new(ArrowSchema), new(ArrowArray))

	// Consume the schema side out from under the chunk.
	if _, err := c.Schema.TakeOwnership(); err != nil {
		t.Fatalf("TakeOwnership failed: %v", err)
	}

	if _, _, err := c.Take(); !errors.Is(err, ErrOwnershipTaken) {
		t.Fatalf("expected ErrOwnershipTaken, got %v", err)
	}
	if c.Array.Consumed() {
		t.Fatal("array side must stay owned when the pair cannot move together")
	}
}

func TestChunkSliceStream(t *testing.T) {
	chunks := []*Chunk{
		NewChunk(new(ArrowSchema), new(ArrowArray)),
		NewChunk(new(ArrowSchema), new(ArrowArray)),
	}
	stream := NewChunkSlice(NewSchemaHandle(new(ArrowSchema)), chunks)

	for i := 0; i < len(chunks); i++ {
		c, err := stream.Next()
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		if c != chunks[i] {
			t.Fatalf("chunk %d: wrong chunk emitted", i)
		}
	}

	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	// The sequence is not restartable.
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on repeat, got %v", err)
	}
}

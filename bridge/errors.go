package bridge

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码（与 Rust 引擎共享）
type ErrorCode int32

const (
	ErrOK              ErrorCode = 0
	ErrUnknown         ErrorCode = 1
	ErrInvalidArgument ErrorCode = 2
	ErrAbiMismatch     ErrorCode = 3
	ErrArrowImport     ErrorCode = 4
	ErrArrowExport     ErrorCode = 5
	ErrSchemaMismatch  ErrorCode = 6
	ErrExecution       ErrorCode = 7
	ErrUnsupported     ErrorCode = 8
	ErrOom             ErrorCode = 9
)

// Ownership sentinels for the single-owner descriptor handles.
var (
	// ErrOwnershipTaken is returned when ownership of a descriptor is
	// requested a second time.
	ErrOwnershipTaken = errors.New("descriptor ownership already taken")

	// ErrDescriptorReleased is returned when ownership of an already
	// released descriptor is requested.
	ErrDescriptorReleased = errors.New("descriptor already released")

	// ErrResultConsumed is returned when a query result is exported a
	// second time or after it has been destroyed.
	ErrResultConsumed = errors.New("query result already exported or destroyed")
)

// ExportError reports a failure on the producer side of the interchange:
// the query engine could not export a schema or array descriptor.
type ExportError struct {
	Msg string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("arrow export: %s", e.Msg)
}

// ImportError reports a failure on the consumer side of the interchange:
// a malformed descriptor, an unsupported logical type, or a schema mismatch
// between successive chunks.
type ImportError struct {
	Msg string
	Err error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("arrow import: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("arrow import: %s", e.Msg)
}

func (e *ImportError) Unwrap() error { return e.Err }

package bridge

// Arrow C Data Interface structures
// https://arrow.apache.org/docs/format/CDataInterface.html

/*
#include <stdint.h>

// ArrowSchema describes the type and metadata of an Arrow array
struct ArrowSchema {
    const char* format;
    const char* name;
    const char* metadata;
    int64_t flags;
    int64_t n_children;
    struct ArrowSchema** children;
    struct ArrowSchema* dictionary;
    void (*release)(struct ArrowSchema*);
    void* private_data;
};

// ArrowArray contains the data buffers and child arrays
struct ArrowArray {
    int64_t length;
    int64_t null_count;
    int64_t offset;
    int64_t n_buffers;
    int64_t n_children;
    const void** buffers;
    struct ArrowArray** children;
    struct ArrowArray* dictionary;
    void (*release)(struct ArrowArray*);
    void* private_data;
};

// Helper functions to call release callbacks
void bridge_call_arrow_schema_release(struct ArrowSchema* schema) {
    if (schema->release) {
        schema->release(schema);
    }
}

void bridge_call_arrow_array_release(struct ArrowArray* array) {
    if (array->release) {
        array->release(array);
    }
}
*/
import "C"
import "unsafe"

const cgoEnabled = true

// ArrowSchema represents Arrow schema in C
type ArrowSchema C.struct_ArrowSchema

// ArrowArray represents Arrow array data in C
type ArrowArray C.struct_ArrowArray

// CDataSupported reports whether the Arrow C Data Interface path is
// available in this build. It is false when cgo is disabled.
func CDataSupported() bool {
	return cgoEnabled
}

// ReleaseArrowSchema calls the release callback if set
func ReleaseArrowSchema(schema *ArrowSchema) {
	cSchema := (*C.struct_ArrowSchema)(unsafe.Pointer(schema))
	if cSchema.release != nil {
		C.bridge_call_arrow_schema_release(cSchema)
	}
}

// ReleaseArrowArray calls the release callback if set
func ReleaseArrowArray(array *ArrowArray) {
	cArray := (*C.struct_ArrowArray)(unsafe.Pointer(array))
	if cArray.release != nil {
		C.bridge_call_arrow_array_release(cArray)
	}
}

// SchemaReleased reports whether the schema's release callback has been
// invoked. A released descriptor has a NULL release member per the
// C Data Interface contract.
func SchemaReleased(schema *ArrowSchema) bool {
	return (*C.struct_ArrowSchema)(unsafe.Pointer(schema)).release == nil
}

// ArrayReleased reports whether the array's release callback has been invoked.
func ArrayReleased(array *ArrowArray) bool {
	return (*C.struct_ArrowArray)(unsafe.Pointer(array)).release == nil
}

// ArrayLength returns the row count of the exported array.
func ArrayLength(array *ArrowArray) int64 {
	return int64((*C.struct_ArrowArray)(unsafe.Pointer(array)).length)
}

// ArrayNullCount returns the null count of the exported array (-1 if unknown).
func ArrayNullCount(array *ArrowArray) int64 {
	return int64((*C.struct_ArrowArray)(unsafe.Pointer(array)).null_count)
}

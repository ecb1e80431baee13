//go:build !windows
// +build !windows

package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// bridgeABIVersion is the Rust engine ABI this loader understands.
const bridgeABIVersion = 2

// Bridge Rust FFI 接口
type Bridge struct {
	lib           uintptr
	abiVersion    func() uint32
	engineVersion func(*uintptr, *uintptr) int32
	capabilities  func(*uintptr, *uintptr) int32
	lastError     func(*uintptr, *uintptr) int32
	lastErrorFree func(uintptr, uintptr)
	dfFromArrow   func(*ArrowSchema, *ArrowArray, *uint64) int32
	dfVstackArrow func(uint64, *ArrowSchema, *ArrowArray) int32
	dfEmpty       func(*ArrowSchema, *uint64) int32
	dfFromColumns func(*byte, uintptr, *uint64) int32
	dfShape       func(uint64, *uint64, *uint64) int32
	dfToIPC       func(uint64, *uintptr, *uintptr) int32
	dfPrint       func(uint64) int32
	dfFree        func(uint64)
	outputFree    func(uintptr, uintptr)
}

// LoadBridge 加载动态库
func LoadBridge(libPath string) (*Bridge, error) {
	if libPath == "" {
		// 优先级：环境变量 > 可执行文件目录
		libPath = os.Getenv("POLARS_BRIDGE_LIB")
		if libPath == "" {
			exePath, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("failed to get executable path: %w", err)
			}
			exeDir := filepath.Dir(exePath)
			libPath = filepath.Join(exeDir, getLibName())
		}
	}

	if _, err := os.Stat(libPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("library not found: %s", libPath)
	}

	lib, err := purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load library %s: %w", libPath, err)
	}

	b := &Bridge{lib: lib}

	// 加载所有函数
	purego.RegisterLibFunc(&b.abiVersion, lib, "bridge_abi_version")
	purego.RegisterLibFunc(&b.engineVersion, lib, "bridge_engine_version")
	purego.RegisterLibFunc(&b.capabilities, lib, "bridge_capabilities")
	purego.RegisterLibFunc(&b.lastError, lib, "bridge_last_error")
	purego.RegisterLibFunc(&b.lastErrorFree, lib, "bridge_last_error_free")
	purego.RegisterLibFunc(&b.dfFromArrow, lib, "bridge_df_from_arrow")
	purego.RegisterLibFunc(&b.dfVstackArrow, lib, "bridge_df_vstack_arrow")
	purego.RegisterLibFunc(&b.dfEmpty, lib, "bridge_df_empty_from_schema")
	purego.RegisterLibFunc(&b.dfFromColumns, lib, "bridge_df_from_columns")
	purego.RegisterLibFunc(&b.dfShape, lib, "bridge_df_shape")
	purego.RegisterLibFunc(&b.dfToIPC, lib, "bridge_df_to_ipc")
	purego.RegisterLibFunc(&b.dfPrint, lib, "bridge_df_print")
	purego.RegisterLibFunc(&b.dfFree, lib, "bridge_df_free")
	purego.RegisterLibFunc(&b.outputFree, lib, "bridge_output_free")

	// 验证 ABI 版本
	abiVer := b.AbiVersion()
	if abiVer != bridgeABIVersion {
		return nil, fmt.Errorf("ABI version mismatch: expected %d, got %d", bridgeABIVersion, abiVer)
	}

	return b, nil
}

func getLibName() string {
	switch runtime.GOOS {
	case "windows":
		return "polars_bridge.dll"
	case "darwin":
		return "libpolars_bridge.dylib"
	default:
		return "libpolars_bridge.so"
	}
}

// AbiVersion 获取 ABI 版本
func (b *Bridge) AbiVersion() uint32 {
	return b.abiVersion()
}

// EngineVersion 获取引擎版本
func (b *Bridge) EngineVersion() (string, error) {
	var ptr uintptr
	var length uintptr
	ret := b.engineVersion(&ptr, &length)
	if ret != 0 {
		return "", b.getLastError()
	}
	return ptrToString(ptr, int(length)), nil
}

// Capabilities 获取能力信息
func (b *Bridge) Capabilities() (string, error) {
	var ptr uintptr
	var length uintptr
	ret := b.capabilities(&ptr, &length)
	if ret != 0 {
		return "", b.getLastError()
	}
	return ptrToString(ptr, int(length)), nil
}

// DataFrameFromArrow 通过 Arrow C Data Interface 创建 DataFrame（零拷贝）。
// 成功时 schema/array 所有权转移给 Rust（release 置空），调用方不要再释放；
// 失败时所有权留在调用方，由调用方负责释放。
func (b *Bridge) DataFrameFromArrow(schema *ArrowSchema, array *ArrowArray) (uint64, error) {
	if !cgoEnabled {
		return 0, fmt.Errorf("DataFrameFromArrow requires cgo (set CGO_ENABLED=1)")
	}

	var handle uint64
	ret := b.dfFromArrow(schema, array, &handle)
	runtime.KeepAlive(schema)
	runtime.KeepAlive(array)

	if ret != 0 {
		return 0, b.getLastError()
	}
	return handle, nil
}

// DataFrameVstackArrow 把一个 Arrow chunk 追加到已有 DataFrame（零拷贝）。
// 所有权语义与 DataFrameFromArrow 相同。
func (b *Bridge) DataFrameVstackArrow(handle uint64, schema *ArrowSchema, array *ArrowArray) error {
	if !cgoEnabled {
		return fmt.Errorf("DataFrameVstackArrow requires cgo (set CGO_ENABLED=1)")
	}

	ret := b.dfVstackArrow(handle, schema, array)
	runtime.KeepAlive(schema)
	runtime.KeepAlive(array)

	if ret != 0 {
		return b.getLastError()
	}
	return nil
}

// DataFrameEmptyFromSchema 仅凭 schema 描述符创建空 DataFrame。
// 成功时 schema 所有权转移给 Rust。
func (b *Bridge) DataFrameEmptyFromSchema(schema *ArrowSchema) (uint64, error) {
	if !cgoEnabled {
		return 0, fmt.Errorf("DataFrameEmptyFromSchema requires cgo (set CGO_ENABLED=1)")
	}

	var handle uint64
	ret := b.dfEmpty(schema, &handle)
	runtime.KeepAlive(schema)

	if ret != 0 {
		return 0, b.getLastError()
	}
	return handle, nil
}

// CreateDataFrameFromColumns 从 JSON 格式的列数据创建 DataFrame
// jsonData 格式: [{"name": "col1", "values": [1, 2, 3]}, {"name": "col2", "values": ["a", "b", "c"]}]
func (b *Bridge) CreateDataFrameFromColumns(jsonData []byte) (uint64, error) {
	if len(jsonData) == 0 {
		return 0, fmt.Errorf("jsonData is empty")
	}

	var dfHandle uint64
	ret := b.dfFromColumns(&jsonData[0], uintptr(len(jsonData)), &dfHandle)
	runtime.KeepAlive(jsonData) // 确保在 FFI 调用期间 jsonData 不被 GC

	if ret != 0 {
		return 0, b.getLastError()
	}

	return dfHandle, nil
}

// DataFrameShape 返回 DataFrame 的行列数
func (b *Bridge) DataFrameShape(handle uint64) (rows, cols uint64, err error) {
	ret := b.dfShape(handle, &rows, &cols)
	if ret != 0 {
		return 0, 0, b.getLastError()
	}
	return rows, cols, nil
}

// DataFrameToIPC 将 DataFrame 导出为 Arrow IPC 二进制数据
func (b *Bridge) DataFrameToIPC(handle uint64) ([]byte, error) {
	var outputPtr uintptr
	var outputLen uintptr

	ret := b.dfToIPC(handle, &outputPtr, &outputLen)
	if ret != 0 {
		return nil, b.getLastError()
	}

	output := make([]byte, outputLen)
	for i := uintptr(0); i < outputLen; i++ {
		output[i] = *(*byte)(unsafe.Pointer(outputPtr + i))
	}
	b.outputFree(outputPtr, outputLen)

	return output, nil
}

// DataFramePrint 打印 DataFrame（使用 Polars 原生 Display）
func (b *Bridge) DataFramePrint(handle uint64) error {
	ret := b.dfPrint(handle)
	if ret != 0 {
		return b.getLastError()
	}
	return nil
}

// FreeDataFrame 释放 DataFrame 句柄
func (b *Bridge) FreeDataFrame(handle uint64) {
	b.dfFree(handle)
}

func (b *Bridge) getLastError() error {
	var ptr uintptr
	var length uintptr
	b.lastError(&ptr, &length)

	if ptr == 0 {
		return fmt.Errorf("unknown error")
	}

	// fmt 会把消息拷贝进新字符串，之后才能释放 Rust 侧的缓冲
	err := fmt.Errorf("%s", ptrToString(ptr, int(length)))
	b.lastErrorFree(ptr, length)
	return err
}

func ptrToString(ptr uintptr, length int) string {
	if ptr == 0 || length == 0 {
		return ""
	}
	return unsafe.String((*byte)(unsafe.Pointer(ptr)), length)
}

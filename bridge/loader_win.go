//go:build windows
// +build windows

package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"unsafe"
)

// bridgeABIVersion is the Rust engine ABI this loader understands.
const bridgeABIVersion = 2

// Bridge Rust FFI 接口
type Bridge struct {
	lib           *syscall.DLL
	abiVersion    *syscall.Proc
	engineVersion *syscall.Proc
	capabilities  *syscall.Proc
	lastError     *syscall.Proc
	lastErrorFree *syscall.Proc
	dfFromArrow   *syscall.Proc
	dfVstackArrow *syscall.Proc
	dfEmpty       *syscall.Proc
	dfFromColumns *syscall.Proc
	dfShape       *syscall.Proc
	dfToIPC       *syscall.Proc
	dfPrint       *syscall.Proc
	dfFree        *syscall.Proc
	outputFree    *syscall.Proc
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

	lib, err := syscall.LoadDLL(libPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load library %s: %w", libPath, err)
	}

	b := &Bridge{lib: lib}

	// 加载所有函数
	procs := []struct {
		name string
		dst  **syscall.Proc
	}{
		{"bridge_abi_version", &b.abiVersion},
		{"bridge_engine_version", &b.engineVersion},
		{"bridge_capabilities", &b.capabilities},
		{"bridge_last_error", &b.lastError},
		{"bridge_last_error_free", &b.lastErrorFree},
		{"bridge_df_from_arrow", &b.dfFromArrow},
		{"bridge_df_vstack_arrow", &b.dfVstackArrow},
		{"bridge_df_empty_from_schema", &b.dfEmpty},
		{"bridge_df_from_columns", &b.dfFromColumns},
		{"bridge_df_shape", &b.dfShape},
		{"bridge_df_to_ipc", &b.dfToIPC},
		{"bridge_df_print", &b.dfPrint},
		{"bridge_df_free", &b.dfFree},
		{"bridge_output_free", &b.outputFree},
	}
	for _, p := range procs {
		if *p.dst, err = lib.FindProc(p.name); err != nil {
			return nil, fmt.Errorf("failed to find %s: %w", p.name, err)
		}
	}

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
	ret, _, _ := b.abiVersion.Call()
	return uint32(ret)
}

// EngineVersion 获取引擎版本
func (b *Bridge) EngineVersion() (string, error) {
	var ptr uintptr
	var length uintptr
	ret, _, _ := b.engineVersion.Call(uintptr(unsafe.Pointer(&ptr)), uintptr(unsafe.Pointer(&length)))
	if ret != 0 {
		return "", b.getLastError()
	}
	return ptrToString(ptr, int(length)), nil
}

// Capabilities 获取能力信息
func (b *Bridge) Capabilities() (string, error) {
	var ptr uintptr
	var length uintptr
	ret, _, _ := b.capabilities.Call(uintptr(unsafe.Pointer(&ptr)), uintptr(unsafe.Pointer(&length)))
	if ret != 0 {
		return "", b.getLastError()
	}
	return ptrToString(ptr, int(length)), nil
}

// DataFrameFromArrow 通过 Arrow C Data Interface 创建 DataFrame（零拷贝）。
// 成功时 schema/array 所有权转移给 Rust，失败时留在调用方。
func (b *Bridge) DataFrameFromArrow(schema *ArrowSchema, array *ArrowArray) (uint64, error) {
	if !cgoEnabled {
		return 0, fmt.Errorf("DataFrameFromArrow requires cgo (set CGO_ENABLED=1)")
	}

	var handle uint64
	ret, _, _ := b.dfFromArrow.Call(
		uintptr(unsafe.Pointer(schema)),
		uintptr(unsafe.Pointer(array)),
		uintptr(unsafe.Pointer(&handle)),
	)
	runtime.KeepAlive(schema)
	runtime.KeepAlive(array)

	if ret != 0 {
		return 0, b.getLastError()
	}
	return handle, nil
}

// DataFrameVstackArrow 把一个 Arrow chunk 追加到已有 DataFrame（零拷贝）。
func (b *Bridge) DataFrameVstackArrow(handle uint64, schema *ArrowSchema, array *ArrowArray) error {
	if !cgoEnabled {
		return fmt.Errorf("DataFrameVstackArrow requires cgo (set CGO_ENABLED=1)")
	}

	ret, _, _ := b.dfVstackArrow.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(schema)),
		uintptr(unsafe.Pointer(array)),
	)
	runtime.KeepAlive(schema)
	runtime.KeepAlive(array)

	if ret != 0 {
		return b.getLastError()
	}
	return nil
}

// DataFrameEmptyFromSchema 仅凭 schema 描述符创建空 DataFrame。
func (b *Bridge) DataFrameEmptyFromSchema(schema *ArrowSchema) (uint64, error) {
	if !cgoEnabled {
		return 0, fmt.Errorf("DataFrameEmptyFromSchema requires cgo (set CGO_ENABLED=1)")
	}

	var handle uint64
	ret, _, _ := b.dfEmpty.Call(
		uintptr(unsafe.Pointer(schema)),
		uintptr(unsafe.Pointer(&handle)),
	)
	runtime.KeepAlive(schema)

	if ret != 0 {
		return 0, b.getLastError()
	}
	return handle, nil
}

// CreateDataFrameFromColumns 从 JSON 格式的列数据创建 DataFrame
func (b *Bridge) CreateDataFrameFromColumns(jsonData []byte) (uint64, error) {
	if len(jsonData) == 0 {
		return 0, fmt.Errorf("jsonData is empty")
	}

	var dfHandle uint64
	ret, _, _ := b.dfFromColumns.Call(
		uintptr(unsafe.Pointer(&jsonData[0])),
		uintptr(len(jsonData)),
		uintptr(unsafe.Pointer(&dfHandle)),
	)
	runtime.KeepAlive(jsonData)

	if ret != 0 {
		return 0, b.getLastError()
	}

	return dfHandle, nil
}

// DataFrameShape 返回 DataFrame 的行列数
func (b *Bridge) DataFrameShape(handle uint64) (rows, cols uint64, err error) {
	ret, _, _ := b.dfShape.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&rows)),
		uintptr(unsafe.Pointer(&cols)),
	)
	if ret != 0 {
		return 0, 0, b.getLastError()
	}
	return rows, cols, nil
}

// DataFrameToIPC 将 DataFrame 导出为 Arrow IPC 二进制数据
func (b *Bridge) DataFrameToIPC(handle uint64) ([]byte, error) {
	var outputPtr uintptr
	var outputLen uintptr

	ret, _, _ := b.dfToIPC.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&outputPtr)),
		uintptr(unsafe.Pointer(&outputLen)),
	)
	if ret != 0 {
		return nil, b.getLastError()
	}

	output := make([]byte, outputLen)
	for i := uintptr(0); i < outputLen; i++ {
		output[i] = *(*byte)(unsafe.Pointer(outputPtr + i))
	}
	b.outputFree.Call(outputPtr, outputLen)

	return output, nil
}

// DataFramePrint 打印 DataFrame（使用 Polars 原生 Display）
func (b *Bridge) DataFramePrint(handle uint64) error {
	ret, _, _ := b.dfPrint.Call(uintptr(handle))
	if ret != 0 {
		return b.getLastError()
	}
	return nil
}

// FreeDataFrame 释放 DataFrame 句柄
func (b *Bridge) FreeDataFrame(handle uint64) {
	b.dfFree.Call(uintptr(handle))
}

func (b *Bridge) getLastError() error {
	var ptr uintptr
	var length uintptr
	b.lastError.Call(uintptr(unsafe.Pointer(&ptr)), uintptr(unsafe.Pointer(&length)))

	if ptr == 0 {
		return fmt.Errorf("unknown error")
	}

	err := fmt.Errorf("%s", ptrToString(ptr, int(length)))
	b.lastErrorFree.Call(ptr, length)
	return err
}

func ptrToString(ptr uintptr, length int) string {
	if ptr == 0 || length == 0 {
		return ""
	}
	bytes := make([]byte, length)
	for i := 0; i < length; i++ {
		bytes[i] = *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
	}
	return string(bytes)
}

//go:build !windows
// +build !windows

package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/duckdb-polars-bridge/bridge"
)

// Engine DuckDB C API 接口
type Engine struct {
	lib              uintptr
	libraryVersion   func() string
	open             func(path string, outDB *uintptr) int32
	close            func(db *uintptr)
	connect          func(db uintptr, outConn *uintptr) int32
	disconnect       func(conn *uintptr)
	queryArrow       func(conn uintptr, sql string, outResult *uintptr) int32
	queryArrowError  func(result uintptr) string
	queryArrowSchema func(result uintptr, outSchema *uintptr) int32
	queryArrowArray  func(result uintptr, outArray *uintptr) int32
	arrowRowCount    func(result uintptr) uint64
	arrowColumnCount func(result uintptr) uint64
	destroyArrow     func(result *uintptr)
}

// LoadEngine 加载 libduckdb 动态库
func LoadEngine(libPath string) (*Engine, error) {
	if libPath == "" {
		// 优先级：环境变量 > 可执行文件目录
		libPath = os.Getenv("DUCKDB_LIB")
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

	e := &Engine{lib: lib}

	// 加载所有函数
	purego.RegisterLibFunc(&e.libraryVersion, lib, "duckdb_library_version")
	purego.RegisterLibFunc(&e.open, lib, "duckdb_open")
	purego.RegisterLibFunc(&e.close, lib, "duckdb_close")
	purego.RegisterLibFunc(&e.connect, lib, "duckdb_connect")
	purego.RegisterLibFunc(&e.disconnect, lib, "duckdb_disconnect")
	purego.RegisterLibFunc(&e.queryArrow, lib, "duckdb_query_arrow")
	purego.RegisterLibFunc(&e.queryArrowError, lib, "duckdb_query_arrow_error")
	purego.RegisterLibFunc(&e.queryArrowSchema, lib, "duckdb_query_arrow_schema")
	purego.RegisterLibFunc(&e.queryArrowArray, lib, "duckdb_query_arrow_array")
	purego.RegisterLibFunc(&e.arrowRowCount, lib, "duckdb_arrow_row_count")
	purego.RegisterLibFunc(&e.arrowColumnCount, lib, "duckdb_arrow_column_count")
	purego.RegisterLibFunc(&e.destroyArrow, lib, "duckdb_destroy_arrow")

	return e, nil
}

func getLibName() string {
	switch runtime.GOOS {
	case "windows":
		return "duckdb.dll"
	case "darwin":
		return "libduckdb.dylib"
	default:
		return "libduckdb.so"
	}
}

// Version 获取 DuckDB 库版本
func (e *Engine) Version() string {
	return e.libraryVersion()
}

func (e *Engine) openDatabase(path string) (uintptr, error) {
	var db uintptr
	if ret := e.open(path, &db); ret != success {
		return 0, fmt.Errorf("duckdb_open failed for %q", path)
	}
	return db, nil
}

func (e *Engine) connectDatabase(db uintptr) (uintptr, error) {
	var conn uintptr
	if ret := e.connect(db, &conn); ret != success {
		return 0, fmt.Errorf("duckdb_connect failed")
	}
	return conn, nil
}

func (e *Engine) runQueryArrow(conn uintptr, sql string) (uintptr, error) {
	var result uintptr
	ret := e.queryArrow(conn, sql, &result)
	if ret != success {
		// 错误信息挂在 result 上，取出后再销毁
		msg := e.queryArrowError(result)
		e.destroyArrow(&result)
		return 0, &bridge.ExportError{Msg: msg}
	}
	return result, nil
}

func (e *Engine) disconnectConn(conn *uintptr) { e.disconnect(conn) }

func (e *Engine) closeDatabase(db *uintptr) { e.close(db) }

func (e *Engine) resultError(result uintptr) string { return e.queryArrowError(result) }

func (e *Engine) resultRowCount(result uintptr) uint64 { return e.arrowRowCount(result) }

func (e *Engine) resultColumnCount(result uintptr) uint64 { return e.arrowColumnCount(result) }

func (e *Engine) destroyResult(result *uintptr) { e.destroyArrow(result) }

// exportSchema 让 DuckDB 把 schema 导出到调用方提供的描述符里。
// C 签名是 duckdb_arrow_schema*（即 ArrowSchema**），所以传指针的指针。
func (e *Engine) exportSchema(result uintptr, schema *bridge.ArrowSchema) error {
	p := uintptr(unsafe.Pointer(schema))
	ret := e.queryArrowSchema(result, &p)
	runtime.KeepAlive(schema)
	if ret != success {
		return &bridge.ExportError{Msg: e.queryArrowError(result)}
	}
	return nil
}

// exportArray 导出下一个 chunk 的 array 描述符，语义同 exportSchema。
func (e *Engine) exportArray(result uintptr, array *bridge.ArrowArray) error {
	p := uintptr(unsafe.Pointer(array))
	ret := e.queryArrowArray(result, &p)
	runtime.KeepAlive(array)
	if ret != success {
		return &bridge.ExportError{Msg: e.queryArrowError(result)}
	}
	return nil
}

//go:build windows
// +build windows

package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/duckdb-polars-bridge/bridge"
)

// Engine DuckDB C API 接口
type Engine struct {
	lib              *syscall.DLL
	libraryVersion   *syscall.Proc
	open             *syscall.Proc
	close            *syscall.Proc
	connect          *syscall.Proc
	disconnect       *syscall.Proc
	queryArrow       *syscall.Proc
	queryArrowError  *syscall.Proc
	queryArrowSchema *syscall.Proc
	queryArrowArray  *syscall.Proc
	arrowRowCount    *syscall.Proc
	arrowColumnCount *syscall.Proc
	destroyArrow     *syscall.Proc
}

// LoadEngine 加载 duckdb 动态库
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

	lib, err := syscall.LoadDLL(libPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load library %s: %w", libPath, err)
	}

	e := &Engine{lib: lib}

	// 加载所有函数
	procs := []struct {
		name string
		dst  **syscall.Proc
	}{
		{"duckdb_library_version", &e.libraryVersion},
		{"duckdb_open", &e.open},
		{"duckdb_close", &e.close},
		{"duckdb_connect", &e.connect},
		{"duckdb_disconnect", &e.disconnect},
		{"duckdb_query_arrow", &e.queryArrow},
		{"duckdb_query_arrow_error", &e.queryArrowError},
		{"duckdb_query_arrow_schema", &e.queryArrowSchema},
		{"duckdb_query_arrow_array", &e.queryArrowArray},
		{"duckdb_arrow_row_count", &e.arrowRowCount},
		{"duckdb_arrow_column_count", &e.arrowColumnCount},
		{"duckdb_destroy_arrow", &e.destroyArrow},
	}
	for _, p := range procs {
		if *p.dst, err = lib.FindProc(p.name); err != nil {
			return nil, fmt.Errorf("failed to find %s: %w", p.name, err)
		}
	}

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
	ret, _, _ := e.libraryVersion.Call()
	return goString(ret)
}

func (e *Engine) openDatabase(path string) (uintptr, error) {
	cPath := append([]byte(path), 0)
	var db uintptr
	ret, _, _ := e.open.Call(
		uintptr(unsafe.Pointer(&cPath[0])),
		uintptr(unsafe.Pointer(&db)),
	)
	runtime.KeepAlive(cPath)
	if int32(ret) != success {
		return 0, fmt.Errorf("duckdb_open failed for %q", path)
	}
	return db, nil
}

func (e *Engine) connectDatabase(db uintptr) (uintptr, error) {
	var conn uintptr
	ret, _, _ := e.connect.Call(uintptr(db), uintptr(unsafe.Pointer(&conn)))
	if int32(ret) != success {
		return 0, fmt.Errorf("duckdb_connect failed")
	}
	return conn, nil
}

func (e *Engine) runQueryArrow(conn uintptr, sql string) (uintptr, error) {
	cSQL := append([]byte(sql), 0)
	var result uintptr
	ret, _, _ := e.queryArrow.Call(
		uintptr(conn),
		uintptr(unsafe.Pointer(&cSQL[0])),
		uintptr(unsafe.Pointer(&result)),
	)
	runtime.KeepAlive(cSQL)
	if int32(ret) != success {
		// 错误信息挂在 result 上，取出后再销毁
		msgPtr, _, _ := e.queryArrowError.Call(result)
		msg := goString(msgPtr)
		e.destroyArrow.Call(uintptr(unsafe.Pointer(&result)))
		return 0, &bridge.ExportError{Msg: msg}
	}
	return result, nil
}

func (e *Engine) disconnectConn(conn *uintptr) {
	e.disconnect.Call(uintptr(unsafe.Pointer(conn)))
}

func (e *Engine) closeDatabase(db *uintptr) {
	e.close.Call(uintptr(unsafe.Pointer(db)))
}

func (e *Engine) resultError(result uintptr) string {
	ptr, _, _ := e.queryArrowError.Call(result)
	return goString(ptr)
}

func (e *Engine) resultRowCount(result uintptr) uint64 {
	ret, _, _ := e.arrowRowCount.Call(result)
	return uint64(ret)
}

func (e *Engine) resultColumnCount(result uintptr) uint64 {
	ret, _, _ := e.arrowColumnCount.Call(result)
	return uint64(ret)
}

func (e *Engine) destroyResult(result *uintptr) {
	e.destroyArrow.Call(uintptr(unsafe.Pointer(result)))
}

// exportSchema 让 DuckDB 把 schema 导出到调用方提供的描述符里。
// C 签名是 duckdb_arrow_schema*（即 ArrowSchema**），所以传指针的指针。
func (e *Engine) exportSchema(result uintptr, schema *bridge.ArrowSchema) error {
	p := uintptr(unsafe.Pointer(schema))
	ret, _, _ := e.queryArrowSchema.Call(result, uintptr(unsafe.Pointer(&p)))
	runtime.KeepAlive(schema)
	if int32(ret) != success {
		return &bridge.ExportError{Msg: e.resultError(result)}
	}
	return nil
}

// exportArray 导出下一个 chunk 的 array 描述符，语义同 exportSchema。
func (e *Engine) exportArray(result uintptr, array *bridge.ArrowArray) error {
	p := uintptr(unsafe.Pointer(array))
	ret, _, _ := e.queryArrowArray.Call(result, uintptr(unsafe.Pointer(&p)))
	runtime.KeepAlive(array)
	if int32(ret) != success {
		return &bridge.ExportError{Msg: e.resultError(result)}
	}
	return nil
}

func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var bytes []byte
	for {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(len(bytes))))
		if b == 0 {
			break
		}
		bytes = append(bytes, b)
	}
	return string(bytes)
}

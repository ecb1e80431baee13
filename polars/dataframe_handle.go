package polars

import (
	"fmt"
	"runtime"

	"github.com/duckdb-polars-bridge/bridge"
)

// DataFrame represents an eager Polars DataFrame held by the Rust engine.
type DataFrame struct {
	handle uint64
	brg    *bridge.Bridge
}

func newDataFrame(handle uint64, brg *bridge.Bridge) *DataFrame {
	df := &DataFrame{handle: handle, brg: brg}
	runtime.SetFinalizer(df, func(d *DataFrame) {
		if d != nil && d.handle != 0 && d.brg != nil {
			d.brg.FreeDataFrame(d.handle)
		}
	})
	return df
}

// Free releases the Rust-side DataFrame handle.
func (df *DataFrame) Free() {
	if df == nil || df.handle == 0 || df.brg == nil {
		return
	}
	df.brg.FreeDataFrame(df.handle)
	df.handle = 0
	runtime.SetFinalizer(df, nil)
}

// Shape returns the number of rows and columns of the DataFrame.
func (df *DataFrame) Shape() (rows, cols uint64, err error) {
	if df == nil || df.handle == 0 || df.brg == nil {
		return 0, 0, fmt.Errorf("dataframe is nil")
	}
	return df.brg.DataFrameShape(df.handle)
}

// Height returns the number of rows of the DataFrame.
func (df *DataFrame) Height() (uint64, error) {
	rows, _, err := df.Shape()
	return rows, err
}

// Rows exports the DataFrame to Arrow IPC and parses it into rows.
func (df *DataFrame) Rows() ([]map[string]interface{}, error) {
	if df == nil || df.handle == 0 || df.brg == nil {
		return nil, fmt.Errorf("dataframe is nil")
	}
	ipcBytes, err := df.brg.DataFrameToIPC(df.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to export dataframe: %w", err)
	}
	return parseArrowIPC(ipcBytes)
}

// Print outputs the DataFrame using Polars' Display implementation.
func (df *DataFrame) Print() error {
	if df == nil || df.handle == 0 || df.brg == nil {
		return fmt.Errorf("dataframe is nil")
	}
	return df.brg.DataFramePrint(df.handle)
}

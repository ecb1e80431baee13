//go:build cgo
// +build cgo

package duckdb

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/require"

	"github.com/duckdb-polars-bridge/bridge"
)

func openTestConnection(t *testing.T) (*Engine, *Connection) {
	t.Helper()

	// 跳过如果没有设置库路径
	libPath := os.Getenv("DUCKDB_LIB")
	if libPath == "" {
		t.Skip("DUCKDB_LIB not set, skipping test")
	}

	eng, err := LoadEngine(libPath)
	require.NoError(t, err, "Failed to load DuckDB")

	db, err := eng.Open(InMemory)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	conn, err := db.Connect()
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	return eng, conn
}

func TestLoadEngine(t *testing.T) {
	eng, _ := openTestConnection(t)

	version := eng.Version()
	require.NotEmpty(t, version)
	t.Logf("✅ DuckDB Version: %s", version)
}

func TestQueryArrowRoundTrip(t *testing.T) {
	_, conn := openTestConnection(t)

	res, err := conn.QueryArrow("SELECT 1::BIGINT AS a, 'x' AS b")
	require.NoError(t, err)
	defer res.Destroy()

	require.EqualValues(t, 1, res.RowCount())
	require.EqualValues(t, 2, res.ColumnCount())

	stream, err := res.Export()
	require.NoError(t, err)

	table, err := bridge.ImportTable(stream)
	require.NoError(t, err)
	defer table.Release()

	require.EqualValues(t, 1, table.NumRows())
	require.Equal(t, "a", table.Schema().Field(0).Name)
	require.Equal(t, arrow.PrimitiveTypes.Int64, table.Schema().Field(0).Type)

	a := table.Column(0).Data().Chunks()[0].(*array.Int64)
	require.EqualValues(t, 1, a.Value(0))
	b := table.Column(1).Data().Chunks()[0].(*array.String)
	require.Equal(t, "x", b.Value(0))
}

func TestExportIsOneShot(t *testing.T) {
	_, conn := openTestConnection(t)

	res, err := conn.QueryArrow("SELECT 42 AS answer")
	require.NoError(t, err)
	defer res.Destroy()

	stream, err := res.Export()
	require.NoError(t, err)

	// Drain the first export so its descriptors are accounted for.
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		chunk.Release()
	}

	_, err = res.Export()
	require.ErrorIs(t, err, bridge.ErrResultConsumed)

	res.Destroy()
	_, err = res.Export()
	require.ErrorIs(t, err, bridge.ErrResultConsumed)
}

func TestQueryArrowBadSQL(t *testing.T) {
	_, conn := openTestConnection(t)

	_, err := conn.QueryArrow("SELECT FROM no_such_table WHERE")
	require.Error(t, err)

	var exportErr *bridge.ExportError
	require.ErrorAs(t, err, &exportErr)
	t.Logf("✅ Bad SQL correctly rejected: %v", err)
}

func TestQueryArrowZeroRows(t *testing.T) {
	_, conn := openTestConnection(t)

	res, err := conn.QueryArrow("SELECT 1::BIGINT AS a WHERE 1=0")
	require.NoError(t, err)
	defer res.Destroy()

	require.EqualValues(t, 0, res.RowCount())

	stream, err := res.Export()
	require.NoError(t, err)

	table, err := bridge.ImportTable(stream)
	require.NoError(t, err)
	defer table.Release()

	// An empty result still carries its schema.
	require.EqualValues(t, 0, table.NumRows())
	require.EqualValues(t, 1, table.NumCols())
	require.Equal(t, "a", table.Schema().Field(0).Name)
}

func TestQueryArrowListColumn(t *testing.T) {
	_, conn := openTestConnection(t)

	res, err := conn.QueryArrow("SELECT [1, 2, 3]::BIGINT[] AS xs")
	require.NoError(t, err)
	defer res.Destroy()

	stream, err := res.Export()
	require.NoError(t, err)

	table, err := bridge.ImportTable(stream)
	require.NoError(t, err)
	defer table.Release()

	require.EqualValues(t, 1, table.NumRows())
	xs := table.Column(0).Data().Chunks()[0].(array.ListLike)
	start, end := xs.ValueOffsets(0)
	require.EqualValues(t, 3, end-start)
}

func TestExecuteAndQueryTable(t *testing.T) {
	_, conn := openTestConnection(t)

	require.NoError(t, conn.Execute("CREATE TABLE people (name VARCHAR, age BIGINT)"))
	require.NoError(t, conn.Execute("INSERT INTO people VALUES ('alice', 34), ('bob', 21), ('carl', NULL)"))

	res, err := conn.QueryArrow("SELECT name, age FROM people ORDER BY name")
	require.NoError(t, err)
	defer res.Destroy()

	require.EqualValues(t, 3, res.RowCount())

	stream, err := res.Export()
	require.NoError(t, err)

	table, err := bridge.ImportTable(stream)
	require.NoError(t, err)
	defer table.Release()

	names := table.Column(0).Data().Chunks()[0].(*array.String)
	ages := table.Column(1).Data().Chunks()[0].(*array.Int64)
	require.Equal(t, "alice", names.Value(0))
	require.EqualValues(t, 21, ages.Value(1))
	require.True(t, ages.IsNull(2))
}

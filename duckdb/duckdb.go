// Package duckdb drives an embedded DuckDB engine through its C API and
// exports query results as Arrow C Data Interface descriptor pairs.
package duckdb

import (
	"fmt"

	"github.com/duckdb-polars-bridge/bridge"
)

// duckdb_state: 0 = DuckDBSuccess, 1 = DuckDBError.
const success int32 = 0

// InMemory is the database path for a transient in-memory database.
const InMemory = ":memory:"

// Database is an open DuckDB database.
type Database struct {
	eng *Engine
	db  uintptr
}

// Connection is a single connection to a Database.
type Connection struct {
	eng  *Engine
	conn uintptr
}

// Open opens a DuckDB database at path. An empty path opens an in-memory
// database.
func (e *Engine) Open(path string) (*Database, error) {
	if path == "" {
		path = InMemory
	}
	db, err := e.openDatabase(path)
	if err != nil {
		return nil, err
	}
	return &Database{eng: e, db: db}, nil
}

// Connect creates a new connection to the database.
func (d *Database) Connect() (*Connection, error) {
	if d.db == 0 {
		return nil, fmt.Errorf("database is closed")
	}
	conn, err := d.eng.connectDatabase(d.db)
	if err != nil {
		return nil, err
	}
	return &Connection{eng: d.eng, conn: conn}, nil
}

// Close closes the database. Connections must be closed first.
func (d *Database) Close() {
	if d.db == 0 {
		return
	}
	d.eng.closeDatabase(&d.db)
	d.db = 0
}

// Execute runs a statement and discards its result. Used for statements
// like INSTALL/LOAD or DDL where no rows are expected.
func (c *Connection) Execute(sql string) error {
	if c.conn == 0 {
		return fmt.Errorf("connection is closed")
	}
	result, err := c.eng.runQueryArrow(c.conn, sql)
	if err != nil {
		return err
	}
	c.eng.destroyResult(&result)
	return nil
}

// QueryArrow executes a query and returns a result handle whose chunks can
// be exported once as Arrow C Data Interface descriptor pairs. The caller
// must Destroy the result when done (exported chunks stay valid: ownership
// of their buffers has already moved to whoever took them).
func (c *Connection) QueryArrow(sql string) (*ArrowResult, error) {
	if c.conn == 0 {
		return nil, fmt.Errorf("connection is closed")
	}
	if !bridge.CDataSupported() {
		return nil, fmt.Errorf("QueryArrow requires cgo (set CGO_ENABLED=1)")
	}
	result, err := c.eng.runQueryArrow(c.conn, sql)
	if err != nil {
		return nil, err
	}
	return &ArrowResult{eng: c.eng, result: result}, nil
}

// Close closes the connection.
func (c *Connection) Close() {
	if c.conn == 0 {
		return
	}
	c.eng.disconnectConn(&c.conn)
	c.conn = 0
}

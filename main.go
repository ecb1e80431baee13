package main

import (
	"fmt"
	"log"

	"github.com/duckdb-polars-bridge/bridge"
	"github.com/duckdb-polars-bridge/duckdb"
	"github.com/duckdb-polars-bridge/polars"
)

func main() {
	// 加载动态库
	brg, err := bridge.LoadBridge("")
	if err != nil {
		log.Fatalf("Failed to load bridge: %v", err)
	}

	eng, err := duckdb.LoadEngine("")
	if err != nil {
		log.Fatalf("Failed to load DuckDB: %v", err)
	}

	// 获取版本信息
	fmt.Printf("ABI Version: %d\n", brg.AbiVersion())

	engineVer, err := brg.EngineVersion()
	if err != nil {
		log.Fatalf("Failed to get engine version: %v", err)
	}
	fmt.Printf("Polars Engine Version: %s\n", engineVer)
	fmt.Printf("DuckDB Version: %s\n", eng.Version())

	caps, err := brg.Capabilities()
	if err != nil {
		log.Fatalf("Failed to get capabilities: %v", err)
	}
	fmt.Printf("Capabilities:\n%s\n", caps)

	fmt.Println("\n=== DuckDB -> Polars (zero-copy) ===")
	if err := runBridgeDemo(brg, eng); err != nil {
		log.Fatalf("Bridge demo failed: %v", err)
	}

	fmt.Println("\n✅ All demos passed!")
}

func runBridgeDemo(brg *bridge.Bridge, eng *duckdb.Engine) error {
	// 1. 打开内存数据库
	fmt.Println("\n1. Opening in-memory DuckDB...")
	db, err := eng.Open(duckdb.InMemory)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	conn, err := db.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	// 2. 准备数据
	fmt.Println("\n2. Creating sample table...")
	if err := conn.Execute(`
		CREATE TABLE trips AS
		SELECT
			range AS id,
			(range % 4 + 1)::BIGINT AS passengers,
			round(random() * 30, 2) AS distance
		FROM range(10000)
	`); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// 3. 执行聚合查询
	fmt.Println("\n3. Running aggregation query...")
	res, err := conn.QueryArrow(`
		SELECT passengers, count(*) AS trips, round(avg(distance), 2) AS avg_distance
		FROM trips
		GROUP BY passengers
		ORDER BY passengers
	`)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer res.Destroy()
	fmt.Printf("   Result: %d rows, %d cols\n", res.RowCount(), res.ColumnCount())

	// 4. 零拷贝导入 Polars
	fmt.Println("\n4. Streaming Arrow chunks into Polars (zero-copy)...")
	stream, err := res.Export()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	df, err := polars.FromArrowStream(brg, stream)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	defer df.Free()

	// 5. 显示结果
	fmt.Println("\n5. Polars DataFrame:")
	if err := df.Print(); err != nil {
		return fmt.Errorf("print failed: %w", err)
	}

	rows, cols, err := df.Shape()
	if err != nil {
		return fmt.Errorf("shape failed: %w", err)
	}
	fmt.Printf("   Shape: (%d, %d)\n", rows, cols)

	return nil
}

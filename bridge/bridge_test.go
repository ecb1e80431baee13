package bridge

import (
	"os"
	"testing"
)

func loadTestBridge(t *testing.T) *Bridge {
	t.Helper()

	// 跳过如果没有设置库路径
	libPath := os.Getenv("POLARS_BRIDGE_LIB")
	if libPath == "" {
		t.Skip("POLARS_BRIDGE_LIB not set, skipping test")
	}

	brg, err := LoadBridge(libPath)
	if err != nil {
		t.Fatalf("Failed to load bridge: %v", err)
	}
	return brg
}

func TestLoadBridge(t *testing.T) {
	brg := loadTestBridge(t)

	// 测试 ABI 版本
	abiVer := brg.AbiVersion()
	if abiVer != bridgeABIVersion {
		t.Errorf("Expected ABI version %d, got %d", bridgeABIVersion, abiVer)
	}

	t.Logf("✅ ABI Version: %d", abiVer)
}

func TestEngineVersion(t *testing.T) {
	brg := loadTestBridge(t)

	version, err := brg.EngineVersion()
	if err != nil {
		t.Fatalf("Failed to get engine version: %v", err)
	}

	if version == "" {
		t.Error("Engine version is empty")
	}

	t.Logf("✅ Engine Version: %s", version)
}

func TestCapabilities(t *testing.T) {
	brg := loadTestBridge(t)

	caps, err := brg.Capabilities()
	if err != nil {
		t.Fatalf("Failed to get capabilities: %v", err)
	}

	if caps == "" {
		t.Error("Capabilities is empty")
	}

	t.Logf("✅ Capabilities:\n%s", caps)
}

func TestConcurrentLastError(t *testing.T) {
	brg := loadTestBridge(t)

	// 测试并发调用不会互相干扰
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			defer func() { done <- true }()

			// 触发一些调用
			_, _ = brg.EngineVersion()
			_, _ = brg.Capabilities()
		}(i)
	}

	// 等待所有 goroutine 完成
	for i := 0; i < 10; i++ {
		<-done
	}

	t.Log("✅ Concurrent calls completed without error")
}

func TestInvalidColumnsJSON(t *testing.T) {
	brg := loadTestBridge(t)

	// 尝试用无效的 JSON 创建 DataFrame
	_, err := brg.CreateDataFrameFromColumns([]byte("not json"))
	if err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}

	t.Logf("✅ Invalid column JSON correctly rejected: %v", err)
}

func TestDataFrameShapeAndFree(t *testing.T) {
	brg := loadTestBridge(t)

	handle, err := brg.CreateDataFrameFromColumns([]byte(`[{"name":"a","values":[1,2,3]}]`))
	if err != nil {
		t.Fatalf("Failed to create DataFrame: %v", err)
	}
	defer brg.FreeDataFrame(handle)

	rows, cols, err := brg.DataFrameShape(handle)
	if err != nil {
		t.Fatalf("Failed to get shape: %v", err)
	}
	if rows != 3 || cols != 1 {
		t.Errorf("Expected shape (3, 1), got (%d, %d)", rows, cols)
	}

	t.Logf("✅ Shape: %d rows, %d cols", rows, cols)
}

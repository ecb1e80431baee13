package polars

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/goccy/go-json"
)

// parseNDJSON 解析 NDJSON 格式（每行一个 JSON 对象）
func parseNDJSON(ndjson string) ([]map[string]interface{}, error) {
	var result []map[string]interface{}
	scanner := bufio.NewScanner(strings.NewReader(ndjson))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var row map[string]interface{}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("failed to parse line: %w", err)
		}
		result = append(result, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// parseArrowIPC 解析 Polars 导出的 Arrow IPC 流，转成行数据
func parseArrowIPC(data []byte) ([]map[string]interface{}, error) {
	rdr, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC stream: %w", err)
	}
	defer rdr.Release()

	var buf bytes.Buffer
	for rdr.Next() {
		if err := array.RecordToJSON(rdr.Record(), &buf); err != nil {
			return nil, fmt.Errorf("failed to convert record: %w", err)
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("failed to read IPC stream: %w", err)
	}

	return parseNDJSON(buf.String())
}

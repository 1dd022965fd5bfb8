package tabular

import (
	"fmt"
	"io"

	"pairstat/adapters/datareadiness/coercer"
	"pairstat/domain/dataset"

	"github.com/tidwall/gjson"
)

// readJSON accepts the common tabular JSON layouts:
//
//	[{"a": 1, "b": 2}, ...]                      records
//	[["a", "b"], [1, 2], ...]                    header row + values
//	{"columns": ["a", "b"], "data": [[1, 2]]}    split
//	{"a": [1, ...], "b": [2, ...]}               column arrays
//	{"a": {"0": 1, ...}, "b": {"0": 2, ...}}     column objects keyed by row
//
// Column order follows first appearance in the document.
func readJSON(src io.Reader, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, nil, fmt.Errorf("failed to read JSON file: invalid JSON")
	}

	doc := gjson.ParseBytes(raw)
	switch {
	case doc.IsArray():
		first := doc.Get("0")
		if first.IsArray() {
			return jsonMatrix(doc.Array(), tc)
		}
		return jsonRecords(doc.Array(), tc)
	case doc.IsObject() && doc.Get("columns").IsArray() && doc.Get("data").IsArray():
		return jsonSplit(doc, tc)
	case doc.IsObject():
		return jsonColumns(doc, tc)
	}
	return nil, nil, fmt.Errorf("failed to read JSON file: expected an array or object at the top level")
}

func jsonRecords(items []gjson.Result, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value, error) {
	var headers []string
	index := make(map[string]int)
	records := make([]map[string]gjson.Result, 0, len(items))

	for i, item := range items {
		if !item.IsObject() {
			return nil, nil, fmt.Errorf("failed to read JSON file: record %d is not an object", i)
		}
		record := make(map[string]gjson.Result)
		item.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if _, ok := index[name]; !ok {
				index[name] = len(headers)
				headers = append(headers, name)
			}
			record[name] = value
			return true
		})
		records = append(records, record)
	}

	rows := make([][]dataset.Value, len(records))
	for r, record := range records {
		row := make([]dataset.Value, len(headers))
		for c, name := range headers {
			row[c] = jsonValue(record[name], tc)
		}
		rows[r] = row
	}
	return headers, rows, nil
}

func jsonMatrix(items []gjson.Result, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value, error) {
	var headers []string
	for _, h := range items[0].Array() {
		headers = append(headers, h.String())
	}
	rows := make([][]dataset.Value, 0, len(items)-1)
	for _, item := range items[1:] {
		rows = append(rows, jsonRow(item.Array(), tc))
	}
	return headers, rows, nil
}

func jsonSplit(doc gjson.Result, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value, error) {
	var headers []string
	for _, h := range doc.Get("columns").Array() {
		headers = append(headers, h.String())
	}
	var rows [][]dataset.Value
	for _, item := range doc.Get("data").Array() {
		rows = append(rows, jsonRow(item.Array(), tc))
	}
	return headers, rows, nil
}

func jsonColumns(doc gjson.Result, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value, error) {
	var headers []string
	var columns []gjson.Result
	doc.ForEach(func(key, value gjson.Result) bool {
		headers = append(headers, key.String())
		columns = append(columns, value)
		return true
	})

	// row keys in first-seen order; arrays use their positions
	var rowKeys []string
	seen := make(map[string]bool)
	for c, col := range columns {
		switch {
		case col.IsArray():
			for i := range col.Array() {
				key := fmt.Sprint(i)
				if !seen[key] {
					seen[key] = true
					rowKeys = append(rowKeys, key)
				}
			}
		case col.IsObject():
			col.ForEach(func(key, _ gjson.Result) bool {
				if !seen[key.String()] {
					seen[key.String()] = true
					rowKeys = append(rowKeys, key.String())
				}
				return true
			})
		default:
			return nil, nil, fmt.Errorf("failed to read JSON file: column %q is not an array or object", headers[c])
		}
	}

	rows := make([][]dataset.Value, len(rowKeys))
	for r, key := range rowKeys {
		row := make([]dataset.Value, len(columns))
		for c, col := range columns {
			row[c] = jsonValue(col.Get(gjson.Escape(key)), tc)
		}
		rows[r] = row
	}
	return headers, rows, nil
}

func jsonRow(values []gjson.Result, tc *coercer.TypeCoercer) []dataset.Value {
	row := make([]dataset.Value, len(values))
	for i, v := range values {
		row[i] = jsonValue(v, tc)
	}
	return row
}

func jsonValue(v gjson.Result, tc *coercer.TypeCoercer) dataset.Value {
	switch v.Type {
	case gjson.Null:
		return dataset.Missing()
	case gjson.Number:
		return dataset.Numeric(v.Float())
	case gjson.String:
		return parseCell(v.Str, tc)
	case gjson.True, gjson.False:
		return dataset.Text(v.String())
	}
	return dataset.Text(v.Raw)
}

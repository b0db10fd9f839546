package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type jsonObject = orderedmap.OrderedMap[string, json.RawMessage]

var errJSONLayout = errors.New("expected an array of records or an object of columns")

// readJSON accepts two layouts:
//
//	[{"a": 1, "b": "x"}, ...]           records
//	{"a": {"0": 1, ...}, "b": [...]}    columns, keyed by row label or position
//
// Only null marks a missing value; key order in the document is column order.
func readJSON(path string, _ Options) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapRead("json", path, err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, wrapRead("json", path, ErrNoColumns)
	}

	var records [][]string
	switch b[0] {
	case '[':
		records, err = jsonRecords(b)
	case '{':
		records, err = jsonColumns(b)
	default:
		err = errJSONLayout
	}
	if err != nil {
		return nil, wrapRead("json", path, err)
	}
	return FromRecords(records, nil)
}

func jsonRecords(b []byte) ([][]string, error) {
	var rows []*jsonObject
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, err
	}
	var header []string
	index := map[string]int{}
	for _, row := range rows {
		if row == nil {
			continue
		}
		for p := row.Oldest(); p != nil; p = p.Next() {
			if _, ok := index[p.Key]; !ok {
				index[p.Key] = len(header)
				header = append(header, p.Key)
			}
		}
	}
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		rec := make([]string, len(header))
		for j := range rec {
			rec[j] = "NaN"
		}
		if row != nil {
			for p := row.Oldest(); p != nil; p = p.Next() {
				cell, err := jsonCell(p.Value)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", p.Key, err)
				}
				rec[index[p.Key]] = cell
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func jsonColumns(b []byte) ([][]string, error) {
	cols := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(b, cols); err != nil {
		return nil, err
	}

	header := make([]string, 0, cols.Len())
	values := make([]map[string]string, 0, cols.Len())
	var labels []string
	seen := map[string]bool{}
	for p := cols.Oldest(); p != nil; p = p.Next() {
		cells, order, err := jsonColumnCells(p.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", p.Key, err)
		}
		for _, l := range order {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
		header = append(header, p.Key)
		values = append(values, cells)
	}

	records := make([][]string, 0, len(labels)+1)
	records = append(records, header)
	for _, l := range labels {
		rec := make([]string, len(header))
		for j, cells := range values {
			v, ok := cells[l]
			if !ok {
				v = "NaN"
			}
			rec[j] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

// jsonColumnCells returns a column's cells keyed by row label plus the label order.
func jsonColumnCells(raw json.RawMessage) (map[string]string, []string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil, errJSONLayout
	}
	cells := map[string]string{}
	var order []string
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, nil, err
		}
		for i, item := range items {
			v, err := jsonCell(item)
			if err != nil {
				return nil, nil, err
			}
			l := strconv.Itoa(i)
			cells[l] = v
			order = append(order, l)
		}
	case '{':
		obj := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(raw, obj); err != nil {
			return nil, nil, err
		}
		for p := obj.Oldest(); p != nil; p = p.Next() {
			v, err := jsonCell(p.Value)
			if err != nil {
				return nil, nil, err
			}
			cells[p.Key] = v
			order = append(order, p.Key)
		}
	default:
		return nil, nil, errJSONLayout
	}
	return cells, order, nil
}

// jsonCell renders one JSON value as a record cell. Nested values keep their
// compact JSON text.
func jsonCell(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return "NaN", nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case raw[0] == '{', raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(raw), nil
	}
}

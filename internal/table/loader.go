package table

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Excel engines available for .xlsx workbooks.
const (
	EngineExcelize = "excelize"
	EngineTealeg   = "tealeg"
)

// Options controls how source files are parsed into a Table.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used.
	Delimiter rune
	// Encoding names the CSV character set (WHATWG/IANA label). Empty means UTF-8.
	Encoding string
	// ExcelEngine selects the .xlsx reader: "excelize" (default) or "tealeg".
	ExcelEngine string
	// MissingValues lists cell texts treated as missing in CSV and spreadsheet sources.
	MissingValues []string
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{
		Delimiter:     ',',
		Encoding:      "utf-8",
		ExcelEngine:   EngineExcelize,
		MissingValues: DefaultMissingValues(),
	}
}

// DefaultMissingValues returns the cell texts read as missing by default.
func DefaultMissingValues() []string {
	return []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "<NA>"}
}

// UnsupportedFormatError reports a file extension with no registered reader.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return "Unsupported file format: " + e.Ext
}

type readerFunc func(path string, opt Options) (*Table, error)

// readers maps a lowercased extension to its parser. New formats go here.
var readers = map[string]readerFunc{
	".csv":  readCSV,
	".xlsx": readXLSX,
	".xls":  readXLS,
	".json": readJSON,
}

// Formats lists the supported extensions in sorted order.
func Formats() []string {
	out := make([]string, 0, len(readers))
	for ext := range readers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Load parses the file at path into a Table, choosing the parser from the
// file extension (case-insensitive).
func Load(path string, opt Options) (*Table, error) {
	ext := filepath.Ext(path)
	read, ok := readers[strings.ToLower(ext)]
	if !ok {
		return nil, &UnsupportedFormatError{Ext: ext}
	}
	t, err := read(path, opt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func missingOrDefault(opt Options) []string {
	if opt.MissingValues == nil {
		return DefaultMissingValues()
	}
	return opt.MissingValues
}

// trimTrailingBlank drops empty rows at the end of a sheet.
func trimTrailingBlank(records [][]string) [][]string {
	for len(records) > 1 {
		last := records[len(records)-1]
		blank := true
		for _, v := range last {
			if strings.TrimSpace(v) != "" {
				blank = false
				break
			}
		}
		if !blank {
			break
		}
		records = records[:len(records)-1]
	}
	return records
}

func wrapRead(kind, path string, err error) error {
	return fmt.Errorf("read %s %s: %w", kind, filepath.Base(path), err)
}

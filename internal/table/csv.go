package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func readCSV(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapRead("csv", path, err)
	}
	defer f.Close()

	name := strings.TrimSpace(opt.Encoding)
	if name == "" {
		name = "utf-8"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("csv encoding %q: %w", name, err)
	}
	// A byte order mark wins over the configured charset.
	src := transform.NewReader(f, unicode.BOMOverride(enc.NewDecoder()))

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.Comma = opt.Delimiter
	if r.Comma == 0 {
		r.Comma = ','
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, wrapRead("csv", path, err)
	}
	return FromRecords(records, missingOrDefault(opt))
}

package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind classifies a column for statistics purposes.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// ErrNoColumns is returned when a source has no header to build columns from.
var ErrNoColumns = errors.New("no columns to parse from file")

// Column is a read-only view over one named column of a Table.
type Column struct {
	s       series.Series
	missing []bool
}

// Name returns the column name.
func (c Column) Name() string { return c.s.Name }

// Len returns the number of rows, missing positions included.
func (c Column) Len() int { return c.s.Len() }

// DType returns the tag of the underlying value type.
func (c Column) DType() string {
	switch c.s.Type() {
	case series.Int:
		return "int64"
	case series.Float:
		return "float64"
	case series.Bool:
		return "bool"
	default:
		return "object"
	}
}

// Kind reports whether the column is numeric or categorical.
func (c Column) Kind() Kind {
	switch c.s.Type() {
	case series.Int, series.Float:
		return KindNumeric
	default:
		return KindCategorical
	}
}

// IsMissing reports whether row i holds no value.
func (c Column) IsMissing(i int) bool { return c.missing[i] }

// Value returns the native value at row i (string, bool, int or float64).
// Missing positions return nil.
func (c Column) Value(i int) any {
	if c.missing[i] {
		return nil
	}
	return c.s.Elem(i).Val()
}

// Key returns the textual form of row i, used to group equal values.
func (c Column) Key(i int) string { return c.s.Elem(i).String() }

// Floats returns every row as float64; missing positions are NaN.
func (c Column) Floats() []float64 { return c.s.Float() }

// Present returns the non-missing values as float64 in row order.
func (c Column) Present() []float64 {
	all := c.s.Float()
	out := make([]float64, 0, len(all))
	for i, v := range all {
		if !c.missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Table is an immutable in-memory dataset of equally sized named columns.
type Table struct {
	df   dataframe.DataFrame
	cols []Column
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.df.Nrow() }

// Width returns the column count.
func (t *Table) Width() int { return len(t.cols) }

// Columns returns the columns in source order.
func (t *Table) Columns() []Column { return t.cols }

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.cols {
		if c.Name() == name {
			return c, true
		}
	}
	return Column{}, false
}

// FromRecords builds a Table from a header row followed by data rows. Cells
// equal to one of missing become missing values; column types are inferred.
// Short rows are padded with missing cells.
func FromRecords(records [][]string, missing []string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrNoColumns
	}
	width := len(records[0])
	for _, rec := range records[1:] {
		if len(rec) > width {
			width = len(rec)
		}
	}
	isMissing := make(map[string]bool, len(missing)+1)
	isMissing["NaN"] = true
	for _, m := range missing {
		isMissing[m] = true
	}

	names := columnNames(records[0], width)
	cols := make([]series.Series, width)
	for j := range cols {
		cells := make([]string, len(records)-1)
		for i, rec := range records[1:] {
			if j < len(rec) && !isMissing[rec[j]] {
				cells[i] = rec[j]
			} else {
				cells[i] = "NaN"
			}
		}
		cols[j] = series.New(cells, detectType(cells), names[j])
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, fmt.Errorf("build table: %w", df.Err)
	}
	return fromDataFrame(df), nil
}

// columnNames labels blank headers "Unnamed: <position>" and suffixes repeats
// with ".1", ".2" and so on; the first occurrence keeps its name.
func columnNames(header []string, width int) []string {
	names := make([]string, width)
	taken := make(map[string]bool, width)
	for j := range names {
		if j < len(header) && header[j] != "" {
			names[j] = header[j]
		} else {
			names[j] = "Unnamed: " + strconv.Itoa(j)
		}
	}
	for j, name := range names {
		if !taken[name] {
			taken[name] = true
			continue
		}
		for n := 1; ; n++ {
			alt := name + "." + strconv.Itoa(n)
			if !taken[alt] {
				names[j] = alt
				taken[alt] = true
				break
			}
		}
	}
	return names
}

// detectType picks the narrowest type every present cell parses as. Integer
// columns with gaps widen to float so missing rows hold NaN; a column that
// mixes booleans with anything else is text.
func detectType(cells []string) series.Type {
	var present, ints, floats, bools int
	for _, c := range cells {
		if c == "NaN" {
			continue
		}
		present++
		if _, err := strconv.Atoi(c); err == nil {
			ints++
		}
		if _, err := strconv.ParseFloat(c, 64); err == nil {
			floats++
		}
		if strings.EqualFold(c, "true") || strings.EqualFold(c, "false") {
			bools++
		}
	}
	switch {
	case present == 0:
		return series.String
	case ints == present && present == len(cells):
		return series.Int
	case floats == present:
		return series.Float
	case bools == present:
		return series.Bool
	default:
		return series.String
	}
}

func fromDataFrame(df dataframe.DataFrame) *Table {
	names := df.Names()
	cols := make([]Column, len(names))
	for i, name := range names {
		s := df.Col(name)
		cols[i] = Column{s: s, missing: s.IsNaN()}
	}
	return &Table{df: df, cols: cols}
}

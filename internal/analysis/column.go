package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabsum/internal/table"
)

// MostCommonNone is reported as most_common when a column has no values.
const MostCommonNone = "N/A"

// ColumnStats captures per-column statistics. Exactly one of Numeric and
// Categorical is set, chosen by the column kind.
type ColumnStats struct {
	DataType       string
	Kind           table.Kind
	NonNullCount   int
	NullCount      int
	NullPercentage string

	Numeric     *NumericStats
	Categorical *CategoricalStats
}

// NumericStats holds descriptive statistics over the non-missing values.
// Undefined results are NaN.
type NumericStats struct {
	Mean   float64
	Median float64
	Std    float64
	Min    float64
	Max    float64
	Q25    float64
	Q75    float64
}

// CategoricalStats holds frequency statistics over the non-missing values.
type CategoricalStats struct {
	UniqueValues int
	MostCommon   any
	// ValueCounts is nil when UniqueValues exceeds the configured limit.
	// Ordered by count descending, ties in first-seen order.
	ValueCounts *orderedmap.OrderedMap[string, int]
}

// SummarizeColumn computes the statistics record for one column.
func SummarizeColumn(col table.Column, opt Options) ColumnStats {
	rows := col.Len()
	nonNull := 0
	for i := 0; i < rows; i++ {
		if !col.IsMissing(i) {
			nonNull++
		}
	}
	s := ColumnStats{
		DataType:       col.DType(),
		Kind:           col.Kind(),
		NonNullCount:   nonNull,
		NullCount:      rows - nonNull,
		NullPercentage: nullPercentage(rows-nonNull, rows),
	}
	if s.Kind == table.KindNumeric {
		s.Numeric = numericStats(col.Present())
	} else {
		s.Categorical = categoricalStats(col, opt.ValueCountsMax)
	}
	return s
}

// nullPercentage formats missing/rows as a percentage. An empty column
// reports 0.00%.
func nullPercentage(missing, rows int) string {
	if rows == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(missing)/float64(rows)*100)
}

func numericStats(vals []float64) *NumericStats {
	n := len(vals)
	if n == 0 {
		nan := math.NaN()
		return &NumericStats{Mean: nan, Median: nan, Std: nan, Min: nan, Max: nan, Q25: nan, Q75: nan}
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)

	ns := &NumericStats{
		Mean:   stat.Mean(vals, nil),
		Median: quantile(sorted, 0.5),
		Std:    math.NaN(),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Q25:    quantile(sorted, 0.25),
		Q75:    quantile(sorted, 0.75),
	}
	if n > 1 {
		// sample standard deviation (N-1)
		ns.Std = stat.StdDev(vals, nil)
	}
	return ns
}

func categoricalStats(col table.Column, limit int) *CategoricalStats {
	type entry struct {
		key   string
		value any
		count int
	}
	var order []*entry
	seen := map[string]*entry{}
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		k := col.Key(i)
		e, ok := seen[k]
		if !ok {
			e = &entry{key: k, value: col.Value(i)}
			seen[k] = e
			order = append(order, e)
		}
		e.count++
	}

	cs := &CategoricalStats{UniqueValues: len(order), MostCommon: MostCommonNone}
	var best *entry
	for _, e := range order {
		if best == nil || e.count > best.count {
			best = e
		}
	}
	if best != nil {
		cs.MostCommon = best.value
	}
	if len(order) <= limit {
		ranked := make([]*entry, len(order))
		copy(ranked, order)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
		cs.ValueCounts = orderedmap.New[string, int](len(ranked))
		for _, e := range ranked {
			cs.ValueCounts.Set(e.key, e.count)
		}
	}
	return cs
}

// quantile interpolates linearly between order statistics at q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON emits the record with a stable key order: the common counts,
// then the numeric or the categorical block.
func (s ColumnStats) MarshalJSON() ([]byte, error) {
	m := orderedmap.New[string, any]()
	m.Set("data_type", s.DataType)
	m.Set("non_null_count", s.NonNullCount)
	m.Set("null_count", s.NullCount)
	m.Set("null_percentage", s.NullPercentage)
	if n := s.Numeric; n != nil {
		m.Set("mean", Float(n.Mean))
		m.Set("median", Float(n.Median))
		m.Set("std", Float(n.Std))
		m.Set("min", Float(n.Min))
		m.Set("max", Float(n.Max))
		m.Set("q25", Float(n.Q25))
		m.Set("q75", Float(n.Q75))
	}
	if c := s.Categorical; c != nil {
		m.Set("unique_values", c.UniqueValues)
		m.Set("most_common", c.MostCommon)
		if c.ValueCounts != nil {
			m.Set("value_counts", c.ValueCounts)
		}
	}
	return m.MarshalJSON()
}

package analysis

import (
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabsum/internal/table"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Get returns the coefficient for the named pair.
func (m *CorrMatrix) Get(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, name := range m.Columns {
		if name == a {
			ia = i
		}
		if name == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// Correlations computes Pearson coefficients between every pair of numeric
// columns, using the rows where both values are present. Pairs with fewer
// than two such rows or zero variance are NaN; the diagonal is 1.
// Returns nil when the table has no numeric column.
func Correlations(cols []table.Column) *CorrMatrix {
	var names []string
	var data [][]float64
	for _, c := range cols {
		if c.Kind() != table.KindNumeric {
			continue
		}
		names = append(names, c.Name())
		data = append(data, c.Floats())
	}
	if len(names) == 0 {
		return nil
	}

	n := len(names)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(data[a], data[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

func pearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// MarshalJSON encodes the matrix as {column: {column: r}} in column order.
func (m *CorrMatrix) MarshalJSON() ([]byte, error) {
	out := orderedmap.New[string, *orderedmap.OrderedMap[string, Float]](len(m.Columns))
	for i, a := range m.Columns {
		row := orderedmap.New[string, Float](len(m.Columns))
		for j, b := range m.Columns {
			row.Set(b, Float(m.Values[i][j]))
		}
		out.Set(a, row)
	}
	return out.MarshalJSON()
}

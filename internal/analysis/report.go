package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/KaramelBytes/tabsum/internal/table"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	// Table configures the file readers.
	Table table.Options
	// ValueCountsMax is the largest distinct count for which categorical
	// columns include value_counts.
	ValueCountsMax int
	// Logger receives progress and failure records; nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		Table:          table.DefaultOptions(),
		ValueCountsMax: 10,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Report is the statistical summary of one tabular file.
type Report struct {
	FileInfo     FileInfo                                    `json:"file_info"`
	ColumnInfo   *orderedmap.OrderedMap[string, ColumnStats] `json:"column_info"`
	SummaryStats SummaryStats                                `json:"summary_stats"`
}

// FileInfo describes the analyzed file.
type FileInfo struct {
	Filename string `json:"filename"`
	FileSize string `json:"file_size"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
}

// SummaryStats holds cross-column results.
type SummaryStats struct {
	// CorrelationMatrix is nil when the table has no numeric column.
	CorrelationMatrix *CorrMatrix `json:"correlation_matrix,omitempty"`
}

// Error wraps any failure while loading or summarizing a file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("analyze %s: %v", e.Path, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Analyze loads the file at path and builds its Report. Unsupported
// extensions return *table.UnsupportedFormatError; every other failure,
// panics included, returns *Error. No partial report is ever returned.
func Analyze(path string, opt Options) (rep *Report, err error) {
	log := opt.logger().With(slog.String("file", filepath.Base(path)))
	defer func() {
		if r := recover(); r != nil {
			rep = nil
			err = &Error{Path: path, Err: fmt.Errorf("%v", r)}
		}
		if err != nil {
			log.Warn("analysis failed", slog.String("error", err.Error()))
		}
	}()

	tbl, err := table.Load(path, opt.Table)
	if err != nil {
		var uf *table.UnsupportedFormatError
		if errors.As(err, &uf) {
			return nil, err
		}
		return nil, &Error{Path: path, Err: err}
	}
	log.Debug("table loaded", slog.Int("rows", tbl.Rows()), slog.Int("columns", tbl.Width()))

	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	rep = &Report{
		FileInfo: FileInfo{
			Filename: filepath.Base(path),
			FileSize: fmt.Sprintf("%.2f KB", float64(info.Size())/1024),
			Rows:     tbl.Rows(),
			Columns:  tbl.Width(),
		},
		ColumnInfo: orderedmap.New[string, ColumnStats](tbl.Width()),
	}
	for _, col := range tbl.Columns() {
		rep.ColumnInfo.Set(col.Name(), SummarizeColumn(col, opt))
	}
	rep.SummaryStats.CorrelationMatrix = Correlations(tbl.Columns())

	log.Debug("analysis complete", slog.Int("columns", rep.ColumnInfo.Len()))
	return rep, nil
}

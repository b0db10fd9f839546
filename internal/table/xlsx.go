package table

import (
	"errors"
	"fmt"

	"github.com/extrame/xls"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

var (
	errNoSheets   = errors.New("workbook has no worksheets")
	errNoWorkbook = errors.New("no workbook stream found")
)

// readXLSX loads the first worksheet of an Office Open XML workbook.
func readXLSX(path string, opt Options) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch opt.ExcelEngine {
	case "", EngineExcelize:
		records, err = excelizeRows(path)
	case EngineTealeg:
		records, err = tealegRows(path)
	default:
		return nil, fmt.Errorf("unknown excel engine %q", opt.ExcelEngine)
	}
	if err != nil {
		return nil, wrapRead("xlsx", path, err)
	}
	return FromRecords(trimTrailingBlank(records), missingOrDefault(opt))
}

func excelizeRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoSheets
	}
	// raw values keep number formats from leaking into the cell text
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		for j, v := range row {
			if v != "0" && v != "1" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			if ct, _ := f.GetCellType(sheets[0], name); ct == excelize.CellTypeBool {
				row[j] = boolText(v == "1")
			}
		}
	}
	return rows, nil
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func tealegRows(path string) ([][]string, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}
	if len(wb.Sheets) == 0 {
		return nil, errNoSheets
	}
	sheet := wb.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			records = append(records, nil)
			continue
		}
		rec := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			if cell == nil {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, tealegText(cell))
		}
		records = append(records, rec)
	}
	return records, nil
}

func tealegText(cell *xlsx.Cell) string {
	switch cell.Type() {
	case xlsx.CellTypeNumeric:
		return cell.Value
	case xlsx.CellTypeBool:
		return boolText(cell.Bool())
	default:
		return cell.String()
	}
}

// readXLS loads the first worksheet of a legacy BIFF (.xls) workbook.
func readXLS(path string, opt Options) (*Table, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, wrapRead("xls", path, err)
	}
	if wb == nil {
		return nil, wrapRead("xls", path, errNoWorkbook)
	}
	if wb.NumSheets() == 0 {
		return nil, wrapRead("xls", path, errNoSheets)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, wrapRead("xls", path, errNoSheets)
	}
	rows := make([]*xls.Row, int(sheet.MaxRow)+1)
	width := 0
	for i := range rows {
		rows[i] = xlsRow(sheet, i)
		if rows[i] != nil && rows[i].LastCol() > width {
			width = rows[i].LastCol()
		}
	}
	records := make([][]string, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		rec := make([]string, width)
		for j := range rec {
			rec[j] = row.Col(j)
		}
		records[i] = rec
	}
	return FromRecords(trimTrailingBlank(records), missingOrDefault(opt))
}

// xlsRow returns nil for rows the sheet never recorded; the xls reader
// dereferences a nil row in that case.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadCSVInfersKinds(t *testing.T) {
	p := writeFile(t, "harvest.csv", "plot,yield,ratio,ok\nA1,12,0.5,true\nB3,,0.75,false\nA1,9,,true\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, 4, tbl.Width())

	want := []struct {
		name  string
		dtype string
		kind  Kind
	}{
		{"plot", "object", KindCategorical},
		{"yield", "float64", KindNumeric},
		{"ratio", "float64", KindNumeric},
		{"ok", "bool", KindCategorical},
	}
	for i, c := range tbl.Columns() {
		assert.Equal(t, want[i].name, c.Name())
		assert.Equal(t, want[i].dtype, c.DType(), c.Name())
		assert.Equal(t, want[i].kind, c.Kind(), c.Name())
		assert.Equal(t, 3, c.Len())
	}

	yield, ok := tbl.Column("yield")
	require.True(t, ok)
	assert.False(t, yield.IsMissing(0))
	assert.True(t, yield.IsMissing(1))
	assert.Equal(t, []float64{12, 9}, yield.Present())
	assert.Nil(t, yield.Value(1))
}

func TestLoadExtensionIsCaseInsensitive(t *testing.T) {
	p := writeFile(t, "DATA.CSV", "a\n1\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Rows())
}

func TestLoadUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"notes.txt", "README", "data.Parquet"} {
		_, err := Load(filepath.Join(t.TempDir(), name), DefaultOptions())
		var uf *UnsupportedFormatError
		require.ErrorAs(t, err, &uf, name)
		assert.Equal(t, "Unsupported file format: "+filepath.Ext(name), err.Error())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadHeaderOnlyCSV(t *testing.T) {
	p := writeFile(t, "empty.csv", "a,b\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Rows())
	require.Equal(t, 2, tbl.Width())
	for _, c := range tbl.Columns() {
		assert.Equal(t, "object", c.DType())
		assert.Equal(t, 0, c.Len())
	}
}

func TestLoadEmptyCSV(t *testing.T) {
	p := writeFile(t, "blank.csv", "")
	_, err := Load(p, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestLoadCSVRaggedRowsArePadded(t *testing.T) {
	p := writeFile(t, "ragged.csv", "a,b,c\n1,2,3\n4\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	c, _ := tbl.Column("c")
	assert.True(t, c.IsMissing(1))
	assert.Equal(t, KindNumeric, c.Kind())
}

func TestLoadCSVDelimiterAndEncoding(t *testing.T) {
	// "Größe" in ISO-8859-1
	content := []byte("name;Gr\xf6\xdfe\nx;1,5\ny;2\n")
	p := filepath.Join(t.TempDir(), "latin.csv")
	require.NoError(t, os.WriteFile(p, content, 0o644))

	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.Encoding = "latin1"
	tbl, err := Load(p, opt)
	require.NoError(t, err)
	_, ok := tbl.Column("Größe")
	assert.True(t, ok)
}

func TestLoadCSVStripsBOM(t *testing.T) {
	p := writeFile(t, "bom.csv", "\ufeffid,v\n1,2\n")
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "id", tbl.Columns()[0].Name())
}

func TestLoadCSVUnknownEncoding(t *testing.T) {
	p := writeFile(t, "x.csv", "a\n1\n")
	opt := DefaultOptions()
	opt.Encoding = "klingon-8"
	_, err := Load(p, opt)
	assert.Error(t, err)
}

func TestLoadCSVCustomMissingValues(t *testing.T) {
	p := writeFile(t, "dash.csv", "v\n1\n-\n3\n")
	opt := DefaultOptions()
	opt.MissingValues = []string{"-"}
	tbl, err := Load(p, opt)
	require.NoError(t, err)
	c := tbl.Columns()[0]
	assert.Equal(t, KindNumeric, c.Kind())
	assert.True(t, c.IsMissing(1))
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestLoadXLSXEngines(t *testing.T) {
	p := writeWorkbook(t, [][]any{
		{"city", "temp"},
		{"Oslo", 4.5},
		{"Rome", 18},
		{"Oslo", nil},
	})
	for _, engine := range []string{EngineExcelize, EngineTealeg} {
		t.Run(engine, func(t *testing.T) {
			opt := DefaultOptions()
			opt.ExcelEngine = engine
			tbl, err := Load(p, opt)
			require.NoError(t, err)
			assert.Equal(t, 3, tbl.Rows())
			city, _ := tbl.Column("city")
			assert.Equal(t, KindCategorical, city.Kind())
			temp, _ := tbl.Column("temp")
			assert.Equal(t, KindNumeric, temp.Kind())
			assert.True(t, temp.IsMissing(2))
		})
	}
}

func TestLoadXLSXUnknownEngine(t *testing.T) {
	p := writeWorkbook(t, [][]any{{"a"}, {1}})
	opt := DefaultOptions()
	opt.ExcelEngine = "calc"
	_, err := Load(p, opt)
	assert.Error(t, err)
}

func TestLoadCorruptXLSX(t *testing.T) {
	p := writeFile(t, "broken.xlsx", "not a zip archive")
	_, err := Load(p, DefaultOptions())
	assert.Error(t, err)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{".csv", ".json", ".xls", ".xlsx"}, Formats())
}

func TestLoadXLSXReadsValuesNotDisplayText(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"amount", "paid"}))
	require.NoError(t, f.SetCellValue(sheet, "A2", 1234.5))
	require.NoError(t, f.SetCellValue(sheet, "A3", 2000))
	require.NoError(t, f.SetCellValue(sheet, "A4", 0.25))
	require.NoError(t, f.SetCellValue(sheet, "B2", true))
	require.NoError(t, f.SetCellValue(sheet, "B3", false))
	require.NoError(t, f.SetCellValue(sheet, "B4", true))
	// #,##0.00
	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A2", "A4", style))
	p := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	for _, engine := range []string{EngineExcelize, EngineTealeg} {
		t.Run(engine, func(t *testing.T) {
			opt := DefaultOptions()
			opt.ExcelEngine = engine
			tbl, err := Load(p, opt)
			require.NoError(t, err)

			amount, _ := tbl.Column("amount")
			assert.Equal(t, "float64", amount.DType())
			assert.Equal(t, KindNumeric, amount.Kind())
			assert.Equal(t, []float64{1234.5, 2000, 0.25}, amount.Present())

			paid, _ := tbl.Column("paid")
			assert.Equal(t, "bool", paid.DType())
			assert.Equal(t, true, paid.Value(0))
			assert.Equal(t, false, paid.Value(1))
		})
	}
}

func TestLoadXLSFixture(t *testing.T) {
	tbl, err := Load(filepath.Join("testdata", "sales.xls"), DefaultOptions())
	require.NoError(t, err)

	// row 4 of the sheet has no cells at all
	assert.Equal(t, 5, tbl.Rows())
	require.Equal(t, 4, tbl.Width())

	want := []struct {
		name    string
		dtype   string
		missing []int
	}{
		{"region", "object", []int{3}},
		{"units", "float64", []int{1, 3}},
		{"price", "float64", []int{3}},
		{"note", "object", []int{1, 3}},
	}
	for i, c := range tbl.Columns() {
		assert.Equal(t, want[i].name, c.Name())
		assert.Equal(t, want[i].dtype, c.DType(), c.Name())
		var missing []int
		for r := 0; r < c.Len(); r++ {
			if c.IsMissing(r) {
				missing = append(missing, r)
			}
		}
		assert.Equal(t, want[i].missing, missing, c.Name())
	}

	units, _ := tbl.Column("units")
	assert.Equal(t, []float64{12, 7, 3}, units.Present())
	price, _ := tbl.Column("price")
	assert.Equal(t, []float64{2.5, 3.75, 4, 1.5}, price.Present())
	region, _ := tbl.Column("region")
	assert.Equal(t, "south", region.Value(1))
	assert.Equal(t, "east", region.Value(4))
}

func TestLoadCorruptXLS(t *testing.T) {
	p := writeFile(t, "broken.xls", "plain text, not a compound document")
	_, err := Load(p, DefaultOptions())
	assert.Error(t, err)
}

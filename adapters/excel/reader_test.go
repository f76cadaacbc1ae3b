package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"biasev/domain/dataset"
	"biasev/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const biaCSV = `Fat%,Muscle%,ECW_TBW,Severity
35.0,20.0,0.40,2.1
28.5,31.2,0.38,1.2
41.3,18.4,0.43,3.0
`

func workbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadCSVPreservesHeaderAndRowCount(t *testing.T) {
	reader := NewDataReader(nil)

	table, err := reader.Read(strings.NewReader(biaCSV), dataset.FormatCSV, "bia.csv")
	require.NoError(t, err)

	assert.Equal(t, "bia.csv", table.Name)
	assert.Equal(t, dataset.FormatCSV, table.Format)
	assert.Equal(t, []string{"Fat%", "Muscle%", "ECW_TBW", "Severity"}, table.Columns)
	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, []string{"41.3", "18.4", "0.43", "3.0"}, table.Rows[2])
}

func TestReadCSVStripsByteOrderMark(t *testing.T) {
	table, err := NewDataReader(nil).Read(strings.NewReader("\ufeffa,b\n1,2\n"), dataset.FormatCSV, "bom.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
}

func TestReadCSVKeepsHeaderTextAndEmptyRows(t *testing.T) {
	input := " Fat%,Muscle% ,Severity\n35,20,2.1\n,,\n28,31,1.2\n"

	table, err := NewDataReader(nil).Read(strings.NewReader(input), dataset.FormatCSV, "spaced.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{" Fat%", "Muscle% ", "Severity"}, table.Columns)
	require.Equal(t, 3, table.NumRows())
	assert.Equal(t, []string{"", "", ""}, table.Rows[1])
	assert.True(t, table.HasColumn(" Fat%"))
}

func TestReadCSVHeaderOnly(t *testing.T) {
	table, err := NewDataReader(nil).Read(strings.NewReader("a,b\n"), dataset.FormatCSV, "empty.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, table.NumRows())
	assert.Equal(t, 2, table.NumColumns())
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unterminated quote", "a,b\n\"1,2\n"},
		{"too many fields", "a,b\n1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataReader(nil).Read(strings.NewReader(tt.input), dataset.FormatCSV, "bad.csv")
			require.Error(t, err)
			assert.Equal(t, errors.CodeParseError, errors.GetCode(err))
		})
	}
}

func TestReadExcelUsesFirstSheet(t *testing.T) {
	data := workbook(t, "Patients", [][]interface{}{
		{"Fat%", "Muscle%", "Severity"},
		{35.5, 20, 2.25},
		{28, 31.5, 1},
	})

	table, err := NewDataReader(nil).Read(bytes.NewReader(data), dataset.FormatXLSX, "bia.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Fat%", "Muscle%", "Severity"}, table.Columns)
	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, []string{"35.5", "20", "2.25"}, table.Rows[0])
}

func TestReadExcelIgnoresNumberFormats(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Fat%", "Cells", "Severity"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{0.35, 1234, 2.1}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{0.285, 56789, 1.2}))

	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A3", percent))
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B3", thousands))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := NewDataReader(nil).Read(bytes.NewReader(buf.Bytes()), dataset.FormatXLSX, "styled.xlsx")
	require.NoError(t, err)

	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, []string{"0.35", "1234", "2.1"}, table.Rows[0])

	fat, ok := table.NumericColumn("Fat%")
	require.True(t, ok)
	assert.Equal(t, []float64{0.35, 0.285}, fat)

	cells, ok := table.NumericColumn("Cells")
	require.True(t, ok)
	assert.Equal(t, []float64{1234, 56789}, cells)
}

func TestReadExcelRejectsGarbage(t *testing.T) {
	_, err := NewDataReader(nil).Read(strings.NewReader(biaCSV), dataset.FormatXLSX, "fake.xlsx")
	require.Error(t, err)
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))
}

func TestReadUnknownFormat(t *testing.T) {
	_, err := NewDataReader(nil).Read(strings.NewReader(biaCSV), dataset.Format("parquet"), "x.parquet")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestFormatFromFilename(t *testing.T) {
	format, err := FormatFromFilename("Export.CSV")
	require.NoError(t, err)
	assert.Equal(t, dataset.FormatCSV, format)

	format, err = FormatFromFilename("clinic/visits.xlsx")
	require.NoError(t, err)
	assert.Equal(t, dataset.FormatXLSX, format)

	_, err = FormatFromFilename("legacy.xls")
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bia.csv")
	require.NoError(t, os.WriteFile(path, []byte(biaCSV), 0o600))

	table, err := NewDataReader(nil).ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bia.csv", table.Name)
	assert.Equal(t, 3, table.NumRows())

	_, err = NewDataReader(nil).ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))
}

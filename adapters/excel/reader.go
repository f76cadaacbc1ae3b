package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"biasev/domain/dataset"
	"biasev/internal/errors"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DataReader parses uploaded CSV and Excel files into tables
type DataReader struct {
	logger *zap.Logger
}

// NewDataReader creates a new data reader
func NewDataReader(logger *zap.Logger) *DataReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataReader{logger: logger.Named("reader")}
}

// FormatFromFilename maps a file extension to a declared format
func FormatFromFilename(filename string) (dataset.Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return dataset.FormatCSV, nil
	case ".xlsx":
		return dataset.FormatXLSX, nil
	default:
		return "", errors.InvalidInput("only CSV (.csv) and Excel (.xlsx) files are supported")
	}
}

// ReadFile reads a table from disk, choosing the format from the extension
func (r *DataReader) ReadFile(path string) (*dataset.Table, error) {
	format, err := FormatFromFilename(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()
	return r.Read(f, format, filepath.Base(path))
}

// Read parses a byte stream in the declared format
func (r *DataReader) Read(src io.Reader, format dataset.Format, name string) (*dataset.Table, error) {
	start := time.Now()

	var (
		table *dataset.Table
		err   error
	)
	switch format {
	case dataset.FormatCSV:
		table, err = r.readCSV(src, name)
	case dataset.FormatXLSX:
		table, err = r.readExcel(src, name)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file format %q", format))
	}
	if err != nil {
		r.logger.Warn("Failed to parse upload",
			zap.String("file", name),
			zap.String("format", string(format)),
			zap.Error(err))
		return nil, err
	}

	r.logger.Info("Parsed upload",
		zap.String("file", name),
		zap.String("format", string(format)),
		zap.Int("columns", table.NumColumns()),
		zap.Int("rows", table.NumRows()),
		zap.Duration("elapsed", time.Since(start)))
	return table, nil
}

// readCSV reads comma-separated data. Rows wider than the header are rejected.
func (r *DataReader) readCSV(src io.Reader, name string) (*dataset.Table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError("failed to read CSV file", err)
	}
	if len(rows) == 0 {
		return nil, errors.ParseError("CSV file is empty", nil)
	}

	header := rows[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, errors.ParseError(
				fmt.Sprintf("line %d has %d fields, expected %d", i+2, len(row), len(header)), nil)
		}
	}

	return dataset.NewTable(name, dataset.FormatCSV, header, rows[1:]), nil
}

// readExcel reads the first worksheet of an xlsx workbook
func (r *DataReader) readExcel(src io.Reader, name string) (*dataset.Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.ParseError("failed to open Excel file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError("Excel file has no worksheets", nil)
	}

	// Raw values keep number-formatted cells parseable ("0.35", not "35.00%")
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, errors.ParseError(fmt.Sprintf("sheet %q is empty", sheets[0]), nil)
	}

	r.logger.Debug("Read worksheet", zap.String("sheet", sheets[0]), zap.Int("rows", len(rows)))
	return dataset.NewTable(name, dataset.FormatXLSX, rows[0], rows[1:]), nil
}

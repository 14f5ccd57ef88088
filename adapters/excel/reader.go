package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gostatlab/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath  string
	fileType  string // "xlsx" or "csv"
	separator rune
	sheet     string
}

// ReaderOption customizes a DataReader.
type ReaderOption func(*DataReader)

// WithSeparator sets the CSV field separator (default ',').
func WithSeparator(sep rune) ReaderOption {
	return func(r *DataReader) { r.separator = sep }
}

// WithSheet selects the worksheet to read from an xlsx file. The first
// sheet of the workbook is used by default.
func WithSheet(name string) ReaderOption {
	return func(r *DataReader) { r.sheet = name }
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, opts ...ReaderOption) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	r := &DataReader{filePath: filePath, fileType: fileType, separator: ','}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadTable reads the whole file into a dataset.Table
func (r *DataReader) ReadTable() (*dataset.Table, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the selected worksheet
func (r *DataReader) readExcelData() (*dataset.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*dataset.Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return r.ReadCSV(file)
}

// ReadCSV parses CSV content from any reader using the configured separator.
func (r *DataReader) ReadCSV(src io.Reader) (*dataset.Table, error) {
	reader := csv.NewReader(src)
	reader.Comma = r.separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// processRows converts raw string rows into a table
func (r *DataReader) processRows(rows [][]string) (*dataset.Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	table, err := dataset.NewTable(rows[0], rows[1:])
	if err != nil {
		return nil, err
	}

	nRows, nCols := table.Dimensions()
	log.Printf("[DataReader] %s file processed (%d columns, %d rows)", strings.ToUpper(r.fileType), nCols, nRows)
	return table, nil
}

// ReadHeaderless reads a single-column file that has no header row, such
// as a list of measurements, and names the column "value".
func (r *DataReader) ReadHeaderless() (*dataset.Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = r.separator
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		rows = append(rows, rec[:1])
	}
	return dataset.NewTable([]string{"value"}, rows)
}

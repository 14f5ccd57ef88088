package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"gostatlab/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name used when exporting tables.
const DefaultSheet = "Sheet1"

// WriteXLSX writes table to path as a single-sheet workbook. Numeric cells
// are written as numbers so spreadsheet formulas work on them.
func WriteXLSX(path string, table *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(DefaultSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.Rows {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			if v, ok := dataset.ParseNumber(cell); ok {
				values[j] = v
			} else {
				values[j] = cell
			}
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(ref, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	log.Printf("[DataWriter] Wrote %d rows to %s", len(table.Rows), path)
	return nil
}

// WriteCSV writes table to path using sep as the field separator.
func WriteCSV(path string, table *dataset.Table, sep rune) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = sep
	if err := w.Write(table.Headers); err != nil {
		return err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}

	log.Printf("[DataWriter] Wrote %d rows to %s", len(table.Rows), path)
	return nil
}

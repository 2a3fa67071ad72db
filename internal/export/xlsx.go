// internal/export/xlsx.go
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the same header and rows as WriteCSV into a single sheet workbook.
func WriteXLSX[T any](w io.Writer, sheet string, columns []Column[T], rows []T) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if sheet != "" && sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else {
		sheet = defaultSheet
	}

	header := make([]any, 0, len(columns))
	for _, column := range columns {
		header = append(header, column.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		values := make([]any, 0, len(columns))
		for _, column := range columns {
			values = append(values, column.Value(row))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

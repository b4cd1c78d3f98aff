package export

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements SheetWriter by saving a local .xlsx workbook.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer that saves to path, replacing any existing file.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write creates a workbook with one worksheet per entry and saves it.
func (w *XLSXWriter) Write(_ context.Context, data map[string][][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	names := slices.Sorted(maps.Keys(data))
	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("renaming sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}

		for r, row := range data[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return fmt.Errorf("addressing row %d: %w", r+1, err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("writing %s row %d: %w", name, r+1, err)
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving %s: %w", w.path, err)
	}
	return nil
}

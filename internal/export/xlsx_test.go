package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXWriterWritesAllSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wealth.xlsx")
	s := sampleSeries()

	err := NewXLSXWriter(path).Write(context.Background(), map[string][][]any{
		SeriesSheet: buildSeriesRows(s),
		AssetsSheet: buildAssetRows(s),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != AssetsSheet || got[1] != SeriesSheet {
		t.Errorf("sheets = %v, want [ASSETS SERIES]", got)
	}

	rows, err := f.GetRows(SeriesSheet)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("series rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "Date" || rows[3][0] != "2024-01-03" || rows[3][1] != "250.5" {
		t.Errorf("series rows = %v", rows)
	}

	assets, err := f.GetRows(AssetsSheet)
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(assets) != 3 || assets[2][0] != "Broker" {
		t.Errorf("asset rows = %v", assets)
	}
}

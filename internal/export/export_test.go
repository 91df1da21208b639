package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

func sampleItems() []models.CatalogueItem {
	return []models.CatalogueItem{
		{ItemCode: "mug-1", ItemName: "Coffee Mug", Legend: models.LegendMerch,
			PricingType: models.PricingFixed, Points: 150, Stock: 10, CommittedStock: 2},
		{ItemCode: "banner-1", ItemName: "Banner", Legend: models.LegendAsset,
			PricingType: models.PricingPerSqft, Multiplier: 2.5, Points: 0, Stock: 5},
		{ItemCode: "keychain-1", ItemName: "Keychain", Legend: models.LegendGiveaway,
			PricingType: models.PricingFixed, Points: 20, Stock: 100},
	}
}

func TestBuildTableRejectsEmptyColumns(t *testing.T) {
	_, _, err := BuildTable(sampleItems(), Options{})
	if !errors.Is(err, ErrNoColumns) {
		t.Fatalf("expected ErrNoColumns, got %v", err)
	}
}

func TestBuildTableRejectsUnknownColumn(t *testing.T) {
	_, _, err := BuildTable(sampleItems(), Options{Columns: []string{"item_code", "barcode"}})
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestBuildTableRejectsUnknownSortColumn(t *testing.T) {
	_, _, err := BuildTable(sampleItems(), Options{Columns: []string{"item_code"}, SortBy: "barcode"})
	if err == nil {
		t.Fatal("expected error for unknown sort column")
	}
}

func TestBuildTableFormatsEnumLabels(t *testing.T) {
	headers, rows, err := BuildTable(sampleItems(), Options{
		Columns: []string{"item_name", "legend", "pricing_type", "available_stock"},
	})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	if len(headers) != 4 || headers[1] != "Legend" {
		t.Errorf("unexpected headers: %v", headers)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// First item: MERCH formats to "Merchandise", available = 10 - 2.
	if rows[0][1] != "Merchandise" {
		t.Errorf("expected legend label 'Merchandise', got %q", rows[0][1])
	}
	if rows[0][2] != "Fixed" {
		t.Errorf("expected pricing label 'Fixed', got %q", rows[0][2])
	}
	if rows[0][3] != "8" {
		t.Errorf("expected available stock 8, got %q", rows[0][3])
	}
}

func TestBuildTableSortsNumerically(t *testing.T) {
	_, rows, err := BuildTable(sampleItems(), Options{
		Columns: []string{"item_code", "points"},
		SortBy:  "points",
	})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	// Ascending by points: banner (0), keychain (20), mug (150).
	want := []string{"banner-1", "keychain-1", "mug-1"}
	for i, code := range want {
		if rows[i][0] != code {
			t.Errorf("row %d: expected %q, got %q", i, code, rows[i][0])
		}
	}

	_, rows, err = BuildTable(sampleItems(), Options{
		Columns:   []string{"item_code"},
		SortBy:    "points",
		SortOrder: "desc",
	})
	if err != nil {
		t.Fatalf("BuildTable desc: %v", err)
	}
	if rows[0][0] != "mug-1" {
		t.Errorf("descending sort: expected mug-1 first, got %q", rows[0][0])
	}
}

func TestBuildTableDescendingSortIsStable(t *testing.T) {
	// Two items share the same points value; a descending sort must
	// keep their input order rather than flipping them.
	items := []models.CatalogueItem{
		{ItemCode: "pen-1", Points: 20},
		{ItemCode: "pen-2", Points: 20},
		{ItemCode: "mug-1", Points: 150},
	}

	_, rows, err := BuildTable(items, Options{
		Columns:   []string{"item_code"},
		SortBy:    "points",
		SortOrder: "desc",
	})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	want := []string{"mug-1", "pen-1", "pen-2"}
	for i, code := range want {
		if rows[i][0] != code {
			t.Errorf("row %d: expected %q, got %q", i, code, rows[i][0])
		}
	}
}

func TestWriteExcelProducesWorkbook(t *testing.T) {
	headers, rows, err := BuildTable(sampleItems(), Options{
		Columns: []string{"item_code", "item_name", "points"},
	})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteExcel(&buf, headers, rows); err != nil {
		t.Fatalf("WriteExcel: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty workbook")
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(buf.Bytes(), []byte("PK")) {
		t.Error("expected zip magic bytes at start of workbook")
	}
}

func TestWritePDFProducesDocument(t *testing.T) {
	headers, rows, err := BuildTable(sampleItems(), Options{
		Columns: []string{"item_code", "item_name"},
	})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, headers, rows); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("expected PDF header at start of document")
	}
}

// Package export turns catalogue rows into downloadable PDF or Excel
// files. Enum values are formatted into their display labels before
// writing, and a selection with no valid columns is rejected before
// any bytes are produced.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
	"github.com/xuri/excelize/v2"
)

// Supported output formats.
const (
	FormatPDF   = "pdf"
	FormatExcel = "excel"
)

// ErrNoColumns is returned when the column selection is empty.
var ErrNoColumns = errors.New("at least one column must be selected")

// Column maps a selectable column key to its header label.
type Column struct {
	Key    string
	Header string
}

// CatalogueColumns lists every exportable column in display order.
var CatalogueColumns = []Column{
	{"item_code", "Item Code"},
	{"item_name", "Item Name"},
	{"description", "Description"},
	{"legend", "Legend"},
	{"pricing_type", "Pricing Type"},
	{"points", "Points"},
	{"multiplier", "Multiplier"},
	{"price", "Price"},
	{"stock", "Stock"},
	{"committed_stock", "Committed"},
	{"available_stock", "Available"},
	{"is_archived", "Archived"},
}

// Keys that sort numerically rather than as strings.
var numericKeys = map[string]bool{
	"points":          true,
	"multiplier":      true,
	"price":           true,
	"stock":           true,
	"committed_stock": true,
	"available_stock": true,
}

// Options configures one export run.
type Options struct {
	Columns   []string
	SortBy    string
	SortOrder string // "asc" (default) or "desc"
}

// BuildTable validates the column selection, sorts the items and
// renders every cell to a string. Returns headers plus data rows.
func BuildTable(items []models.CatalogueItem, opts Options) ([]string, [][]string, error) {
	if len(opts.Columns) == 0 {
		return nil, nil, ErrNoColumns
	}

	known := map[string]Column{}
	for _, col := range CatalogueColumns {
		known[col.Key] = col
	}

	var headers []string
	for _, key := range opts.Columns {
		col, ok := known[key]
		if !ok {
			return nil, nil, fmt.Errorf("unknown export column %q", key)
		}
		headers = append(headers, col.Header)
	}

	if opts.SortBy != "" {
		if _, ok := known[opts.SortBy]; !ok {
			return nil, nil, fmt.Errorf("unknown sort column %q", opts.SortBy)
		}
		sorted := make([]models.CatalogueItem, len(items))
		copy(sorted, items)
		desc := opts.SortOrder == "desc"
		sort.SliceStable(sorted, func(i, j int) bool {
			// Swapping the operands keeps equal keys "not less" both
			// ways, so the stable sort preserves their input order.
			if desc {
				return lessByKey(sorted[j], sorted[i], opts.SortBy)
			}
			return lessByKey(sorted[i], sorted[j], opts.SortBy)
		})
		items = sorted
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, 0, len(opts.Columns))
		for _, key := range opts.Columns {
			row = append(row, cellValue(item, key))
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

func lessByKey(a, b models.CatalogueItem, key string) bool {
	if numericKeys[key] {
		return numericValue(a, key) < numericValue(b, key)
	}
	return cellValue(a, key) < cellValue(b, key)
}

func numericValue(item models.CatalogueItem, key string) float64 {
	switch key {
	case "points":
		return float64(item.Points)
	case "multiplier":
		return item.Multiplier
	case "price":
		return item.Price
	case "stock":
		return float64(item.Stock)
	case "committed_stock":
		return float64(item.CommittedStock)
	case "available_stock":
		return float64(item.Stock - item.CommittedStock)
	}
	return 0
}

func cellValue(item models.CatalogueItem, key string) string {
	switch key {
	case "item_code":
		return item.ItemCode
	case "item_name":
		return item.ItemName
	case "description":
		return item.Description
	case "legend":
		return models.LegendLabel(item.Legend)
	case "pricing_type":
		return models.PricingTypeLabel(item.PricingType)
	case "points":
		return strconv.Itoa(item.Points)
	case "multiplier":
		return strconv.FormatFloat(item.Multiplier, 'f', 2, 64)
	case "price":
		return strconv.FormatFloat(item.Price, 'f', 2, 64)
	case "stock":
		return strconv.Itoa(item.Stock)
	case "committed_stock":
		return strconv.Itoa(item.CommittedStock)
	case "available_stock":
		return strconv.Itoa(item.Stock - item.CommittedStock)
	case "is_archived":
		if item.IsArchived {
			return "Yes"
		}
		return "No"
	}
	return ""
}

// WriteExcel writes the table as an XLSX workbook.
func WriteExcel(w io.Writer, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Catalogue"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for i, value := range row {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// WritePDF writes the table as a landscape A4 PDF.
func WritePDF(w io.Writer, headers []string, rows [][]string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Catalogue Export", false)
	pdf.AddPage()

	// Landscape A4 is 297mm wide; leave 10mm margins each side.
	colWidth := 277.0 / float64(len(headers))

	pdf.SetFont("Arial", "B", 9)
	for _, header := range headers {
		pdf.CellFormat(colWidth, 7, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		for _, value := range row {
			pdf.CellFormat(colWidth, 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

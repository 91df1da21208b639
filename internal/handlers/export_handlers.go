package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/export"
)

// ExportCatalogueInput defines the JSON input for POST /api/catalogue/export/
type ExportCatalogueInput struct {
	Format          string   `json:"format" binding:"required,oneof=pdf excel"`
	Columns         []string `json:"columns"`
	SortBy          string   `json:"sort_by"`
	SortOrder       string   `json:"sort_order" binding:"omitempty,oneof=asc desc"`
	IncludeArchived bool     `json:"include_archived"`
}

// ExportCatalogue is the handler for POST /api/catalogue/export/
// Validation failures (including an empty column selection) return
// 400 before any file bytes are generated.
func (h *Handlers) ExportCatalogue(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input ExportCatalogueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Fetch Rows ---
	suffix := " ORDER BY item_name ASC, item_code ASC"
	args := []interface{}{}
	if !input.IncludeArchived {
		suffix = " WHERE is_archived = ?" + suffix
		args = append(args, false)
	}
	items, err := h.queryCatalogueItems(suffix, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	// 3. --- Build the Table ---
	headers, rows, err := export.BuildTable(items, export.Options{
		Columns:   input.Columns,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
	})
	if err != nil {
		if errors.Is(err, export.ErrNoColumns) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Select at least one column to export"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 4. --- Write the File ---
	var buf bytes.Buffer
	filename := "catalogue-" + time.Now().Format("2006-01-02")

	switch input.Format {
	case export.FormatExcel:
		if err := export.WriteExcel(&buf, headers, rows); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate Excel file"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	case export.FormatPDF:
		if err := export.WritePDF(&buf, headers, rows); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF file"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}

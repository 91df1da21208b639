package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

//
// --- Catalogue Handlers ---
//

// VariantInput is one variant row of a catalogue item.
type VariantInput struct {
	ItemCode    string  `json:"item_code"`
	Points      int     `json:"points" binding:"gte=0"`
	Multiplier  float64 `json:"multiplier" binding:"gte=0"`
	Price       float64 `json:"price" binding:"gte=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
	MinOrderQty int     `json:"min_order_qty" binding:"gte=0"`
	MaxOrderQty int     `json:"max_order_qty" binding:"gte=0"`
	ImageURL    *string `json:"image_url"`
}

// CreateCatalogueInput defines the JSON input for POST /api/catalogue/
// The shared fields describe the parent catalogue item; each variant
// becomes its own row.
type CreateCatalogueInput struct {
	ItemName       string         `json:"item_name" binding:"required"`
	Description    string         `json:"description"`
	Purpose        string         `json:"purpose"`
	Specifications string         `json:"specifications"`
	Legend         string         `json:"legend" binding:"required"`
	PricingType    string         `json:"pricing_type" binding:"required"`
	Variants       []VariantInput `json:"variants" binding:"required,min=1"`
}

// CreateCatalogueItem is the handler for POST /api/catalogue/
func (h *Handlers) CreateCatalogueItem(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CreateCatalogueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidLegend(input.Legend) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown legend value"})
		return
	}
	if !models.ValidPricingType(input.PricingType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pricing type"})
		return
	}

	// 2. --- Pricing-Type Specific Validation ---
	// Fixed items need a flat points value; multiplier items need the
	// multiplier instead. Mirrors the branching create form.
	for i, v := range input.Variants {
		if models.IsMultiplierPricing(input.PricingType) {
			if v.Multiplier <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Multiplier is required for this pricing type"})
				return
			}
		} else {
			if v.Points <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Points are required for fixed pricing"})
				return
			}
			if v.MaxOrderQty > 0 && v.MinOrderQty > v.MaxOrderQty {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Minimum order quantity exceeds maximum"})
				return
			}
		}
		// Variants without a code get one derived from the item name.
		if v.ItemCode == "" {
			input.Variants[i].ItemCode = slug.Make(input.ItemName) + "-" + strconv.Itoa(i+1)
		}
	}

	// 3. --- Insert All Variants in One Transaction ---
	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	var ids []int64
	for _, v := range input.Variants {
		minQty := v.MinOrderQty
		if minQty == 0 {
			minQty = 1
		}
		result, err := tx.Exec(`
			INSERT INTO catalogue_items
			(item_code, item_name, description, purpose, specifications, legend, pricing_type,
			 points, multiplier, price, stock, committed_stock, min_order_qty, max_order_qty,
			 image_url, is_archived, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ItemCode, input.ItemName, input.Description, input.Purpose, input.Specifications,
			input.Legend, input.PricingType, v.Points, v.Multiplier, v.Price, v.Stock, 0,
			minQty, v.MaxOrderQty, v.ImageURL, false, now, now)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "Duplicate") {
				c.JSON(http.StatusConflict, gin.H{"error": "Item code already exists: " + v.ItemCode})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create catalogue item"})
			return
		}
		id, _ := result.LastInsertId()
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Catalogue item created successfully",
		"ids":     ids,
	})
}

// GetCatalogue is the handler for GET /api/catalogue/
// Returns the paginated {count, next, previous, results} shape with
// page/page_size/search query params.
func (h *Handlers) GetCatalogue(c *gin.Context) {
	search := c.Query("search")
	includeArchived := c.Query("include_archived") == "true"

	// 1. --- Build WHERE Clause ---
	var conds []string
	var args []interface{}
	if !includeArchived {
		conds = append(conds, "is_archived = ?")
		args = append(args, false)
	}
	if search != "" {
		conds = append(conds, "(item_name LIKE ? OR item_code LIKE ? OR description LIKE ?)")
		term := "%" + search + "%"
		args = append(args, term, term, term)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	// 2. --- Count ---
	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM catalogue_items"+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count catalogue items"})
		return
	}

	page, pageSize, offset, totalPages := paginate(c, total)

	// 3. --- Fetch Page ---
	items, err := h.queryCatalogueItems(where+" ORDER BY item_name ASC, item_code ASC LIMIT ? OFFSET ?",
		append(args, pageSize, offset)...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    total,
		"next":     pageURL(c, page+1, totalPages),
		"previous": pageURL(c, page-1, totalPages),
		"results":  items,
	})
}

// GetCatalogueGrouped is the handler for GET /api/catalogue/grouped/
// Nests variants under their parent catalogue item for expandable rows.
func (h *Handlers) GetCatalogueGrouped(c *gin.Context) {
	items, err := h.queryCatalogueItems(" WHERE is_archived = ? ORDER BY item_name ASC, item_code ASC", false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	var groups []models.CatalogueGroup
	byName := map[string]int{}
	for _, item := range items {
		idx, ok := byName[item.ItemName]
		if !ok {
			groups = append(groups, models.CatalogueGroup{
				ItemName:       item.ItemName,
				Description:    item.Description,
				Purpose:        item.Purpose,
				Specifications: item.Specifications,
				Legend:         item.Legend,
				PricingType:    item.PricingType,
			})
			idx = len(groups) - 1
			byName[item.ItemName] = idx
		}
		groups[idx].Variants = append(groups[idx].Variants, item)
	}

	c.JSON(http.StatusOK, gin.H{"results": groups})
}

// GetCatalogueItem is the handler for GET /api/catalogue/{id}/
func (h *Handlers) GetCatalogueItem(c *gin.Context) {
	items, err := h.queryCatalogueItems(" WHERE id = ?", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalogue item not found"})
		return
	}
	c.JSON(http.StatusOK, items[0])
}

// UpdateCatalogueInput defines the JSON input for PUT /api/catalogue/{id}/
type UpdateCatalogueInput struct {
	ItemCode       *string  `json:"item_code"`
	ItemName       *string  `json:"item_name"`
	Description    *string  `json:"description"`
	Purpose        *string  `json:"purpose"`
	Specifications *string  `json:"specifications"`
	Legend         *string  `json:"legend"`
	PricingType    *string  `json:"pricing_type"`
	Points         *int     `json:"points" binding:"omitempty,gte=0"`
	Multiplier     *float64 `json:"multiplier" binding:"omitempty,gte=0"`
	Price          *float64 `json:"price" binding:"omitempty,gte=0"`
	Stock          *int     `json:"stock" binding:"omitempty,gte=0"`
	MinOrderQty    *int     `json:"min_order_qty" binding:"omitempty,gte=0"`
	MaxOrderQty    *int     `json:"max_order_qty" binding:"omitempty,gte=0"`
	ImageURL       *string  `json:"image_url"`
}

// UpdateCatalogueItem is the handler for PUT /api/catalogue/{id}/
func (h *Handlers) UpdateCatalogueItem(c *gin.Context) {
	id := c.Param("id")

	var input UpdateCatalogueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Legend != nil && !models.ValidLegend(*input.Legend) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown legend value"})
		return
	}
	if input.PricingType != nil && !models.ValidPricingType(*input.PricingType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pricing type"})
		return
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}

	appendSet := func(col string, val interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if input.ItemCode != nil {
		appendSet("item_code", *input.ItemCode)
	}
	if input.ItemName != nil {
		appendSet("item_name", *input.ItemName)
	}
	if input.Description != nil {
		appendSet("description", *input.Description)
	}
	if input.Purpose != nil {
		appendSet("purpose", *input.Purpose)
	}
	if input.Specifications != nil {
		appendSet("specifications", *input.Specifications)
	}
	if input.Legend != nil {
		appendSet("legend", *input.Legend)
	}
	if input.PricingType != nil {
		appendSet("pricing_type", *input.PricingType)
	}
	if input.Points != nil {
		appendSet("points", *input.Points)
	}
	if input.Multiplier != nil {
		appendSet("multiplier", *input.Multiplier)
	}
	if input.Price != nil {
		appendSet("price", *input.Price)
	}
	if input.Stock != nil {
		appendSet("stock", *input.Stock)
	}
	if input.MinOrderQty != nil {
		appendSet("min_order_qty", *input.MinOrderQty)
	}
	if input.MaxOrderQty != nil {
		appendSet("max_order_qty", *input.MaxOrderQty)
	}
	if input.ImageURL != nil {
		appendSet("image_url", *input.ImageURL)
	}

	args = append(args, id)
	result, err := h.DB.Exec("UPDATE catalogue_items SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update catalogue item"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalogue item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Catalogue item updated successfully"})
}

// ArchiveCatalogueInput defines the JSON input for PATCH /api/catalogue/{id}/
type ArchiveCatalogueInput struct {
	IsArchived *bool `json:"is_archived" binding:"required"`
}

// PatchCatalogueItem is the handler for PATCH /api/catalogue/{id}/
// Only toggles the archive flag; full edits go through PUT.
func (h *Handlers) PatchCatalogueItem(c *gin.Context) {
	id := c.Param("id")

	var input ArchiveCatalogueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	var result sql.Result
	var err error
	if *input.IsArchived {
		result, err = h.DB.Exec(`
			UPDATE catalogue_items
			SET is_archived = ?, archived_at = ?, archived_by = ?, updated_at = ?
			WHERE id = ? AND is_archived = ?`,
			true, now, actor(c), now, id, false)
	} else {
		result, err = h.DB.Exec(`
			UPDATE catalogue_items
			SET is_archived = ?, archived_at = NULL, archived_by = NULL, updated_at = ?
			WHERE id = ? AND is_archived = ?`,
			false, now, id, true)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update archive state"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalogue item not found or already in that state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Archive state updated successfully"})
}

// DeleteCatalogueItem is the handler for DELETE /api/catalogue/{id}/
func (h *Handlers) DeleteCatalogueItem(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM catalogue_items WHERE id = ?", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete catalogue item"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalogue item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catalogue item deleted successfully"})
}

// queryCatalogueItems runs a SELECT with the standard column list and
// the given suffix (WHERE/ORDER/LIMIT), deriving available stock.
func (h *Handlers) queryCatalogueItems(suffix string, args ...interface{}) ([]models.CatalogueItem, error) {
	query := `
		SELECT id, item_code, item_name, description, purpose, specifications, legend,
		       pricing_type, points, multiplier, price, stock, committed_stock,
		       min_order_qty, max_order_qty, image_url,
		       is_archived, archived_at, archived_by, created_at, updated_at
		FROM catalogue_items` + suffix

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CatalogueItem{}
	for rows.Next() {
		var item models.CatalogueItem
		if err := rows.Scan(
			&item.ID, &item.ItemCode, &item.ItemName, &item.Description, &item.Purpose,
			&item.Specifications, &item.Legend, &item.PricingType, &item.Points,
			&item.Multiplier, &item.Price, &item.Stock, &item.CommittedStock,
			&item.MinOrderQty, &item.MaxOrderQty, &item.ImageURL,
			&item.IsArchived, &item.ArchivedAt, &item.ArchivedBy,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.AvailableStock = item.Stock - item.CommittedStock
		items = append(items, item)
	}
	return items, rows.Err()
}

// pageURL builds the next/previous link for the paginated responses.
// Returns nil (JSON null) when the target page is out of range.
func pageURL(c *gin.Context, page, totalPages int) *string {
	if page < 1 || page > totalPages {
		return nil
	}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	url := c.Request.URL.Path + "?" + q.Encode()
	return &url
}

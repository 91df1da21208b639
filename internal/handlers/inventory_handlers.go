package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

//
// --- Inventory Handlers ---
//

// InventoryInput defines the JSON input for create and update.
type InventoryInput struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Stock        *int   `json:"stock" binding:"required,gte=0"`
	ReorderLevel *int   `json:"reorder_level" binding:"required,gte=0"`
}

// CreateInventoryItem is the handler for POST /api/inventory/
func (h *Handlers) CreateInventoryItem(c *gin.Context) {
	var input InventoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO inventory_items (name, category, stock, reorder_level, last_updated)
		VALUES (?, ?, ?, ?, ?)`,
		input.Name, input.Category, *input.Stock, *input.ReorderLevel, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create inventory item"})
		return
	}

	id, _ := result.LastInsertId()
	item := models.InventoryItem{
		ID:           id,
		Name:         input.Name,
		Category:     input.Category,
		Stock:        *input.Stock,
		ReorderLevel: *input.ReorderLevel,
		Status:       models.StockStatus(*input.Stock, *input.ReorderLevel),
		LastUpdated:  now,
	}

	c.JSON(http.StatusCreated, item)
}

// GetInventory is the handler for GET /api/inventory/
// Supports search over name/category and the usual pagination params.
func (h *Handlers) GetInventory(c *gin.Context) {
	search := c.Query("search")

	where := ""
	var args []interface{}
	if search != "" {
		where = " WHERE name LIKE ? OR category LIKE ?"
		term := "%" + search + "%"
		args = append(args, term, term)
	}

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM inventory_items"+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count inventory items"})
		return
	}

	page, pageSize, offset, totalPages := paginate(c, total)

	rows, err := h.DB.Query(`
		SELECT id, name, category, stock, reorder_level, last_updated
		FROM inventory_items`+where+`
		ORDER BY name ASC
		LIMIT ? OFFSET ?`, append(args, pageSize, offset)...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Stock,
			&item.ReorderLevel, &item.LastUpdated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan inventory row"})
			return
		}
		item.Status = models.StockStatus(item.Stock, item.ReorderLevel)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating inventory rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"results":     items,
	})
}

// UpdateInventoryItem is the handler for PUT /api/inventory/{id}/
func (h *Handlers) UpdateInventoryItem(c *gin.Context) {
	id := c.Param("id")

	var input InventoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.DB.Exec(`
		UPDATE inventory_items
		SET name = ?, category = ?, stock = ?, reorder_level = ?, last_updated = ?
		WHERE id = ?`,
		input.Name, input.Category, *input.Stock, *input.ReorderLevel, time.Now(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update inventory item"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Inventory item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Inventory item updated successfully"})
}

// DeleteInventoryItem is the handler for DELETE /api/inventory/{id}/
func (h *Handlers) DeleteInventoryItem(c *gin.Context) {
	result, err := h.DB.Exec("DELETE FROM inventory_items WHERE id = ?", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete inventory item"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Inventory item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory item deleted successfully"})
}

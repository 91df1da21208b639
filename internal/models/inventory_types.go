package models

import (
	"time"
)

// Derived inventory status values.
const (
	StockStatusIn  = "IN_STOCK"
	StockStatusLow = "LOW_STOCK"
	StockStatusOut = "OUT_OF_STOCK"
)

// InventoryItem is the model for the 'inventory_items' table.
type InventoryItem struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Category     string    `json:"category" db:"category"`
	Stock        int       `json:"stock" db:"stock"`
	ReorderLevel int       `json:"reorder_level" db:"reorder_level"`
	Status       string    `json:"status" db:"-"` // derived, never stored
	LastUpdated  time.Time `json:"last_updated" db:"last_updated"`
}

// StockStatus derives the status from stock vs reorder level.
func StockStatus(stock, reorderLevel int) string {
	switch {
	case stock <= 0:
		return StockStatusOut
	case stock <= reorderLevel:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

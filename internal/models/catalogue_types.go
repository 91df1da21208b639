package models

import (
	"time"
)

// Legend is the category tag on a catalogue item.
const (
	LegendGiveaway = "GIVEAWAY"
	LegendMerch    = "MERCH"
	LegendAsset    = "ASSET"
)

// Pricing types. FIXED items redeem a flat number of points per unit;
// the PER_* types apply a multiplier to a quantity the agent enters
// (square footage, invoice amount, days, EU SRP).
const (
	PricingFixed      = "FIXED"
	PricingPerSqft    = "PER_SQFT"
	PricingPerInvoice = "PER_INVOICE"
	PricingPerDay     = "PER_DAY"
	PricingPerEUSRP   = "PER_EU_SRP"
)

var legendLabels = map[string]string{
	LegendGiveaway: "Giveaway",
	LegendMerch:    "Merchandise",
	LegendAsset:    "Asset",
}

var pricingTypeLabels = map[string]string{
	PricingFixed:      "Fixed",
	PricingPerSqft:    "Per Sq. Ft.",
	PricingPerInvoice: "Per Invoice",
	PricingPerDay:     "Per Day",
	PricingPerEUSRP:   "Per EU SRP",
}

// LegendLabel returns the display label for a legend value,
// falling back to the raw value for anything unknown.
func LegendLabel(legend string) string {
	if label, ok := legendLabels[legend]; ok {
		return label
	}
	return legend
}

// PricingTypeLabel returns the display label for a pricing type.
func PricingTypeLabel(pricingType string) string {
	if label, ok := pricingTypeLabels[pricingType]; ok {
		return label
	}
	return pricingType
}

// ValidLegend reports whether the value is a known legend.
func ValidLegend(legend string) bool {
	_, ok := legendLabels[legend]
	return ok
}

// ValidPricingType reports whether the value is a known pricing type.
func ValidPricingType(pricingType string) bool {
	_, ok := pricingTypeLabels[pricingType]
	return ok
}

// IsMultiplierPricing reports whether the pricing type computes points
// from a multiplier rather than a fixed per-unit amount.
func IsMultiplierPricing(pricingType string) bool {
	return pricingType != PricingFixed && ValidPricingType(pricingType)
}

// CatalogueItem is the model for the 'catalogue_items' table.
// Each row is one variant; variants of the same catalogue item share
// item_name/description/purpose/specifications/legend and differ in
// item_code, points, price, image and stock.
type CatalogueItem struct {
	ID             int64   `json:"id" db:"id"`
	ItemCode       string  `json:"item_code" db:"item_code"`
	ItemName       string  `json:"item_name" db:"item_name"`
	Description    string  `json:"description" db:"description"`
	Purpose        string  `json:"purpose" db:"purpose"`
	Specifications string  `json:"specifications" db:"specifications"`
	Legend         string  `json:"legend" db:"legend"`
	PricingType    string  `json:"pricing_type" db:"pricing_type"`
	Points         int     `json:"points" db:"points"`
	Multiplier     float64 `json:"multiplier" db:"multiplier"`
	Price          float64 `json:"price" db:"price"`

	// --- Stock ---
	Stock          int `json:"stock" db:"stock"`
	CommittedStock int `json:"committed_stock" db:"committed_stock"`
	AvailableStock int `json:"available_stock" db:"-"` // derived: stock - committed_stock

	MinOrderQty int     `json:"min_order_qty" db:"min_order_qty"`
	MaxOrderQty int     `json:"max_order_qty" db:"max_order_qty"`
	ImageURL    *string `json:"image_url,omitempty" db:"image_url"`

	// --- Archive Audit ---
	IsArchived bool       `json:"is_archived" db:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	ArchivedBy *string    `json:"archived_by,omitempty" db:"archived_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CatalogueGroup nests the variants of one catalogue item for the
// expandable-row listing.
type CatalogueGroup struct {
	ItemName       string          `json:"item_name"`
	Description    string          `json:"description"`
	Purpose        string          `json:"purpose"`
	Specifications string          `json:"specifications"`
	Legend         string          `json:"legend"`
	PricingType    string          `json:"pricing_type"`
	Variants       []CatalogueItem `json:"variants"`
}

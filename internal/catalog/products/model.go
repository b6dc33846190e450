package products

import (
	"encoding/json"
	"time"

	"github.com/stockroom-app/stockroom/internal/catalog/suppliers"
)

// Stock level labels derived from the quantity on hand.
const (
	StatusOutOfStock = "Out of Stock"
	StatusLowStock   = "Low Stock"
	StatusInStock    = "In Stock"

	lowStockThreshold = 10
)

// Product represents an item tracked in the inventory.
type Product struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Price       float64        `json:"price"`
	Quantity    int            `json:"quantity"`
	SupplierID  int64          `json:"supplierId"`
	Category    string         `json:"category,omitempty"`
	SKU         string         `json:"sku,omitempty"`
	Description string         `json:"description,omitempty"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Supplier    *suppliers.Ref `json:"supplier,omitempty"`
}

// StockStatus derives the display label from the quantity. It is never
// stored; the quantity is the single source of truth.
func (p Product) StockStatus() string {
	switch {
	case p.Quantity == 0:
		return StatusOutOfStock
	case p.Quantity < lowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// MarshalJSON includes the derived stock status in API payloads.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		StockStatus string `json:"stockStatus"`
	}{alias(p), p.StockStatus()})
}

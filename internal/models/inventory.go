package models

import (
	"fmt"
	"strings"
	"time"
)

// Category identifies one of the health office stock tables
type Category string

const (
	CategoryMedicine     Category = "medicine"
	CategoryFirstAid     Category = "firstaid"
	CategoryCommodity    Category = "commodity"
	CategoryVaccine      Category = "vaccine"
	CategoryImmunization Category = "immunization"
)

// AllCategories lists every category in the order a sweep visits them.
var AllCategories = []Category{
	CategoryMedicine,
	CategoryFirstAid,
	CategoryCommodity,
	CategoryVaccine,
	CategoryImmunization,
}

// Label returns the display name used in notification text.
func (c Category) Label() string {
	switch c {
	case CategoryMedicine:
		return "Medicine"
	case CategoryFirstAid:
		return "First Aid"
	case CategoryCommodity:
		return "Commodity"
	case CategoryVaccine:
		return "Vaccine"
	case CategoryImmunization:
		return "Immunization Supply"
	}
	return string(c)
}

// ParseCategory accepts the canonical name plus the hyphen/underscore spellings used by the UI.
func ParseCategory(raw string) (Category, bool) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(raw))
	for _, c := range AllCategories {
		if string(c) == normalized {
			return c, true
		}
	}
	return "", false
}

// InventoryItem is one stock row of a category joined with its shared inventory record.
type InventoryItem struct {
	ID          int64      `json:"id" db:"id"`
	Category    Category   `json:"category" db:"-"`
	Name        string     `json:"name" db:"name"`
	Available   int        `json:"available" db:"available"`
	Unit        string     `json:"unit" db:"unit"`
	InventoryID *int64     `json:"inventory_id" db:"inv_id"` // nil when the inventory row is missing
	ExpiryDate  *time.Time `json:"expiry_date" db:"expiry_date"`
	IsArchived  bool       `json:"is_archived" db:"is_archived"`
}

// Key is the suppression key for the item: "{category}_{item_id}".
func (i *InventoryItem) Key() string {
	return fmt.Sprintf("%s_%d", i.Category, i.ID)
}

// QuantityLabel formats the available quantity with its unit, e.g. "20 pcs".
func (i *InventoryItem) QuantityLabel() string {
	return FormatQuantity(i.Available, i.Unit)
}

// FormatQuantity joins a quantity and its unit the way transaction rows store it.
func FormatQuantity(qty int, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return fmt.Sprintf("%d", qty)
	}
	return fmt.Sprintf("%d %s", qty, unit)
}

// Transaction actions
const (
	TransactionActionExpired = "Expired"
)

// InventoryTransaction is an immutable audit row in a category's transaction table.
type InventoryTransaction struct {
	ID        int64     `json:"id" db:"id"`
	Category  Category  `json:"category" db:"-"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	Quantity  string    `json:"quantity" db:"qty"`
	Action    string    `json:"action" db:"action"`
	StaffID   *string   `json:"staff_id" db:"staff_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AlertKind is the condition a stock alert reports.
type AlertKind string

const (
	AlertOutOfStock AlertKind = "out_of_stock"
	AlertLowStock   AlertKind = "low_stock"
	AlertNearExpiry AlertKind = "near_expiry"
	AlertExpired    AlertKind = "expired"
)

// StockAlert is one classification produced for an item during a sweep.
type StockAlert struct {
	Item         *InventoryItem `json:"item"`
	Kind         AlertKind      `json:"kind"`
	DaysToExpiry int            `json:"days_to_expiry,omitempty"`
	// Quantity overrides the item's quantity label, e.g. with the amount recorded on archive.
	Quantity   string `json:"quantity,omitempty"`
	Notified   bool   `json:"notified"`
	Suppressed bool   `json:"suppressed"`
}

package jobs

import (
	"strings"
	"time"

	"barangayhealth/internal/models"
)

// StockThresholds are the business limits used to classify stock rows.
type StockThresholds struct {
	LowStockBoxes    int
	LowStockUnits    int
	NearExpiryWindow time.Duration
}

// DefaultStockThresholds returns the health office limits: 2 boxes, 20 of anything else, 30 days.
func DefaultStockThresholds() StockThresholds {
	return StockThresholds{
		LowStockBoxes:    2,
		LowStockUnits:    20,
		NearExpiryWindow: 30 * 24 * time.Hour,
	}
}

func (t StockThresholds) withDefaults() StockThresholds {
	d := DefaultStockThresholds()
	if t.LowStockBoxes <= 0 {
		t.LowStockBoxes = d.LowStockBoxes
	}
	if t.LowStockUnits <= 0 {
		t.LowStockUnits = d.LowStockUnits
	}
	if t.NearExpiryWindow <= 0 {
		t.NearExpiryWindow = d.NearExpiryWindow
	}
	return t
}

func (t StockThresholds) lowStockLimit(unit string) int {
	if strings.EqualFold(strings.TrimSpace(unit), "boxes") {
		return t.LowStockBoxes
	}
	return t.LowStockUnits
}

// Classify returns every condition that currently holds for the item.
// Out of stock and low stock are exclusive; near expiry is independent of both.
func Classify(item *models.InventoryItem, today time.Time, t StockThresholds) []models.StockAlert {
	t = t.withDefaults()

	var alerts []models.StockAlert
	switch {
	case item.Available <= 0:
		alerts = append(alerts, models.StockAlert{Item: item, Kind: models.AlertOutOfStock})
	case item.Available <= t.lowStockLimit(item.Unit):
		alerts = append(alerts, models.StockAlert{Item: item, Kind: models.AlertLowStock})
	}

	if item.ExpiryDate != nil {
		days := daysUntil(*item.ExpiryDate, today)
		if days > 0 && days <= windowDays(t.NearExpiryWindow) {
			alerts = append(alerts, models.StockAlert{Item: item, Kind: models.AlertNearExpiry, DaysToExpiry: days})
		}
	}
	return alerts
}

// startOfDay truncates to midnight in t's own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysUntil counts calendar days between today and the expiry date. Expiry is a DATE column,
// so only its year/month/day are used.
func daysUntil(expiry, today time.Time) int {
	e := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(n).Hours() / 24)
}

func windowDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

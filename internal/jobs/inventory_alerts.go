package jobs

import (
	"context"
	"time"

	"barangayhealth/internal/caching"
	"barangayhealth/internal/metrics"
	"barangayhealth/internal/models"
	"barangayhealth/internal/repositories"
	"barangayhealth/internal/services"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// AlertOptions tunes the alert and archive services. Zero values fall back to defaults.
type AlertOptions struct {
	Thresholds     StockThresholds
	RecipientGroup string
	Location       *time.Location
	Metrics        *metrics.Metrics
	Clock          clockwork.Clock
	Logger         *zap.Logger
}

func (o AlertOptions) withDefaults() AlertOptions {
	o.Thresholds = o.Thresholds.withDefaults()
	if o.RecipientGroup == "" {
		o.RecipientGroup = DefaultRecipientGroup
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// InventoryAlertService classifies stock rows and notifies staff once per condition.
type InventoryAlertService struct {
	inventoryRepo repositories.InventoryRepository
	suppression   caching.SuppressionCache
	stockNotifier
	opts AlertOptions
}

func NewInventoryAlertService(
	inventoryRepo repositories.InventoryRepository,
	staffRepo repositories.StaffRepository,
	notifier services.NotificationService,
	suppression caching.SuppressionCache,
	opts AlertOptions,
) *InventoryAlertService {
	opts = opts.withDefaults()
	return &InventoryAlertService{
		inventoryRepo: inventoryRepo,
		suppression:   suppression,
		stockNotifier: stockNotifier{staffRepo: staffRepo, notifier: notifier, group: opts.RecipientGroup},
		opts:          opts,
	}
}

// CheckStockLevels evaluates every non-archived row of the category. Only a failure to list
// the rows is returned; per-item failures are logged and recorded in the summary.
func (a *InventoryAlertService) CheckStockLevels(ctx context.Context, category models.Category, summary *models.CategorySummary) ([]models.StockAlert, error) {
	if summary == nil {
		summary = &models.CategorySummary{Category: category}
	}
	log := a.opts.Logger.With(zap.String("category", string(category)))

	items, err := a.inventoryRepo.ListActive(ctx, category)
	if err != nil {
		log.Error("failed to list stock", zap.Error(err))
		return nil, err
	}

	today := a.opts.Clock.Now().In(a.opts.Location)
	cache := &recipientCache{}
	var alerts []models.StockAlert

	for _, item := range items {
		summary.Evaluated++
		if item.InventoryID == nil || item.ExpiryDate == nil {
			summary.Skipped++
			log.Debug("skipping expiry check, no inventory record or expiry date", zap.Int64("item_id", item.ID))
		}

		for _, alert := range Classify(item, today, a.opts.Thresholds) {
			countAlert(summary, alert.Kind)
			a.handleAlert(ctx, log, &alert, summary, cache)
			alerts = append(alerts, alert)
		}
	}

	return alerts, nil
}

func (a *InventoryAlertService) handleAlert(ctx context.Context, log *zap.Logger, alert *models.StockAlert, summary *models.CategorySummary, cache *recipientCache) {
	item := alert.Item
	fields := []zap.Field{zap.Int64("item_id", item.ID), zap.String("item", item.Name), zap.String("kind", string(alert.Kind))}

	notified, err := a.suppression.HasBeenNotified(ctx, item.Key(), alert.Kind)
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
		log.Warn("suppression lookup failed, not notifying", append(fields, zap.Error(err))...)
		return
	}
	if notified {
		alert.Suppressed = true
		summary.Suppressed++
		a.opts.Metrics.ObserveAlert(item.Category, alert.Kind, true)
		return
	}

	counted, err := a.send(ctx, *alert, cache)
	if err != nil {
		log.Warn("stock alert notification failed", append(fields, zap.Error(err))...)
	}
	if !counted {
		summary.Errors = append(summary.Errors, err.Error())
		return
	}

	if err := a.suppression.MarkAsNotified(ctx, item.Key(), alert.Kind); err != nil {
		log.Warn("failed to mark alert as notified", append(fields, zap.Error(err))...)
	}
	alert.Notified = true
	summary.Notified++
	a.opts.Metrics.ObserveAlert(item.Category, alert.Kind, false)
	log.Info("stock alert sent", fields...)
}

func countAlert(summary *models.CategorySummary, kind models.AlertKind) {
	switch kind {
	case models.AlertOutOfStock:
		summary.OutOfStock++
	case models.AlertLowStock:
		summary.LowStock++
	case models.AlertNearExpiry:
		summary.NearExpiry++
	}
}

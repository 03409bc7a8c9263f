package jobs

import (
	"context"
	"errors"
	"time"

	"barangayhealth/internal/models"
	"barangayhealth/internal/repositories"
	"barangayhealth/internal/services"

	"go.uber.org/zap"
)

// DefaultArchiveGracePeriod is how long an expired row stays visible before it is archived.
const DefaultArchiveGracePeriod = 10 * 24 * time.Hour

// InventoryArchiveService archives stock rows whose expiry passed more than the grace period ago.
type InventoryArchiveService struct {
	inventoryRepo repositories.InventoryRepository
	stockNotifier
	gracePeriod time.Duration
	opts        AlertOptions
}

func NewInventoryArchiveService(
	inventoryRepo repositories.InventoryRepository,
	staffRepo repositories.StaffRepository,
	notifier services.NotificationService,
	gracePeriod time.Duration,
	opts AlertOptions,
) *InventoryArchiveService {
	opts = opts.withDefaults()
	if gracePeriod <= 0 {
		gracePeriod = DefaultArchiveGracePeriod
	}
	return &InventoryArchiveService{
		inventoryRepo: inventoryRepo,
		stockNotifier: stockNotifier{staffRepo: staffRepo, notifier: notifier, group: opts.RecipientGroup},
		gracePeriod:   gracePeriod,
		opts:          opts,
	}
}

// Cutoff is the first expiry date that is still inside the grace period, as a UTC date
// so it compares cleanly against the DATE column.
func (s *InventoryArchiveService) Cutoff() time.Time {
	d := startOfDay(s.opts.Clock.Now().In(s.opts.Location)).AddDate(0, 0, -windowDays(s.gracePeriod))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// ArchiveExpired archives each expired row in its own transaction, then sends one
// "Item Expired" notification for it. Rows that fail stay unarchived for the next run.
func (s *InventoryArchiveService) ArchiveExpired(ctx context.Context, category models.Category, summary *models.CategorySummary) ([]*models.InventoryTransaction, error) {
	if summary == nil {
		summary = &models.CategorySummary{Category: category}
	}
	log := s.opts.Logger.With(zap.String("category", string(category)))

	cutoff := s.Cutoff()
	items, err := s.inventoryRepo.ListExpiredBefore(ctx, category, cutoff)
	if err != nil {
		log.Error("failed to list expired stock", zap.Error(err))
		return nil, err
	}

	cache := &recipientCache{}
	var archived []*models.InventoryTransaction

	for _, item := range items {
		fields := []zap.Field{zap.Int64("item_id", item.ID), zap.String("item", item.Name)}

		txn, err := s.inventoryRepo.ArchiveExpired(ctx, category, item.ID, nil)
		if errors.Is(err, repositories.ErrAlreadyArchived) {
			log.Info("item archived by another run", fields...)
			continue
		}
		s.opts.Metrics.ObserveArchive(category, err)
		if err != nil {
			summary.ArchiveFails++
			summary.Errors = append(summary.Errors, err.Error())
			log.Error("failed to archive expired item", append(fields, zap.Error(err))...)
			continue
		}

		summary.Archived++
		archived = append(archived, txn)
		log.Info("archived expired item", append(fields, zap.String("quantity", txn.Quantity), zap.Int64("transaction_id", txn.ID))...)

		alert := models.StockAlert{Item: item, Kind: models.AlertExpired, Quantity: txn.Quantity}
		if _, err := s.send(ctx, alert, cache); err != nil {
			log.Warn("expired item notification failed", append(fields, zap.Error(err))...)
			continue
		}
		summary.Notified++
	}

	return archived, nil
}

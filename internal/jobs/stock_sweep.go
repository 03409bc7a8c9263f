package jobs

import (
	"context"
	"fmt"
	"sync"

	"barangayhealth/internal/metrics"
	"barangayhealth/internal/models"
	"barangayhealth/internal/services"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// StockChecker evaluates stock levels for one category.
type StockChecker interface {
	CheckStockLevels(ctx context.Context, category models.Category, summary *models.CategorySummary) ([]models.StockAlert, error)
}

// ExpiredArchiver archives expired rows for one category.
type ExpiredArchiver interface {
	ArchiveExpired(ctx context.Context, category models.Category, summary *models.CategorySummary) ([]*models.InventoryTransaction, error)
}

// StockSweepRunner runs the alert check and the archive sweep over every category.
type StockSweepRunner struct {
	checker  StockChecker
	archiver ExpiredArchiver
	reports  services.SweepReportStore
	metrics  *metrics.Metrics
	clock    clockwork.Clock
	logger   *zap.Logger

	mu   sync.RWMutex
	last *models.SweepSummary
}

// NewStockSweepRunner wires the runner. reports may be nil to skip report upload.
func NewStockSweepRunner(
	checker StockChecker,
	archiver ExpiredArchiver,
	reports services.SweepReportStore,
	m *metrics.Metrics,
	clock clockwork.Clock,
	logger *zap.Logger,
) *StockSweepRunner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockSweepRunner{
		checker:  checker,
		archiver: archiver,
		reports:  reports,
		metrics:  m,
		clock:    clock,
		logger:   logger,
	}
}

// Run sweeps every category. It is the scheduled task body.
func (r *StockSweepRunner) Run(ctx context.Context) error {
	_, err := r.RunCategories(ctx, models.AllCategories...)
	return err
}

// RunCategories sweeps the given categories in order. A failing category never stops the
// others; the returned error is non-nil only when the context was cancelled mid-run.
func (r *StockSweepRunner) RunCategories(ctx context.Context, categories ...models.Category) (*models.SweepSummary, error) {
	summary := &models.SweepSummary{
		RunID:     uuid.New(),
		StartedAt: r.clock.Now(),
	}
	log := r.logger.With(zap.String("run_id", summary.RunID.String()))
	log.Info("stock sweep started", zap.Int("categories", len(categories)))

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = r.clock.Now()
			r.metrics.ObserveSweepFailure(summary.Duration())
			log.Warn("stock sweep cancelled", zap.Error(err))
			return summary, err
		}
		summary.Categories = append(summary.Categories, r.runCategory(ctx, log, category))
	}

	summary.FinishedAt = r.clock.Now()
	r.finish(ctx, log, summary)
	return summary, nil
}

func (r *StockSweepRunner) runCategory(ctx context.Context, log *zap.Logger, category models.Category) (cs *models.CategorySummary) {
	cs = &models.CategorySummary{Category: category}
	log = log.With(zap.String("category", string(category)))

	defer func() {
		if p := recover(); p != nil {
			cs.Errors = append(cs.Errors, fmt.Sprintf("panic: %v", p))
			log.Error("category sweep panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()

	if _, err := r.checker.CheckStockLevels(ctx, category, cs); err != nil {
		cs.Errors = append(cs.Errors, fmt.Sprintf("stock check: %v", err))
	}
	if _, err := r.archiver.ArchiveExpired(ctx, category, cs); err != nil {
		cs.Errors = append(cs.Errors, fmt.Sprintf("archive: %v", err))
	}

	log.Info("category swept",
		zap.Int("evaluated", cs.Evaluated),
		zap.Int("notified", cs.Notified),
		zap.Int("suppressed", cs.Suppressed),
		zap.Int("archived", cs.Archived),
		zap.Int("errors", len(cs.Errors)),
	)
	return cs
}

func (r *StockSweepRunner) finish(ctx context.Context, log *zap.Logger, summary *models.SweepSummary) {
	r.mu.Lock()
	r.last = summary
	r.mu.Unlock()

	r.metrics.ObserveSweep(summary)

	totals := summary.Totals()
	log.Info("stock sweep finished",
		zap.Duration("duration", summary.Duration()),
		zap.Int("evaluated", totals.Evaluated),
		zap.Int("out_of_stock", totals.OutOfStock),
		zap.Int("low_stock", totals.LowStock),
		zap.Int("near_expiry", totals.NearExpiry),
		zap.Int("notified", totals.Notified),
		zap.Int("suppressed", totals.Suppressed),
		zap.Int("archived", totals.Archived),
		zap.Int("archive_failures", totals.ArchiveFails),
		zap.Int("errors", len(totals.Errors)),
	)

	if r.reports == nil {
		return
	}
	name, err := r.reports.Save(ctx, summary)
	if err != nil {
		log.Warn("failed to upload sweep report", zap.Error(err))
		return
	}
	log.Info("sweep report uploaded", zap.String("object", name))
}

// LastSummary returns the most recent completed sweep, or nil before the first one.
func (r *StockSweepRunner) LastSummary() *models.SweepSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

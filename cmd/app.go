package main

import (
	"context"
	"fmt"
	"time"

	"barangayhealth/internal/caching"
	"barangayhealth/internal/config"
	"barangayhealth/internal/jobs"
	"barangayhealth/internal/metrics"
	"barangayhealth/internal/repositories"
	"barangayhealth/internal/services"
	"barangayhealth/pkg/database"
	"barangayhealth/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redis.Client
	metrics  *metrics.Metrics
	clock    clockwork.Clock
	location *time.Location
	runner   *jobs.StockSweepRunner
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	location, err := loadLocation(cfg.Sweep.Timezone)
	if err != nil {
		return nil, err
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		pool:     pool,
		redis:    caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log),
		metrics:  metrics.New(),
		clock:    clockwork.NewRealClock(),
		location: location,
	}
	a.runner = a.buildRunner(ctx)
	return a, nil
}

// loadLocation resolves the sweep timezone. A bad name is fatal: falling back to UTC
// would move the daily run and every day boundary.
func loadLocation(name string) (*time.Location, error) {
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load sweep timezone %q: %w", name, err)
	}
	return location, nil
}

func (a *app) buildRunner(ctx context.Context) *jobs.StockSweepRunner {
	inventoryRepo := repositories.NewInventoryRepo(a.pool)
	staffRepo := repositories.NewStaffRepo(a.pool)

	notifier := services.NewNotificationService(
		repositories.NewNotificationRepo(a.pool),
		repositories.NewDeviceTokenRepo(a.pool),
		services.NewHTTPPushClient(a.cfg.Push.GatewayURL, a.cfg.Push.APIKey, a.cfg.Push.Timeout),
		a.metrics,
		a.clock,
		a.logger.Named("notifications"),
	)

	opts := jobs.AlertOptions{
		Thresholds: jobs.StockThresholds{
			LowStockBoxes:    a.cfg.Sweep.LowStockBoxes,
			LowStockUnits:    a.cfg.Sweep.LowStockUnits,
			NearExpiryWindow: a.cfg.Sweep.NearExpiryWindow,
		},
		RecipientGroup: a.cfg.Sweep.RecipientGroup,
		Location:       a.location,
		Metrics:        a.metrics,
		Clock:          a.clock,
		Logger:         a.logger.Named("stock"),
	}

	suppression := caching.NewSuppressionCache(a.redis, a.cfg.Sweep.SuppressionTTL)
	alerts := jobs.NewInventoryAlertService(inventoryRepo, staffRepo, notifier, suppression, opts)
	archive := jobs.NewInventoryArchiveService(inventoryRepo, staffRepo, notifier, a.cfg.Sweep.ArchiveGracePeriod, opts)

	return jobs.NewStockSweepRunner(alerts, archive, a.reportStore(ctx), a.metrics, a.clock, a.logger.Named("sweep"))
}

// reportStore returns nil when report upload is not configured or MinIO is unusable.
func (a *app) reportStore(ctx context.Context) services.SweepReportStore {
	rc := a.cfg.Reports
	if !rc.Enabled {
		return nil
	}

	store, err := services.NewMinioStore(rc.MinioEndpoint, rc.MinioAccessKey, rc.MinioSecretKey, rc.MinioUseSSL)
	if err != nil {
		a.logger.Warn("sweep reports disabled, minio client failed", zap.String("endpoint", rc.MinioEndpoint), zap.Error(err))
		return nil
	}
	if err := store.EnsureBucketExists(ctx, rc.Bucket); err != nil {
		a.logger.Warn("sweep report bucket not ready, uploads will retry per run", zap.String("bucket", rc.Bucket), zap.Error(err))
	}
	return services.NewSweepReportStore(store, rc.Bucket)
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("failed to close redis client", zap.Error(err))
	}
	a.pool.Close()
	_ = a.logger.Sync()
}

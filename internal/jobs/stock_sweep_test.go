package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"barangayhealth/internal/metrics"
	"barangayhealth/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStockChecker struct {
	mock.Mock
}

func (m *MockStockChecker) CheckStockLevels(ctx context.Context, category models.Category, summary *models.CategorySummary) ([]models.StockAlert, error) {
	args := m.Called(ctx, category, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StockAlert), args.Error(1)
}

type MockExpiredArchiver struct {
	mock.Mock
}

func (m *MockExpiredArchiver) ArchiveExpired(ctx context.Context, category models.Category, summary *models.CategorySummary) ([]*models.InventoryTransaction, error) {
	args := m.Called(ctx, category, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryTransaction), args.Error(1)
}

type MockSweepReportStore struct {
	mock.Mock
}

func (m *MockSweepReportStore) Save(ctx context.Context, summary *models.SweepSummary) (string, error) {
	args := m.Called(ctx, summary)
	return args.String(0), args.Error(1)
}

func TestRunCategories_VisitsEveryCategoryInOrder(t *testing.T) {
	checker := &MockStockChecker{}
	archiver := &MockExpiredArchiver{}
	var order []models.Category

	checker.On("CheckStockLevels", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order = append(order, args.Get(1).(models.Category))
			args.Get(2).(*models.CategorySummary).Evaluated += 2
		}).
		Return(nil, nil)
	archiver.On("ArchiveExpired", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	runner := NewStockSweepRunner(checker, archiver, nil, nil, clockwork.NewFakeClock(), zap.NewNop())
	summary, err := runner.RunCategories(context.Background(), models.AllCategories...)

	require.NoError(t, err)
	assert.Equal(t, models.AllCategories, order)
	assert.Len(t, summary.Categories, len(models.AllCategories))
	assert.Equal(t, 10, summary.Totals().Evaluated)
	assert.Same(t, summary, runner.LastSummary())
	archiver.AssertNumberOfCalls(t, "ArchiveExpired", len(models.AllCategories))
}

func TestRunCategories_FailingCategoryDoesNotStopOthers(t *testing.T) {
	checker := &MockStockChecker{}
	archiver := &MockExpiredArchiver{}

	checker.On("CheckStockLevels", mock.Anything, models.CategoryMedicine, mock.Anything).Return(nil, errors.New("relation \"medicine_inventory\" does not exist")).Once()
	checker.On("CheckStockLevels", mock.Anything, models.CategoryFirstAid, mock.Anything).Run(func(mock.Arguments) {
		panic("nil item")
	}).Once()
	checker.On("CheckStockLevels", mock.Anything, models.CategoryVaccine, mock.Anything).Return(nil, nil).Once()
	archiver.On("ArchiveExpired", mock.Anything, models.CategoryMedicine, mock.Anything).Return(nil, nil).Once()
	archiver.On("ArchiveExpired", mock.Anything, models.CategoryVaccine, mock.Anything).Return(nil, nil).Once()

	m := metrics.New()
	runner := NewStockSweepRunner(checker, archiver, nil, m, clockwork.NewFakeClock(), zap.NewNop())
	summary, err := runner.RunCategories(context.Background(), models.CategoryMedicine, models.CategoryFirstAid, models.CategoryVaccine)

	require.NoError(t, err)
	require.Len(t, summary.Categories, 3)
	assert.Len(t, summary.Categories[0].Errors, 1)
	if assert.Len(t, summary.Categories[1].Errors, 1) {
		assert.Contains(t, summary.Categories[1].Errors[0], "panic")
	}
	assert.Empty(t, summary.Categories[2].Errors)
	checker.AssertExpectations(t)
	archiver.AssertExpectations(t)
}

func TestRunCategories_UploadsReport(t *testing.T) {
	checker := &MockStockChecker{}
	archiver := &MockExpiredArchiver{}
	reports := &MockSweepReportStore{}

	checker.On("CheckStockLevels", mock.Anything, models.CategoryCommodity, mock.Anything).Return(nil, nil).Once()
	archiver.On("ArchiveExpired", mock.Anything, models.CategoryCommodity, mock.Anything).Return(nil, nil).Once()
	reports.On("Save", mock.Anything, mock.AnythingOfType("*models.SweepSummary")).Return("2026/10/19/run.json", nil).Once()

	runner := NewStockSweepRunner(checker, archiver, reports, nil, clockwork.NewFakeClock(), zap.NewNop())
	_, err := runner.RunCategories(context.Background(), models.CategoryCommodity)

	require.NoError(t, err)
	reports.AssertExpectations(t)
}

func TestRunCategories_ReportFailureIsNotFatal(t *testing.T) {
	checker := &MockStockChecker{}
	archiver := &MockExpiredArchiver{}
	reports := &MockSweepReportStore{}

	checker.On("CheckStockLevels", mock.Anything, models.CategoryCommodity, mock.Anything).Return(nil, nil).Once()
	archiver.On("ArchiveExpired", mock.Anything, models.CategoryCommodity, mock.Anything).Return(nil, nil).Once()
	reports.On("Save", mock.Anything, mock.Anything).Return("", errors.New("bucket missing")).Once()

	runner := NewStockSweepRunner(checker, archiver, reports, nil, clockwork.NewFakeClock(), zap.NewNop())
	summary, err := runner.RunCategories(context.Background(), models.CategoryCommodity)

	require.NoError(t, err)
	assert.NotNil(t, runner.LastSummary())
	assert.Empty(t, summary.Totals().Errors)
}

func TestRunCategories_CancelledContext(t *testing.T) {
	checker := &MockStockChecker{}
	archiver := &MockExpiredArchiver{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := metrics.New()
	runner := NewStockSweepRunner(checker, archiver, nil, m, clockwork.NewFakeClock(), zap.NewNop())
	_, err := runner.RunCategories(ctx, models.AllCategories...)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, runner.LastSummary())
	checker.AssertNotCalled(t, "CheckStockLevels", mock.Anything, mock.Anything, mock.Anything)
}

// Two back-to-back runs against the same stock send each notification exactly once
// and archive the expired row exactly once.
func TestRun_TwoRunsNotifyOnce(t *testing.T) {
	store := &memoryInventory{items: []*models.InventoryItem{
		{ID: 1, Category: models.CategoryMedicine, Name: "Paracetamol", Available: 0, Unit: "pcs", InventoryID: int64Ptr(1), ExpiryDate: dateIn(200)},
		{ID: 2, Category: models.CategoryMedicine, Name: "Amoxicillin", Available: 100, Unit: "pcs", InventoryID: int64Ptr(2), ExpiryDate: dateIn(-15)},
		{ID: 1, Category: models.CategoryFirstAid, Name: "Gauze", Available: 2, Unit: "boxes", InventoryID: int64Ptr(3), ExpiryDate: dateIn(20)},
	}}
	_, suppression := newTestSuppression(t)
	staff := &MockStaffRepository{}
	staff.On("ListIDsByPositionGroup", mock.Anything, "HEALTH").Return([]string{"staff-1", "staff-2"}, nil)

	var titles []string
	notifier := &MockNotificationService{}
	notifier.On("Notify", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { titles = append(titles, args.Get(1).(*models.Notification).Title) }).
		Return(delivered(2), nil)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 6, 0, 0, 0, manila))
	opts := AlertOptions{Location: manila, Clock: clock}
	m := metrics.New()
	runner := NewStockSweepRunner(
		NewInventoryAlertService(store, staff, notifier, suppression, opts),
		NewInventoryArchiveService(store, staff, notifier, 0, opts),
		nil, m, clock, zap.NewNop(),
	)

	require.NoError(t, runner.Run(context.Background()))
	first := runner.LastSummary().Totals()
	require.NoError(t, runner.Run(context.Background()))
	second := runner.LastSummary().Totals()

	// Paracetamol out of stock, Gauze low and near expiry, Amoxicillin archived.
	assert.ElementsMatch(t, []string{"Out of Stock", "Low Stock", "Expiring Soon", "Item Expired"}, titles)
	assert.Equal(t, 1, first.Archived)
	assert.Equal(t, 4, first.Notified)
	assert.Equal(t, 0, second.Archived)
	assert.Equal(t, 0, second.Notified)
	assert.Equal(t, 3, second.Suppressed)

	require.Len(t, store.transactions, 1)
	assert.Equal(t, models.TransactionActionExpired, store.transactions[0].Action)
	assert.Equal(t, "100 pcs", store.transactions[0].Quantity)
	assert.Equal(t, int64(2), store.transactions[0].ItemID)
}

package jobs

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"barangayhealth/internal/caching"
	"barangayhealth/internal/models"
	"barangayhealth/internal/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// manila is the zone production loads by name; tzdata is embedded so hosts without zoneinfo still pass.
var manila = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		panic(err)
	}
	return loc
}()

func int64Ptr(v int64) *int64 { return &v }

// dateIn returns a DATE-column value offset from the 2026-10-19 test day.
func dateIn(days int) *time.Time {
	d := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	return &d
}

func newTestSuppression(t *testing.T) (*miniredis.Miniredis, caching.SuppressionCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return mr, caching.NewSuppressionCache(client, caching.DefaultSuppressionTTL)
}

// MockInventoryRepository mocks the InventoryRepository interface for testing
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) ListActive(ctx context.Context, category models.Category) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) ListExpiredBefore(ctx context.Context, category models.Category, cutoff time.Time) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, category, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) ArchiveExpired(ctx context.Context, category models.Category, itemID int64, staffID *string) (*models.InventoryTransaction, error) {
	args := m.Called(ctx, category, itemID, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryTransaction), args.Error(1)
}

// MockStaffRepository mocks the StaffRepository interface for testing
type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) ListIDsByPositionGroup(ctx context.Context, group string) ([]string, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockNotificationService mocks the NotificationService interface for testing
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, n *models.Notification) (*models.DeliveryResult, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeliveryResult), args.Error(1)
}

func delivered(n int) *models.DeliveryResult {
	return &models.DeliveryResult{Recipients: n, Devices: n, Delivered: n}
}

// memoryInventory is a stateful stand-in for the inventory tables, used where a test
// needs archive state to persist between runs.
type memoryInventory struct {
	mu           sync.Mutex
	items        []*models.InventoryItem
	transactions []*models.InventoryTransaction
}

func (f *memoryInventory) ListActive(_ context.Context, category models.Category) ([]*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.InventoryItem
	for _, item := range f.items {
		if item.Category == category && !item.IsArchived {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *memoryInventory) ListExpiredBefore(_ context.Context, category models.Category, cutoff time.Time) ([]*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.InventoryItem
	for _, item := range f.items {
		if item.Category == category && !item.IsArchived && item.ExpiryDate != nil && item.ExpiryDate.Before(cutoff) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *memoryInventory) ArchiveExpired(_ context.Context, category models.Category, itemID int64, staffID *string) (*models.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.Category != category || item.ID != itemID {
			continue
		}
		if item.InventoryID == nil {
			return nil, repositories.ErrMissingInventory
		}
		if item.IsArchived {
			return nil, repositories.ErrAlreadyArchived
		}
		item.IsArchived = true
		txn := &models.InventoryTransaction{
			ID:        int64(len(f.transactions) + 1),
			Category:  category,
			ItemID:    itemID,
			Quantity:  item.QuantityLabel(),
			Action:    models.TransactionActionExpired,
			StaffID:   staffID,
			CreatedAt: time.Now(),
		}
		f.transactions = append(f.transactions, txn)
		return txn, nil
	}
	return nil, repositories.ErrAlreadyArchived
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barangayhealth/internal/models"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrAlreadyArchived is returned when another run archived the row first.
	ErrAlreadyArchived = errors.New("inventory already archived")
	// ErrMissingInventory is returned when a stock row has no shared inventory record.
	ErrMissingInventory = errors.New("stock row has no inventory record")
)

type InventoryRepository interface {
	// ListActive returns every non-archived stock row of the category.
	ListActive(ctx context.Context, category models.Category) ([]*models.InventoryItem, error)
	// ListExpiredBefore returns non-archived stock rows whose expiry date is strictly before cutoff.
	ListExpiredBefore(ctx context.Context, category models.Category, cutoff time.Time) ([]*models.InventoryItem, error)
	// ArchiveExpired archives the stock row's inventory record and writes its audit row in one transaction.
	ArchiveExpired(ctx context.Context, category models.Category, itemID int64, staffID *string) (*models.InventoryTransaction, error)
}

type inventoryRepo struct {
	db DBTX
}

func NewInventoryRepo(db DBTX) InventoryRepository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) ListActive(ctx context.Context, category models.Category) ([]*models.InventoryItem, error) {
	tables, err := tablesFor(category)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, tables.listActiveQuery())
	if err != nil {
		return nil, fmt.Errorf("list %s stock: %w", category, err)
	}
	return scanItems(rows, category)
}

func (r *inventoryRepo) ListExpiredBefore(ctx context.Context, category models.Category, cutoff time.Time) ([]*models.InventoryItem, error) {
	tables, err := tablesFor(category)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, tables.listExpiredQuery(), cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired %s stock: %w", category, err)
	}
	return scanItems(rows, category)
}

func (r *inventoryRepo) ArchiveExpired(ctx context.Context, category models.Category, itemID int64, staffID *string) (*models.InventoryTransaction, error) {
	tables, err := tablesFor(category)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin archive %s %d: %w", category, itemID, err)
	}

	txn, err := archiveInTx(ctx, tx, tables, category, itemID, staffID)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return nil, fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit archive %s %d: %w", category, itemID, err)
	}
	return txn, nil
}

func archiveInTx(ctx context.Context, tx pgx.Tx, tables categoryTables, category models.Category, itemID int64, staffID *string) (*models.InventoryTransaction, error) {
	var (
		available int
		unit      string
		invID     *int64
	)
	err := tx.QueryRow(ctx, tables.lockStockQuery(), itemID).Scan(&available, &unit, &invID)
	if err != nil {
		return nil, fmt.Errorf("lock %s %d: %w", category, itemID, err)
	}
	if invID == nil {
		return nil, fmt.Errorf("%s %d: %w", category, itemID, ErrMissingInventory)
	}

	tag, err := tx.Exec(ctx, archiveInventoryQuery, *invID)
	if err != nil {
		return nil, fmt.Errorf("archive inventory %d: %w", *invID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%s %d: %w", category, itemID, ErrAlreadyArchived)
	}

	txn := &models.InventoryTransaction{
		Category: category,
		ItemID:   itemID,
		Quantity: models.FormatQuantity(available, unit),
		Action:   models.TransactionActionExpired,
		StaffID:  staffID,
	}
	err = tx.QueryRow(ctx, tables.insertTransactionQuery(), txn.Quantity, txn.Action, staffID, itemID).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert %s transaction for %d: %w", category, itemID, err)
	}
	return txn, nil
}

func scanItems(rows pgx.Rows, category models.Category) ([]*models.InventoryItem, error) {
	defer rows.Close()

	var items []*models.InventoryItem
	for rows.Next() {
		item := &models.InventoryItem{Category: category}
		if err := rows.Scan(&item.ID, &item.Name, &item.Available, &item.Unit, &item.InventoryID, &item.ExpiryDate, &item.IsArchived); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

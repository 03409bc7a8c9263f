package repositories

import (
	"context"
	"errors"
	"fmt"

	"barangayhealth/internal/models"

	"github.com/jackc/pgx/v5"
)

// NotificationRepository stores the in-app copy of a notification and its recipients.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type notificationRepo struct {
	db DBTX
}

func NewNotificationRepo(db DBTX) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin notification insert: %w", err)
	}

	if err := insertNotification(ctx, tx, n); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func insertNotification(ctx context.Context, tx pgx.Tx, n *models.Notification) error {
	query := `
		INSERT INTO notification (notif_id, notif_title, notif_message, notif_type, notif_created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, query, n.ID, n.Title, n.Message, string(n.Category), n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	recipientQuery := `
		INSERT INTO notification_recipient (notif_id, staff_id, is_read)
		VALUES ($1, $2, false)
	`
	for _, staffID := range n.Recipients {
		if _, err := tx.Exec(ctx, recipientQuery, n.ID, staffID); err != nil {
			return fmt.Errorf("insert recipient %s: %w", staffID, err)
		}
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"

	"barangayhealth/internal/models"
)

// DeviceTokenRepository reads push registrations of staff accounts.
type DeviceTokenRepository interface {
	ListActiveByUsers(ctx context.Context, userIDs []string) ([]*models.DeviceToken, error)
}

type deviceTokenRepo struct {
	db DBTX
}

func NewDeviceTokenRepo(db DBTX) DeviceTokenRepository {
	return &deviceTokenRepo{db: db}
}

// ListActiveByUsers returns registrations oldest first so callers can keep the first token per device.
func (r *deviceTokenRepo) ListActiveByUsers(ctx context.Context, userIDs []string) ([]*models.DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT user_id, COALESCE(device_id, registration_id), registration_id
		FROM fcm_device
		WHERE active = true AND user_id = ANY($1)
		ORDER BY date_created, id
	`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.DeviceToken
	for rows.Next() {
		t := &models.DeviceToken{}
		if err := rows.Scan(&t.UserID, &t.DeviceID, &t.Token); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

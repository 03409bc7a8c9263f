package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"barangayhealth/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffRepo_ListIDsByPositionGroup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM staff s")).
		WithArgs("HEALTH").
		WillReturnRows(pgxmock.NewRows([]string{"staff_id"}).AddRow("00001").AddRow("00002"))

	ids, err := NewStaffRepo(mock).ListIDsByPositionGroup(context.Background(), "HEALTH")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001", "00002"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceTokenRepo_SkipsQueryWithoutUsers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tokens, err := NewDeviceTokenRepo(mock).ListActiveByUsers(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, tokens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceTokenRepo_ListActiveByUsers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	users := []string{"00001", "00002"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM fcm_device")).
		WithArgs(users).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "device_id", "registration_id"}).
			AddRow("00001", "pixel-7", "tok-a").
			AddRow("00002", "pixel-7", "tok-b"))

	tokens, err := NewDeviceTokenRepo(mock).ListActiveByUsers(context.Background(), users)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, &models.DeviceToken{UserID: "00001", DeviceID: "pixel-7", Token: "tok-a"}, tokens[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_CreateWritesRecipients(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n := &models.Notification{
		ID:         uuid.New(),
		Title:      "Out of Stock",
		Message:    "Paracetamol is out of stock.",
		Category:   models.NotificationCategoryInventory,
		Recipients: []string{"00001", "00002"},
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification (")).
		WithArgs(n.ID, n.Title, n.Message, "inventory", n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_recipient")).
		WithArgs(n.ID, "00001").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_recipient")).
		WithArgs(n.ID, "00002").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, NewNotificationRepo(mock).Create(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_CreateRollsBackOnRecipientError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n := &models.Notification{
		ID:         uuid.New(),
		Title:      "Low Stock",
		Category:   models.NotificationCategoryInventory,
		Recipients: []string{"00001"},
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification (")).
		WithArgs(n.ID, n.Title, n.Message, "inventory", n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_recipient")).
		WithArgs(n.ID, "00001").
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err = NewNotificationRepo(mock).Create(context.Background(), n)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fk violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCategory tags a notification for filtering in the staff app.
type NotificationCategory string

const (
	NotificationCategoryInventory NotificationCategory = "inventory"
)

// Notification is one logical message addressed to a resolved set of staff.
type Notification struct {
	ID         uuid.UUID            `json:"id" db:"notif_id"`
	Title      string               `json:"title" db:"notif_title"`
	Message    string               `json:"message" db:"notif_message"`
	Category   NotificationCategory `json:"category" db:"notif_type"`
	Recipients []string             `json:"recipients" db:"-"`
	Data       map[string]string    `json:"data,omitempty" db:"-"`
	CreatedAt  time.Time            `json:"created_at" db:"notif_created_at"`
}

// DeviceToken is a push registration for one device of a staff account.
type DeviceToken struct {
	UserID   string `json:"user_id" db:"user_id"`
	DeviceID string `json:"device_id" db:"device_id"`
	Token    string `json:"token" db:"registration_id"`
}

// PushMessage is what the push gateway receives for a single device.
type PushMessage struct {
	Token    string               `json:"token"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Category NotificationCategory `json:"category"`
	Data     map[string]string    `json:"data,omitempty"`
}

// DeliveryResult summarises one fan-out.
type DeliveryResult struct {
	NotificationID uuid.UUID `json:"notification_id"`
	Recipients     int       `json:"recipients"`
	Devices        int       `json:"devices"`
	Delivered      int       `json:"delivered"`
	Failed         int       `json:"failed"`
}

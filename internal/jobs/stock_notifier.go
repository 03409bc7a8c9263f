package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"barangayhealth/internal/models"
	"barangayhealth/internal/repositories"
	"barangayhealth/internal/services"
)

// DefaultRecipientGroup is the staff position group that receives stock alerts.
const DefaultRecipientGroup = "HEALTH"

// stockNotifier turns stock alerts into notifications for the health staff group.
type stockNotifier struct {
	staffRepo repositories.StaffRepository
	notifier  services.NotificationService
	group     string
}

// recipientCache holds the resolved staff IDs for the rest of one category pass.
type recipientCache struct {
	ids []string
}

func (n *stockNotifier) recipients(ctx context.Context, cache *recipientCache) ([]string, error) {
	if cache != nil && len(cache.ids) > 0 {
		return cache.ids, nil
	}
	ids, err := n.staffRepo.ListIDsByPositionGroup(ctx, n.group)
	if err != nil {
		return nil, fmt.Errorf("resolve %s recipients: %w", n.group, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s group: %w", n.group, services.ErrNoRecipients)
	}
	if cache != nil {
		cache.ids = ids
	}
	return ids, nil
}

// send delivers one alert. The boolean reports whether the alert counts as sent for
// suppression purposes: push delivery is best effort, so a stored notification that
// reached no device still counts.
func (n *stockNotifier) send(ctx context.Context, alert models.StockAlert, cache *recipientCache) (bool, error) {
	ids, err := n.recipients(ctx, cache)
	if err != nil {
		return false, err
	}

	title, message := alertText(alert)
	_, err = n.notifier.Notify(ctx, &models.Notification{
		Title:      title,
		Message:    message,
		Category:   models.NotificationCategoryInventory,
		Recipients: ids,
		Data: map[string]string{
			"category": string(alert.Item.Category),
			"item_id":  strconv.FormatInt(alert.Item.ID, 10),
			"alert":    string(alert.Kind),
		},
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, services.ErrNoDevices), errors.Is(err, services.ErrNotDelivered):
		return true, err
	default:
		return false, err
	}
}

func alertText(alert models.StockAlert) (string, string) {
	item := alert.Item
	label := item.Category.Label()
	name := item.Name
	if name == "" {
		name = fmt.Sprintf("#%d", item.ID)
	}

	switch alert.Kind {
	case models.AlertOutOfStock:
		return "Out of Stock", fmt.Sprintf("%s %s is out of stock.", label, name)
	case models.AlertLowStock:
		return "Low Stock", fmt.Sprintf("%s %s is running low (%s remaining).", label, name, item.QuantityLabel())
	case models.AlertNearExpiry:
		return "Expiring Soon", fmt.Sprintf("%s %s expires in %d day(s) on %s.", label, name, alert.DaysToExpiry, expiryText(item))
	case models.AlertExpired:
		qty := alert.Quantity
		if qty == "" {
			qty = item.QuantityLabel()
		}
		return "Item Expired", fmt.Sprintf("%s %s expired on %s and was archived (%s).", label, name, expiryText(item), qty)
	}
	return "Inventory Alert", fmt.Sprintf("%s %s needs attention.", label, name)
}

func expiryText(item *models.InventoryItem) string {
	if item.ExpiryDate == nil {
		return "an unknown date"
	}
	return item.ExpiryDate.Format("Jan 2, 2006")
}

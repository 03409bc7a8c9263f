package services

import (
	"context"
	"errors"
	"fmt"

	"barangayhealth/internal/metrics"
	"barangayhealth/internal/models"
	"barangayhealth/internal/repositories"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	ErrNoRecipients = errors.New("notification has no recipients")
	ErrNoDevices    = errors.New("no registered devices for recipients")
	ErrNotDelivered = errors.New("push not delivered to any device")
)

// NotificationService fans a notification out to every device of its recipients.
type NotificationService interface {
	Notify(ctx context.Context, notification *models.Notification) (*models.DeliveryResult, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	tokenRepo        repositories.DeviceTokenRepository
	push             PushClient
	metrics          *metrics.Metrics
	clock            clockwork.Clock
	logger           *zap.Logger
}

// NewNotificationService wires the fan-out. notificationRepo may be nil to skip the in-app copy.
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	tokenRepo repositories.DeviceTokenRepository,
	push PushClient,
	m *metrics.Metrics,
	clock clockwork.Clock,
	logger *zap.Logger,
) NotificationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		tokenRepo:        tokenRepo,
		push:             push,
		metrics:          m,
		clock:            clock,
		logger:           logger,
	}
}

// Notify resolves device tokens, stores the in-app copy, then sends one push per distinct device.
// It fails only when nothing could be delivered; per-device errors are counted, not returned.
func (s *notificationService) Notify(ctx context.Context, n *models.Notification) (*models.DeliveryResult, error) {
	n.Recipients = uniqueStrings(n.Recipients)
	if len(n.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock.Now().UTC()
	}

	result := &models.DeliveryResult{NotificationID: n.ID, Recipients: len(n.Recipients)}
	log := s.logger.With(zap.String("notification_id", n.ID.String()), zap.String("title", n.Title))

	// Tokens first: a failed lookup is retried next run and must not leave an inbox row behind.
	tokens, err := s.tokenRepo.ListActiveByUsers(ctx, n.Recipients)
	if err != nil {
		return result, fmt.Errorf("resolve device tokens: %w", err)
	}

	if s.notificationRepo != nil {
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			log.Warn("failed to store in-app notification", zap.Error(err))
		}
	}

	devices := firstTokenPerDevice(tokens)
	result.Devices = len(devices)
	if len(devices) == 0 {
		return result, ErrNoDevices
	}

	for _, device := range devices {
		msg := &models.PushMessage{
			Token:    device.Token,
			Title:    n.Title,
			Body:     n.Message,
			Category: n.Category,
			Data:     n.Data,
		}
		if err := s.push.Send(ctx, msg); err != nil {
			result.Failed++
			log.Warn("push send failed", zap.String("device_id", device.DeviceID), zap.String("user_id", device.UserID), zap.Error(err))
			continue
		}
		result.Delivered++
	}
	s.metrics.ObservePush(result.Delivered, result.Failed)

	log.Info("notification fan-out complete",
		zap.Int("recipients", result.Recipients),
		zap.Int("devices", result.Devices),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed))

	if result.Delivered == 0 {
		return result, ErrNotDelivered
	}
	return result, nil
}

// firstTokenPerDevice keeps the first registration seen for each device identifier.
func firstTokenPerDevice(tokens []*models.DeviceToken) []*models.DeviceToken {
	seen := make(map[string]struct{}, len(tokens))
	devices := make([]*models.DeviceToken, 0, len(tokens))
	for _, t := range tokens {
		if t == nil || t.Token == "" {
			continue
		}
		key := t.DeviceID
		if key == "" {
			key = t.Token
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		devices = append(devices, t)
	}
	return devices
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

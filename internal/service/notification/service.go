package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/push"
	"github.com/oculomed/glauco-api/internal/repository"
	"github.com/oculomed/glauco-api/pkg/logger"
	"github.com/oculomed/glauco-api/pkg/messaging"
	"github.com/oculomed/glauco-api/pkg/metrics"
)

const (
	deliveryStatusSent   = "sent"
	deliveryStatusFailed = "failed"
)

// Tally is the outcome of one dispatch: how many subscriptions received
// the push and how many attempts failed. Callers never see an error;
// delivery problems are absorbed here.
type Tally struct {
	Sent   int
	Failed int
}

type Service interface {
	// Push attempts web push delivery to every active subscription of the
	// user without writing a durable notification. Used by the minute-level
	// medication check, which by design leaves no ledger behind.
	Push(ctx context.Context, userID uuid.UUID, payload *model.PushPayload) Tally
	// Dispatch delivers the push and records the in-app notification row,
	// whose delivery_status summarizes the push outcome.
	Dispatch(ctx context.Context, n *model.Notification, payload *model.PushPayload) Tally

	List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)

	Subscribe(ctx context.Context, userID uuid.UUID, req *model.SubscribeRequest) error
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
}

type service struct {
	repo     repository.NotificationRepository
	subsRepo repository.PushSubscriptionRepository
	gateway  push.Gateway
	broker   messaging.Broker
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(
	repo repository.NotificationRepository,
	subsRepo repository.PushSubscriptionRepository,
	gateway push.Gateway,
	broker messaging.Broker,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) Service {
	return &service{
		repo:     repo,
		subsRepo: subsRepo,
		gateway:  gateway,
		broker:   broker,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *service) Push(ctx context.Context, userID uuid.UUID, payload *model.PushPayload) Tally {
	var tally Tally

	subs, err := s.subsRepo.GetActiveForUser(ctx, userID)
	if err != nil {
		s.logger.Error(err, "failed to load push subscriptions", "user_id", userID.String())
		return tally
	}
	if len(subs) == 0 {
		return tally
	}

	for _, sub := range subs {
		result, err := s.gateway.Send(ctx, sub, payload)
		switch result {
		case push.ResultOK:
			tally.Sent++
			s.metrics.PushSent.Inc()
			if err := s.subsRepo.TouchLastSent(ctx, sub.ID, time.Now()); err != nil {
				s.logger.Error(err, "failed to record delivery time", "subscription_id", sub.ID.String())
			}
		case push.ResultGone:
			// Endpoint is permanently invalid. Deactivate this subscription
			// only; the user's other devices are unaffected.
			tally.Failed++
			s.metrics.PushFailed.Inc()
			s.metrics.SubscriptionsDeactivated.Inc()
			if err := s.subsRepo.Deactivate(ctx, sub.ID); err != nil {
				s.logger.Error(err, "failed to deactivate subscription", "subscription_id", sub.ID.String())
			}
		default:
			tally.Failed++
			s.metrics.PushFailed.Inc()
			s.logger.Error(err, "push delivery failed", "subscription_id", sub.ID.String())
		}
	}

	return tally
}

func (s *service) Dispatch(ctx context.Context, n *model.Notification, payload *model.PushPayload) Tally {
	tally := s.Push(ctx, n.RecipientID, payload)

	n.Status = model.NotificationStatusUnread
	n.SentAt = time.Now()
	if tally.Sent > 0 {
		n.DeliveryStatus = deliveryStatusSent
	} else {
		n.DeliveryStatus = deliveryStatusFailed
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error(err, "failed to persist notification",
			"recipient_id", n.RecipientID.String(), "type", n.Type)
		return tally
	}

	event := &model.NotificationEvent{
		ID:             uuid.New(),
		NotificationID: n.ID,
		RecipientID:    n.RecipientID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		CreatedAt:      time.Now(),
	}
	if err := s.broker.Publish(ctx, messaging.ChannelNotifications, event); err != nil {
		s.logger.Error(err, "failed to publish notification event", "notification_id", n.ID.String())
	}

	return tally
}

func (s *service) List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, error) {
	return s.repo.List(ctx, filters)
}

func (s *service) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, recipientID, time.Now())
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, recipientID, time.Now())
}

func (s *service) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *service) Subscribe(ctx context.Context, userID uuid.UUID, req *model.SubscribeRequest) error {
	sub := &model.PushSubscription{
		UserID:     userID,
		Endpoint:   req.Endpoint,
		P256dhKey:  req.Keys.P256dh,
		AuthKey:    req.Keys.Auth,
		DeviceName: req.DeviceName,
		IsActive:   true,
	}
	return s.subsRepo.Upsert(ctx, sub)
}

func (s *service) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	return s.subsRepo.DeactivateByEndpoint(ctx, userID, endpoint)
}

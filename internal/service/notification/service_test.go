package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/push"
	"github.com/oculomed/glauco-api/pkg/logger"
	"github.com/oculomed/glauco-api/pkg/messaging"
	"github.com/oculomed/glauco-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("notification_test")

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
}

type fakeGateway struct {
	results map[string]push.Result
	sends   []string
}

func (g *fakeGateway) Send(_ context.Context, sub *model.PushSubscription, _ *model.PushPayload) (push.Result, error) {
	g.sends = append(g.sends, sub.Endpoint)
	result, ok := g.results[sub.Endpoint]
	if !ok {
		return push.ResultOK, nil
	}
	if result == push.ResultError {
		return result, errors.New("push service unavailable")
	}
	return result, nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs []*model.PushSubscription
}

func (f *fakeSubscriptionRepo) add(userID uuid.UUID, endpoint string) *model.PushSubscription {
	sub := &model.PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: endpoint,
		IsActive: true,
	}
	f.subs = append(f.subs, sub)
	return sub
}

func (f *fakeSubscriptionRepo) Upsert(_ context.Context, sub *model.PushSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.subs {
		if existing.UserID == sub.UserID && existing.Endpoint == sub.Endpoint {
			existing.P256dhKey = sub.P256dhKey
			existing.AuthKey = sub.AuthKey
			existing.IsActive = true
			return nil
		}
	}
	sub.ID = uuid.New()
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeSubscriptionRepo) GetActiveForUser(_ context.Context, userID uuid.UUID) ([]*model.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PushSubscription
	for _, sub := range f.subs {
		if sub.UserID == userID && sub.IsActive {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.ID == id {
			sub.IsActive = false
		}
	}
	return nil
}

func (f *fakeSubscriptionRepo) DeactivateByEndpoint(_ context.Context, userID uuid.UUID, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.UserID == userID && sub.Endpoint == endpoint {
			sub.IsActive = false
		}
	}
	return nil
}

func (f *fakeSubscriptionRepo) TouchLastSent(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.ID == id {
			sub.LastSentAt = &at
		}
	}
	return nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []*model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) List(context.Context, *model.NotificationFilters) ([]*model.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationRepo) MarkRead(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func (f *fakeNotificationRepo) CountUnread(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

type fakeBroker struct {
	mu        sync.Mutex
	published []string
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, channel)
	return nil
}

func (f *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeBroker) Close() error { return nil }

func newTestService(gateway *fakeGateway, subs *fakeSubscriptionRepo, repo *fakeNotificationRepo, broker *fakeBroker) Service {
	return NewService(repo, subs, gateway, broker, testLogger(), testMetrics)
}

func TestPushDeliversToAllActiveSubscriptions(t *testing.T) {
	userID := uuid.New()
	subs := &fakeSubscriptionRepo{}
	subs.add(userID, "https://push.example/phone")
	subs.add(userID, "https://push.example/laptop")
	gateway := &fakeGateway{}
	svc := newTestService(gateway, subs, &fakeNotificationRepo{}, &fakeBroker{})

	tally := svc.Push(context.Background(), userID, &model.PushPayload{Title: "hi"})

	assert.Equal(t, Tally{Sent: 2}, tally)
	assert.Len(t, gateway.sends, 2)
}

func TestPushDeactivatesGoneEndpointOnly(t *testing.T) {
	userID := uuid.New()
	subs := &fakeSubscriptionRepo{}
	stale := subs.add(userID, "https://push.example/stale")
	healthy := subs.add(userID, "https://push.example/healthy")
	gateway := &fakeGateway{results: map[string]push.Result{
		stale.Endpoint: push.ResultGone,
	}}
	svc := newTestService(gateway, subs, &fakeNotificationRepo{}, &fakeBroker{})

	tally := svc.Push(context.Background(), userID, &model.PushPayload{Title: "hi"})

	assert.Equal(t, Tally{Sent: 1, Failed: 1}, tally)
	assert.False(t, stale.IsActive, "gone endpoint is deactivated")
	assert.True(t, healthy.IsActive, "other devices are untouched")
}

func TestPushTransientErrorKeepsSubscription(t *testing.T) {
	userID := uuid.New()
	subs := &fakeSubscriptionRepo{}
	flaky := subs.add(userID, "https://push.example/flaky")
	gateway := &fakeGateway{results: map[string]push.Result{
		flaky.Endpoint: push.ResultError,
	}}
	svc := newTestService(gateway, subs, &fakeNotificationRepo{}, &fakeBroker{})

	tally := svc.Push(context.Background(), userID, &model.PushPayload{Title: "hi"})

	assert.Equal(t, Tally{Failed: 1}, tally)
	assert.True(t, flaky.IsActive)
}

func TestDispatchRecordsSentNotification(t *testing.T) {
	userID := uuid.New()
	subs := &fakeSubscriptionRepo{}
	subs.add(userID, "https://push.example/phone")
	repo := &fakeNotificationRepo{}
	broker := &fakeBroker{}
	svc := newTestService(&fakeGateway{}, subs, repo, broker)

	n := &model.Notification{
		RecipientID: userID,
		Type:        model.NotificationTypeMissedMedication,
		Title:       "Missed medication",
	}
	svc.Dispatch(context.Background(), n, &model.PushPayload{Title: "Missed medication"})

	require.Len(t, repo.created, 1)
	assert.Equal(t, "sent", repo.created[0].DeliveryStatus)
	assert.Equal(t, model.NotificationStatusUnread, repo.created[0].Status)
	assert.Equal(t, []string{messaging.ChannelNotifications}, broker.published)
}

func TestDispatchWithoutSubscriptionsRecordsFailure(t *testing.T) {
	userID := uuid.New()
	repo := &fakeNotificationRepo{}
	svc := newTestService(&fakeGateway{}, &fakeSubscriptionRepo{}, repo, &fakeBroker{})

	n := &model.Notification{RecipientID: userID, Type: model.NotificationTypeMissedAppointment}
	tally := svc.Dispatch(context.Background(), n, &model.PushPayload{})

	assert.Equal(t, Tally{}, tally)
	require.Len(t, repo.created, 1, "the in-app row is written even when push fails")
	assert.Equal(t, "failed", repo.created[0].DeliveryStatus)
}

func TestSubscribeUpsertsEndpoint(t *testing.T) {
	userID := uuid.New()
	subs := &fakeSubscriptionRepo{}
	svc := newTestService(&fakeGateway{}, subs, &fakeNotificationRepo{}, &fakeBroker{})

	req := &model.SubscribeRequest{
		Endpoint: "https://push.example/phone",
		Keys:     model.Keys{P256dh: "p256", Auth: "auth"},
	}
	require.NoError(t, svc.Subscribe(context.Background(), userID, req))
	require.NoError(t, svc.Subscribe(context.Background(), userID, req))

	assert.Len(t, subs.subs, 1, "re-subscribing the same endpoint must not duplicate")
}

package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/oculomed/glauco-api/internal/model"
)

// Result classifies one delivery attempt. Gone means the endpoint is
// permanently invalid and the subscription should be deactivated;
// Error is transient and leaves the subscription alone.
type Result int

const (
	ResultOK Result = iota
	ResultGone
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultGone:
		return "gone"
	default:
		return "error"
	}
}

// Gateway is the opaque delivery capability: one subscription, one
// payload, one classified outcome.
type Gateway interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload *model.PushPayload) (Result, error)
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             time.Duration
}

type webpushGateway struct {
	cfg Config
}

func NewWebPushGateway(cfg Config) (Gateway, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("VAPID key pair is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &webpushGateway{cfg: cfg}, nil
}

func (g *webpushGateway) Send(ctx context.Context, sub *model.PushSubscription, payload *model.PushPayload) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return ResultError, fmt.Errorf("failed to marshal push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		Subscriber:      g.cfg.Subscriber,
		VAPIDPublicKey:  g.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: g.cfg.VAPIDPrivateKey,
		TTL:             int(g.cfg.TTL.Seconds()),
	})
	if err != nil {
		return ResultError, fmt.Errorf("failed to deliver push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ResultGone, nil
	case resp.StatusCode >= 400:
		return ResultError, fmt.Errorf("push service returned status %d", resp.StatusCode)
	default:
		return ResultOK, nil
	}
}

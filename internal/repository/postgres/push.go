package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oculomed/glauco-api/internal/model"
	"github.com/oculomed/glauco-api/internal/repository"
)

type pushSubscriptionRepository struct {
	db *sqlx.DB
}

func NewPushSubscriptionRepository(db *sqlx.DB) repository.PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	// Endpoint is unique per user. Re-subscribing from the same browser
	// refreshes the keys and reactivates the row.
	query := `
		INSERT INTO push_subscriptions (
			id, user_id, endpoint, p256dh_key, auth_key, device_name,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, true, $7, $7)
		ON CONFLICT (user_id, endpoint) DO UPDATE
		SET p256dh_key = EXCLUDED.p256dh_key,
			auth_key = EXCLUDED.auth_key,
			device_name = EXCLUDED.device_name,
			is_active = true,
			updated_at = EXCLUDED.updated_at
	`
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	now := time.Now()
	sub.IsActive = true
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Endpoint,
		sub.P256dhKey,
		sub.AuthKey,
		sub.DeviceName,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

func (r *pushSubscriptionRepository) GetActiveForUser(ctx context.Context, userID uuid.UUID) ([]*model.PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh_key, auth_key, device_name,
			   is_active, last_sent_at, created_at, updated_at
		FROM push_subscriptions
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at ASC
	`
	var subs []*model.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get push subscriptions: %w", err)
	}
	return subs, nil
}

func (r *pushSubscriptionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE push_subscriptions
		SET is_active = false, updated_at = $1
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to deactivate push subscription: %w", err)
	}
	return nil
}

func (r *pushSubscriptionRepository) DeactivateByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) error {
	query := `
		UPDATE push_subscriptions
		SET is_active = false, updated_at = $1
		WHERE user_id = $2 AND endpoint = $3 AND is_active = true
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), userID, endpoint)
	if err != nil {
		return fmt.Errorf("failed to deactivate push subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("push subscription not found")
	}
	return nil
}

func (r *pushSubscriptionRepository) TouchLastSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE push_subscriptions
		SET last_sent_at = $1, updated_at = $1
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to update last sent time: %w", err)
	}
	return nil
}

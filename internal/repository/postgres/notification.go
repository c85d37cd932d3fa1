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

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_id, type, title, message, priority, status,
			delivery_status, sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = time.Now()
	if n.Status == "" {
		n.Status = model.NotificationStatusUnread
	}

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.Priority,
		n.Status,
		n.DeliveryStatus,
		n.SentAt,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, error) {
	query := `
		SELECT id, recipient_id, type, title, message, priority, status,
			   delivery_status, sent_at, read_at, created_at, updated_at, deleted_at
		FROM notifications
		WHERE recipient_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{filters.RecipientID}
	argCount := 2

	if filters.UnreadOnly {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, model.NotificationStatusUnread)
		argCount++
	}

	query += " ORDER BY sent_at DESC"

	if filters.PageSize > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filters.PageSize, (page-1)*filters.PageSize)
	}

	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID, at time.Time) error {
	query := `
		UPDATE notifications
		SET status = $1, read_at = $2, updated_at = $2
		WHERE id = $3 AND recipient_id = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, model.NotificationStatusRead, at, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID, at time.Time) error {
	query := `
		UPDATE notifications
		SET status = $1, read_at = $2, updated_at = $2
		WHERE recipient_id = $3 AND status = $4 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query,
		model.NotificationStatusRead, at, recipientID, model.NotificationStatusUnread)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND status = $2 AND deleted_at IS NULL
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, recipientID, model.NotificationStatusUnread)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

package store

import (
	"context"
	"fmt"

	"airdrop-hunter-go/internal/models"
)

const notificationColumns = `id, type, title, message, airdrop_id, read, created_at`

func (s *PostgresStore) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	var out models.Notification
	err := s.db.GetContext(ctx, &out,
		`INSERT INTO notifications (type, title, message, airdrop_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+notificationColumns,
		n.Type, n.Title, n.Message, n.AirdropID,
	)
	if err != nil {
		return models.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, limit int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications`
	if unreadOnly {
		query += ` WHERE read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $1`

	out := []models.Notification{}
	if err := s.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountUnread(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE read = FALSE`); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead returns how many notifications changed state.
func (s *PostgresStore) MarkAllRead(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE read = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return rowsAffected(res)
}

func (s *PostgresStore) DeleteNotification(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

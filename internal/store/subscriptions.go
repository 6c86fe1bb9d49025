package store

import (
	"context"
	"fmt"

	"airdrop-hunter-go/internal/models"
)

const subscriptionColumns = `id, user_id, endpoint, p256dh, auth, active, created_at, updated_at`

// UpsertSubscription stores a browser registration. Re-registering an
// endpoint refreshes its keys and reactivates it.
func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub models.PushSubscription) (models.PushSubscription, error) {
	if sub.UserID == "" {
		sub.UserID = "anonymous"
	}

	var out models.PushSubscription
	err := s.db.GetContext(ctx, &out,
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (endpoint) DO UPDATE
		 SET user_id = EXCLUDED.user_id,
		     p256dh = EXCLUDED.p256dh,
		     auth = EXCLUDED.auth,
		     active = TRUE,
		     updated_at = NOW()
		 RETURNING `+subscriptionColumns,
		sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth,
	)
	if err != nil {
		return models.PushSubscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListActiveSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	subs := []models.PushSubscription{}
	err := s.db.SelectContext(ctx, &subs,
		`SELECT `+subscriptionColumns+` FROM push_subscriptions WHERE active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	return subs, nil
}

// DeactivateSubscription is idempotent for existing rows.
func (s *PostgresStore) DeactivateSubscription(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE push_subscriptions SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate subscription %d: %w", id, err)
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

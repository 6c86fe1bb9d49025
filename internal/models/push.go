package models

import "time"

// PushSubscription is a browser registration able to receive web push.
type PushSubscription struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	P256dh    string    `json:"keys_p256dh" db:"p256dh"`
	Auth      string    `json:"keys_auth" db:"auth"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

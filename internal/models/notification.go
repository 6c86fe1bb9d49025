package models

import "time"

type NotificationType string

const (
	NotificationNew      NotificationType = "NEW"
	NotificationDeadline NotificationType = "DEADLINE"
	NotificationClaim    NotificationType = "CLAIM"
	NotificationUpdate   NotificationType = "UPDATE"
	NotificationHot      NotificationType = "HOT"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNew, NotificationDeadline, NotificationClaim, NotificationUpdate, NotificationHot:
		return true
	}
	return false
}

// Notification is an in-app message shown in the notification centre.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	AirdropID *string          `json:"airdropId,omitempty" db:"airdrop_id"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"airdrop-hunter-go/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRating  = fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	ErrParentNotFound = errors.New("parent comment not found")

	ErrInvalidBulkAction = errors.New("invalid bulk action")
)

// AirdropStore handles the airdrop catalog (PostgreSQL)
type AirdropStore interface {
	ListAirdrops(ctx context.Context, f models.AirdropFilter) ([]models.Airdrop, int, error)
	GetAirdrop(ctx context.Context, id string) (models.Airdrop, error)
	CreateAirdrop(ctx context.Context, a models.Airdrop) (models.Airdrop, error)
	UpdateAirdrop(ctx context.Context, a models.Airdrop) (models.Airdrop, error)
	DeleteAirdrop(ctx context.Context, id string) error
	BulkAirdropAction(ctx context.Context, action string, ids []string) (int64, error)
}

// SubscriptionStore handles push subscription operations (PostgreSQL)
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub models.PushSubscription) (models.PushSubscription, error)
	ListActiveSubscriptions(ctx context.Context) ([]models.PushSubscription, error)
	DeactivateSubscription(ctx context.Context, id int64) error
}

// RatingStore handles airdrop rating operations (PostgreSQL)
type RatingStore interface {
	SubmitRating(ctx context.Context, airdropID, clientKey string, rating int, userAgent string) (models.Rating, error)
	GetUserRating(ctx context.Context, airdropID, clientKey string) (*models.Rating, error)
	GetAirdropRatingStats(ctx context.Context, airdropID string) (models.RatingStats, error)
	GetRatingHistory(ctx context.Context, airdropID string, limit int) ([]models.Rating, error)
}

// CommentStore handles comment operations (PostgreSQL)
type CommentStore interface {
	CreateComment(ctx context.Context, c models.Comment) (models.Comment, error)
	ListComments(ctx context.Context, airdropID string) ([]models.Comment, error)
}

// ReactionStore handles per-client comment reactions (PostgreSQL)
type ReactionStore interface {
	ToggleReaction(ctx context.Context, commentID int64, clientKey string, t models.ReactionType) (bool, error)
	ReactionCounts(ctx context.Context, commentID int64) (map[models.ReactionType]int, error)
}

// NotificationStore handles in-app notification operations (PostgreSQL)
type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, limit int, unreadOnly bool) ([]models.Notification, error)
	CountUnread(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id int64) error
}

// EventBus fans notification events out to every API instance (Redis)
type EventBus interface {
	Publish(ctx context.Context, n models.Notification) error
	Subscribe(ctx context.Context) *redis.PubSub
}

const notificationChannel = "notification_events"

type RedisEvents struct {
	client redis.UniversalClient
}

func NewRedisEvents(client redis.UniversalClient) *RedisEvents {
	return &RedisEvents{client: client}
}

func (e *RedisEvents) Publish(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification event: %w", err)
	}
	if err := e.client.Publish(ctx, notificationChannel, data).Err(); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}

func (e *RedisEvents) Subscribe(ctx context.Context) *redis.PubSub {
	return e.client.Subscribe(ctx, notificationChannel)
}

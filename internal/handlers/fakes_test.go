package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/push"
	"airdrop-hunter-go/internal/store"
)

type fakeSubscriptions struct {
	mu   sync.Mutex
	subs []models.PushSubscription
	err  error
}

func (f *fakeSubscriptions) UpsertSubscription(_ context.Context, sub models.PushSubscription) (models.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.PushSubscription{}, f.err
	}
	if sub.UserID == "" {
		sub.UserID = "anonymous"
	}
	sub.ID = int64(len(f.subs) + 1)
	sub.Active = true
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriptions) ListActiveSubscriptions(context.Context) ([]models.PushSubscription, error) {
	return f.subs, f.err
}

func (f *fakeSubscriptions) DeactivateSubscription(context.Context, int64) error { return f.err }

type ratingKey struct{ airdrop, client string }

type fakeRatings struct {
	mu      sync.Mutex
	ratings map[ratingKey]int
	err     error
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: map[ratingKey]int{}}
}

func (f *fakeRatings) SubmitRating(_ context.Context, airdropID, clientKey string, rating int, _ string) (models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Rating{}, f.err
	}
	if !models.ValidRating(rating) {
		return models.Rating{}, store.ErrInvalidRating
	}
	f.ratings[ratingKey{airdropID, clientKey}] = rating
	return models.Rating{AirdropID: airdropID, UserIP: clientKey, Rating: rating}, nil
}

func (f *fakeRatings) GetUserRating(_ context.Context, airdropID, clientKey string) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.ratings[ratingKey{airdropID, clientKey}]
	if !ok {
		return nil, nil
	}
	return &models.Rating{AirdropID: airdropID, Rating: r}, nil
}

func (f *fakeRatings) GetAirdropRatingStats(_ context.Context, airdropID string) (models.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := models.RatingStats{Distribution: models.EmptyDistribution()}
	sum := 0
	for k, v := range f.ratings {
		if k.airdrop != airdropID {
			continue
		}
		stats.Distribution[v]++
		stats.TotalRatings++
		sum += v
	}
	if stats.TotalRatings > 0 {
		stats.AverageRating = float64(sum) / float64(stats.TotalRatings)
	}
	return stats, nil
}

func (f *fakeRatings) GetRatingHistory(_ context.Context, airdropID string, limit int) ([]models.Rating, error) {
	return []models.Rating{{AirdropID: airdropID, Rating: 3}}, f.err
}

type fakeComments struct {
	mu       sync.Mutex
	comments []models.Comment
}

func (f *fakeComments) CreateComment(_ context.Context, c models.Comment) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ParentID != nil {
		found := false
		for _, existing := range f.comments {
			if existing.ID == *c.ParentID && existing.AirdropID == c.AirdropID {
				found = true
			}
		}
		if !found {
			return models.Comment{}, store.ErrParentNotFound
		}
	}
	c.ID = int64(len(f.comments) + 1)
	c.CreatedAt = time.Now()
	f.comments = append(f.comments, c)
	return c, nil
}

func (f *fakeComments) ListComments(_ context.Context, airdropID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for i := len(f.comments) - 1; i >= 0; i-- {
		if f.comments[i].AirdropID == airdropID {
			out = append(out, f.comments[i])
		}
	}
	return out, nil
}

type fakeNotifications struct {
	mu    sync.Mutex
	items []models.Notification
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = int64(len(f.items) + 1)
	n.CreatedAt = time.Now()
	f.items = append(f.items, n)
	return n, nil
}

func (f *fakeNotifications) ListNotifications(_ context.Context, limit int, unreadOnly bool) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Notification{}
	for _, n := range f.items {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotifications) CountUnread(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, item := range f.items {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeNotifications) MarkAllRead(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.items {
		if !f.items[i].Read {
			f.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) DeleteNotification(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeAirdrops struct {
	mu      sync.Mutex
	items   []models.Airdrop
	nextID  int
	filters []models.AirdropFilter
}

func (f *fakeAirdrops) ListAirdrops(_ context.Context, filter models.AirdropFilter) ([]models.Airdrop, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	out := []models.Airdrop{}
	for _, a := range f.items {
		if filter.Category != "" && filter.Category != "all" && string(a.Category) != filter.Category {
			continue
		}
		out = append(out, a)
	}
	total := len(out)
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = out[:0]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (f *fakeAirdrops) GetAirdrop(_ context.Context, id string) (models.Airdrop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.items {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Airdrop{}, store.ErrNotFound
}

func (f *fakeAirdrops) CreateAirdrop(_ context.Context, a models.Airdrop) (models.Airdrop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = fmt.Sprintf("ad-%d", f.nextID)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.items = append(f.items, a)
	return a, nil
}

func (f *fakeAirdrops) UpdateAirdrop(_ context.Context, a models.Airdrop) (models.Airdrop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == a.ID {
			a.CreatedAt = f.items[i].CreatedAt
			a.UpdatedAt = time.Now()
			f.items[i] = a
			return a, nil
		}
	}
	return models.Airdrop{}, store.ErrNotFound
}

func (f *fakeAirdrops) DeleteAirdrop(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeAirdrops) BulkAirdropAction(_ context.Context, action string, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if action != store.BulkMarkHot {
		return 0, store.ErrInvalidBulkAction
	}
	var n int64
	for _, id := range ids {
		for i := range f.items {
			if f.items[i].ID == id {
				f.items[i].IsHot = true
				n++
			}
		}
	}
	return n, nil
}

type reactionKey struct {
	comment int64
	client  string
	kind    models.ReactionType
}

type fakeReactions struct {
	mu       sync.Mutex
	comments *fakeComments
	set      map[reactionKey]bool
}

func (f *fakeReactions) ToggleReaction(_ context.Context, commentID int64, clientKey string, t models.ReactionType) (bool, error) {
	f.comments.mu.Lock()
	exists := false
	for _, c := range f.comments.comments {
		if c.ID == commentID {
			exists = true
		}
	}
	f.comments.mu.Unlock()
	if !exists {
		return false, store.ErrNotFound
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	k := reactionKey{commentID, clientKey, t}
	if f.set[k] {
		delete(f.set, k)
		return false, nil
	}
	f.set[k] = true
	return true, nil
}

func (f *fakeReactions) ReactionCounts(_ context.Context, commentID int64) (map[models.ReactionType]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[models.ReactionType]int{models.ReactionLike: 0, models.ReactionLove: 0, models.ReactionHaha: 0}
	for k := range f.set {
		if k.comment == commentID {
			counts[k.kind]++
		}
	}
	return counts, nil
}

type fakeEvents struct {
	mu        sync.Mutex
	published []models.Notification
}

func (f *fakeEvents) Publish(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, n)
	return nil
}

func (f *fakeEvents) Subscribe(context.Context) *redis.PubSub { return nil }

type fakeBroadcaster struct {
	calls  int
	result push.Result
	err    error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, p push.Payload) (push.Result, error) {
	f.calls++
	if err := p.Validate(); err != nil {
		return push.Result{}, err
	}
	return f.result, f.err
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"airdrop-hunter-go/internal/models"
)

func TestRedisEvents_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	events := NewRedisEvents(rdb)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := events.Subscribe(ctx)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := models.Notification{ID: 3, Type: models.NotificationNew, Title: "New drop", Message: "m"}
	if err := events.Publish(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		if msg.Channel != notificationChannel {
			t.Fatalf("channel = %q", msg.Channel)
		}
		var got models.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != want.ID || got.Title != want.Title || got.Type != want.Type {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("no event received")
	}
}

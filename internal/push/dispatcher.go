// Package push fans a notification out to every active web push
// subscription and retires subscriptions the push service reports gone.
package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"airdrop-hunter-go/internal/metrics"
	"airdrop-hunter-go/internal/models"
)

// SubscriptionStore is the slice of persistence the dispatcher needs.
type SubscriptionStore interface {
	ListActiveSubscriptions(ctx context.Context) ([]models.PushSubscription, error)
	DeactivateSubscription(ctx context.Context, id int64) error
}

type Config struct {
	// Parallelism caps concurrent deliveries. Values below 1 mean 10.
	Parallelism int
	// SendRate paces deliveries per second across workers. 0 disables pacing.
	SendRate float64
}

// Result is the summary returned to the broadcast trigger.
// Failed includes gone subscriptions; Deactivated counts those whose
// deactivation write succeeded.
type Result struct {
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
	Total       int `json:"total"`
	Deactivated int `json:"deactivated"`
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeGone
	outcomeGoneKept // gone, but the deactivation write failed
)

type Dispatcher struct {
	store       SubscriptionStore
	transport   Transport
	logger      *zerolog.Logger
	parallelism int
	pacer       *rate.Limiter
	now         func() time.Time
}

func NewDispatcher(store SubscriptionStore, transport Transport, logger *zerolog.Logger, cfg Config) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 10
	}

	d := &Dispatcher{
		store:       store,
		transport:   transport,
		logger:      logger,
		parallelism: cfg.Parallelism,
		now:         time.Now,
	}
	if cfg.SendRate > 0 {
		d.pacer = rate.NewLimiter(rate.Limit(cfg.SendRate), 1)
	}
	return d
}

// Broadcast makes one delivery attempt per active subscription. Only a
// failure to list subscriptions or an invalid payload is returned as an
// error; per-subscription failures are counted and logged.
func (d *Dispatcher) Broadcast(ctx context.Context, p Payload) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	defer func() {
		metrics.BroadcastDuration.Observe(time.Since(start).Seconds())
	}()

	subs, err := d.store.ListActiveSubscriptions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list active subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return Result{}, nil
	}

	body, err := json.Marshal(p.WithDefaults(d.now()))
	if err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}

	outcomes := make([]outcome, len(subs))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < min(d.parallelism, len(subs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = d.deliver(ctx, subs[i], body)
			}
		}()
	}
	for i := range subs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res := Result{Total: len(subs)}
	for _, o := range outcomes {
		switch o {
		case outcomeSent:
			res.Sent++
		case outcomeGone:
			res.Failed++
			res.Deactivated++
		default:
			res.Failed++
		}
	}

	d.logger.Info().
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("deactivated", res.Deactivated).
		Int("total", res.Total).
		Dur("elapsed", time.Since(start)).
		Msg("push broadcast finished")

	return res, nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub models.PushSubscription, body []byte) outcome {
	if d.pacer != nil {
		if err := d.pacer.Wait(ctx); err != nil {
			metrics.PushDeliveries.WithLabelValues("failed").Inc()
			d.logger.Warn().Int64("subscription_id", sub.ID).Err(err).Msg("push delivery not attempted")
			return outcomeFailed
		}
	}

	err := d.transport.Send(ctx, sub, body)
	switch {
	case err == nil:
		metrics.PushDeliveries.WithLabelValues("sent").Inc()
		return outcomeSent

	case errors.Is(err, ErrSubscriptionGone):
		metrics.PushDeliveries.WithLabelValues("gone").Inc()
		// The push service's verdict stands even if the trigger went away.
		if derr := d.store.DeactivateSubscription(context.WithoutCancel(ctx), sub.ID); derr != nil {
			d.logger.Error().Int64("subscription_id", sub.ID).Err(derr).Msg("failed to deactivate gone subscription")
			return outcomeGoneKept
		}
		d.logger.Info().Int64("subscription_id", sub.ID).Msg("deactivated gone subscription")
		return outcomeGone

	default:
		metrics.PushDeliveries.WithLabelValues("failed").Inc()
		d.logger.Warn().Int64("subscription_id", sub.ID).Err(err).Msg("push delivery failed")
		return outcomeFailed
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"airdrop-hunter-go/internal/config"
	"airdrop-hunter-go/internal/handlers"
	"airdrop-hunter-go/internal/logging"
	"airdrop-hunter-go/internal/models"
	"airdrop-hunter-go/internal/push"
	"airdrop-hunter-go/internal/ratelimit"
	"airdrop-hunter-go/internal/store"
)

const defaultAdminPassword = "admin123"

func main() {
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	totpSetup := flag.Bool("totp-setup", false, "generate an ADMIN_TOTP_SECRET and exit")
	totpQR := flag.String("totp-qr", "", "with -totp-setup, also write the QR code PNG to this file")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := models.HashPassword(*hashPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to hash password")
		}
		fmt.Println(hash)
		return
	}
	if *totpSetup {
		if err := setupTOTP(*totpQR); err != nil {
			logging.Fatal().Err(err).Msg("Failed to generate TOTP secret")
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL (subscriptions, ratings, comments, notifications)
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pgStore.Close()

	if err := pgStore.RunMigrations(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logging.Info().Msg("Database migrations completed")

	// Redis (notification events, optional shared rate limit budget)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable at startup")
	}

	limiter := ratelimit.NewLimiter(newLimitStore(ctx, cfg, rdb), ratelimit.ClientKey(cfg.TrustProxy))

	keys, generated, err := push.LoadVAPIDKeys(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load VAPID keys")
	}
	if generated {
		logging.Warn().
			Str("VAPID_PUBLIC_KEY", keys.Public).
			Str("VAPID_PRIVATE_KEY", keys.Private).
			Msg("VAPID keys not configured, generated a new pair (add these to your .env file to persist them)")
	}

	pushLogger := logging.With().Str("component", "push").Logger()
	dispatcher := push.NewDispatcher(
		pgStore,
		push.NewWebPushTransport(keys, cfg.VAPIDSubject, cfg.PushTTL, cfg.PushTimeout),
		&pushLogger,
		push.Config{Parallelism: cfg.PushParallelism, SendRate: cfg.PushSendRate},
	)

	if cfg.CronSecret == "" {
		logging.Warn().Msg("CRON_SECRET not set, /api/notifications/send accepts unauthenticated requests")
	}
	if cfg.AdminPasswordHash == "" && cfg.AdminPassword == defaultAdminPassword {
		logging.Warn().Msg("Admin password is the default, set ADMIN_PASSWORD_HASH")
	}

	h, err := handlers.NewHandler(handlers.Deps{
		Airdrops:      pgStore,
		Subscriptions: pgStore,
		Ratings:       pgStore,
		Comments:      pgStore,
		Reactions:     pgStore,
		Notifications: pgStore,
		Events:        store.NewRedisEvents(rdb),
		Broadcaster:   dispatcher,
		Limiter:       limiter,
	}, handlers.Options{
		Admin: models.AdminCredentials{
			Password:     cfg.AdminPassword,
			PasswordHash: cfg.AdminPasswordHash,
			TOTPSecret:   cfg.AdminTOTPSecret,
		},
		SessionSecret:  cfg.SessionSecret,
		SecureCookies:  cfg.SecureCookies,
		CronSecret:     cfg.CronSecret,
		VAPIDPublicKey: keys.Public,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build handlers")
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: h.Routes(handlers.RouterConfig{
			AllowedOrigins:  cfg.CORSAllowedOrigins,
			GlobalRateLimit: cfg.GlobalRateLimit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end on shutdown so SSE streams return.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logging.Info().Int("port", cfg.Port).Str("ratelimit_backend", cfg.RateLimitBackend).Msg("Listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Server stopped")
}

// newLimitStore returns the in-process store, or Redis behind a breaker that
// falls back to it.
func newLimitStore(ctx context.Context, cfg config.Config, rdb redis.UniversalClient) ratelimit.Store {
	mem := ratelimit.NewMemoryStore(
		ratelimit.WithRetention(cfg.RateLimitRetention),
		ratelimit.WithSweepEvery(cfg.RateLimitSweepInterval),
	)
	mem.StartJanitor(ctx)

	if cfg.RateLimitBackend != "redis" {
		return mem
	}
	return ratelimit.NewFallbackStore("ratelimit-redis", ratelimit.NewRedisStore(rdb), mem, 3, 30*time.Second)
}

func setupTOTP(qrPath string) error {
	key, err := models.GenerateTOTPSecret("admin", "AirdropHunter")
	if err != nil {
		return err
	}
	fmt.Printf("ADMIN_TOTP_SECRET=%s\n%s\n", key.Secret(), key.URL())

	if qrPath == "" {
		return nil
	}
	png, err := models.QRCodePNG(key, 256)
	if err != nil {
		return err
	}
	return os.WriteFile(qrPath, png, 0o600)
}

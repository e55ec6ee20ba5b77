package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/sms"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store/memstore"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
)

type settings struct {
	StoreDriver string
	DatabaseURL string
	AutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KafkaBrokers  string

	SessionSecret string
	SessionTTL    time.Duration

	CodeLength     int
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	Brand          string
	DevEcho        bool

	SMSProvider string

	RateLimitPerMinute int
	RateLimitFailOpen  bool
	RateLimitPrefix    string
	CORSOrigins        []string
	BodyLimit          int64
	RequestTimeout     time.Duration

	HousekeepingInterval time.Duration
	RolloverSchedule     string
	RolloverDays         int
}

func loadSettings() (settings, error) {
	s := settings{
		StoreDriver:       strings.ToLower(config.String("STORE_DRIVER", "postgres")),
		DatabaseURL:       config.String("DATABASE_URL", ""),
		AutoMigrate:       config.Bool("DB_AUTO_MIGRATE", false),
		RedisAddr:         strings.TrimSpace(config.String("REDIS_ADDR", "")),
		RedisPassword:     config.String("REDIS_PASSWORD", ""),
		KafkaBrokers:      config.String("KAFKA_BROKERS", ""),
		SessionSecret:     config.String("SESSION_SECRET", ""),
		Brand:             config.String("VERIFICATION_BRAND", "Salonbook"),
		DevEcho:           config.Bool("VERIFICATION_DEV_ECHO", false),
		SMSProvider:       strings.ToLower(config.String("SMS_PROVIDER", "noop")),
		RateLimitFailOpen: config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		RateLimitPrefix:   config.String("RATE_LIMIT_PREFIX", "rl:booking"),
		CORSOrigins:       config.List("CORS_ALLOWED_ORIGINS"),
		RolloverSchedule:  config.String("SLOT_ROLLOVER_SCHEDULE", "15 0 * * *"),
	}

	var err error
	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"REDIS_DB", 0, &s.RedisDB},
		{"VERIFICATION_CODE_LENGTH", 6, &s.CodeLength},
		{"RATE_LIMIT_PER_MINUTE", 30, &s.RateLimitPerMinute},
		{"SLOT_ROLLOVER_DAYS", 14, &s.RolloverDays},
	}
	for _, it := range ints {
		if *it.dst, err = config.Int(it.key, it.fallback); err != nil {
			return settings{}, err
		}
	}
	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"SESSION_TTL", 24 * time.Hour, &s.SessionTTL},
		{"VERIFICATION_TTL", 5 * time.Minute, &s.CodeTTL},
		{"VERIFICATION_RESEND_COOLDOWN", time.Minute, &s.ResendCooldown},
		{"REQUEST_TIMEOUT", 10 * time.Second, &s.RequestTimeout},
		{"HOUSEKEEPING_INTERVAL", time.Minute, &s.HousekeepingInterval},
	}
	for _, d := range durations {
		if *d.dst, err = config.Duration(d.key, d.fallback); err != nil {
			return settings{}, err
		}
	}
	limit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	if err != nil {
		return settings{}, err
	}
	s.BodyLimit = int64(limit)

	switch s.StoreDriver {
	case "postgres":
		if s.DatabaseURL == "" {
			return settings{}, fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return settings{}, fmt.Errorf("STORE_DRIVER must be postgres or memory (got %q)", s.StoreDriver)
	}
	if s.SessionSecret == "" {
		return settings{}, fmt.Errorf("SESSION_SECRET is required")
	}
	return s, nil
}

type backend struct {
	store store.Store
	pool  *db.Pool
}

func (b backend) close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

func openStore(ctx context.Context, s settings, logger *slog.Logger) (backend, error) {
	if s.StoreDriver == "memory" {
		mem := memstore.New()
		seedDemo(mem)
		logger.Warn("using in-memory store; data is lost on restart")
		return backend{store: mem}, nil
	}

	if s.AutoMigrate {
		version, err := db.Migrate(s.DatabaseURL, migrations.FS, migrations.Table)
		if err != nil {
			return backend{}, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", "version", version)
	}
	pool, err := db.Open(ctx, s.DatabaseURL, db.DefaultPoolConfig())
	if err != nil {
		return backend{}, fmt.Errorf("db connection: %w", err)
	}
	return backend{store: storage.New(pool), pool: pool}, nil
}

// seedDemo gives the in-memory store one bookable shop.
func seedDemo(mem *memstore.Store) {
	shopID := uuid.NewString()
	mem.AddShop(model.Shop{
		ID:           shopID,
		Name:         "Demo Salon",
		Timezone:     "UTC",
		WorkingHours: model.DefaultWorkingHours(),
		CreatedAt:    time.Now().UTC(),
	})
	mem.AddService(model.Service{ID: uuid.NewString(), ShopID: shopID, Name: "Haircut", Category: "hair", DurationMinutes: 45, PriceCents: 4500})
	serviceID := uuid.NewString()
	mem.AddService(model.Service{ID: serviceID, ShopID: shopID, Name: "Massage", Category: "spa", Options: []model.ServiceOption{
		{ID: uuid.NewString(), ServiceID: serviceID, Name: "Single Session", DurationMinutes: 60, PriceCents: 8999},
		{ID: uuid.NewString(), ServiceID: serviceID, Name: "10-Session Pass", DurationMinutes: 60, PriceCents: 79900},
	}})
}

func openRedis(s settings) *redis.Client {
	if s.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     s.RedisAddr,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
	})
}

func newSender(s settings, logger *slog.Logger) (sms.Sender, error) {
	switch s.SMSProvider {
	case "twilio":
		tw, err := sms.NewTwilioSender(sms.TwilioConfig{
			AccountSID: config.String("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  config.String("TWILIO_AUTH_TOKEN", ""),
			FromNumber: config.String("TWILIO_FROM_NUMBER", ""),
		})
		if err != nil {
			return nil, err
		}
		return tw, nil
	case "webhook":
		url := config.String("SMS_WEBHOOK_URL", "")
		if url == "" {
			return nil, fmt.Errorf("%w: SMS_WEBHOOK_URL is required", sms.ErrNotConfigured)
		}
		return sms.NewWebhookSender(url, config.String("SMS_WEBHOOK_TOKEN", "")), nil
	case "log":
		return sms.NewLogSender(logger), nil
	case "noop", "":
		return sms.NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unknown SMS_PROVIDER %q", s.SMSProvider)
	}
}

// rateLimiter guards the public write endpoints. Redis keeps the window
// shared across replicas.
func rateLimiter(s settings, rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	if rdb != nil {
		logger.Info("rate limiting enabled (redis)", "per_minute", s.RateLimitPerMinute)
		return httpx.NewRedisRateLimiter(rdb, s.RateLimitPerMinute, time.Minute, s.RateLimitPrefix, httpx.ClientIP).
			Middleware(logger, s.RateLimitFailOpen)
	}
	logger.Info("rate limiting enabled (in-memory)", "per_minute", s.RateLimitPerMinute)
	return httpx.NewRateLimiter(s.RateLimitPerMinute, time.Minute, httpx.ClientIP).Middleware()
}

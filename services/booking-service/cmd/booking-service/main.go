package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/auth"
	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/housekeeping"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/verification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = config.LoadDotEnv()

	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	settings, err := loadSettings()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		panic(err)
	}

	backend, err := openStore(ctx, settings, logger)
	if err != nil {
		logger.Error("store init failed", "err", err)
		panic(err)
	}
	defer backend.close()

	rdb := openRedis(settings)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	sender, err := newSender(settings, logger)
	if err != nil {
		logger.Error("sms sender init failed", "err", err)
		panic(err)
	}

	issuer, err := auth.NewIssuer(settings.SessionSecret, service, settings.SessionTTL)
	if err != nil {
		logger.Error("session issuer init failed", "err", err)
		panic(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var cooldown verification.Cooldown = verification.NewMemoryCooldown()
	if rdb != nil {
		cooldown = verification.NewRedisCooldown(rdb, "")
	}
	gate := verification.NewGate(backend.store, sender, cooldown, verification.Config{
		CodeLength:     settings.CodeLength,
		TTL:            settings.CodeTTL,
		ResendCooldown: settings.ResendCooldown,
		Brand:          settings.Brand,
		DevEcho:        settings.DevEcho,
	}, m, logger)
	generator := availability.NewGenerator(backend.store, backend.store, m, logger)

	api := handlers.NewAPI(handlers.Deps{
		Store:       backend.store,
		Coordinator: booking.NewCoordinator(backend.store, gate, m, logger),
		Lifecycle:   booking.NewLifecycle(backend.store, m, logger),
		Gate:        gate,
		Inventory:   availability.NewInventory(backend.store, backend.store),
		Generator:   generator,
		Issuer:      issuer,
		Logger:      logger,
	})

	if backend.pool != nil {
		publisher := outbox.NewPublisher(backend.pool, logger, outbox.PublisherConfig{
			Brokers:   settings.KafkaBrokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	}

	worker := housekeeping.NewWorker(backend.store, logger, housekeeping.WorkerConfig{
		Interval: settings.HousekeepingInterval,
		TTL:      settings.CodeTTL,
	})
	go worker.Run(ctx)

	scheduler := cron.New()
	rollover := housekeeping.NewRollover(backend.store, generator, settings.RolloverDays, logger)
	if _, err := rollover.Schedule(ctx, scheduler, settings.RolloverSchedule); err != nil {
		logger.Error("invalid rollover schedule", "schedule", settings.RolloverSchedule, "err", err)
		panic(err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	checks := []runtime.ReadyCheck{{Name: "store", Check: backend.store.Ping}}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if settings.KafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkax.SplitBrokers(settings.KafkaBrokers))})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/api/", api.Routes(rateLimiter(settings, rdb, logger)))

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.DefaultCORSPolicy(settings.CORSOrigins)),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(settings.BodyLimit),
		httpx.WithTimeout(settings.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.ServeHTTP(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("server exited", "err", err)
	}
}

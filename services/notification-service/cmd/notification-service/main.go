package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/libs/sms"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/notify"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newSender(logger *slog.Logger) (sms.Sender, error) {
	switch provider := strings.ToLower(config.String("SMS_PROVIDER", "noop")); provider {
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
		return sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", "")), nil
	case "log":
		return sms.NewLogSender(logger), nil
	case "noop":
		return sms.NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unknown SMS_PROVIDER %q", provider)
	}
}

func main() {
	_ = config.LoadDotEnv()

	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	if config.Bool("DB_AUTO_MIGRATE", false) {
		version, err := db.Migrate(dbURL, migrations.FS, migrations.Table)
		if err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		logger.Info("migrations applied", "version", version)
	}

	pool, err := db.Open(ctx, dbURL, db.DefaultPoolConfig())
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	sender, err := newSender(logger)
	if err != nil {
		logger.Error("sms sender init failed", "err", err)
		panic(err)
	}

	brokers := config.String("KAFKA_BROKERS", "")
	topics := config.List("KAFKA_CONSUME_TOPICS")
	if len(topics) == 0 {
		topics = notify.Topics
	}
	processor := notify.NewProcessor(pool, sender, logger, notify.Config{
		FailSuffix: config.String("NOTIFICATION_FAIL_SUFFIX", ""),
	})
	eventConsumer := consumer.New(logger, consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics:  topics,
	}, processor.Handle)
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkax.SplitBrokers(brokers))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := runtime.ServeHTTP(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("server exited", "err", err)
	}
}

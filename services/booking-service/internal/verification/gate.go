package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/sms"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	CodeLength     int
	TTL            time.Duration
	ResendCooldown time.Duration
	Brand          string
	// DevEcho returns the plain code from Request. Local development only.
	DevEcho  bool
	HashCost int
}

func (c Config) withDefaults() Config {
	if c.CodeLength == 0 {
		c.CodeLength = DefaultCodeLength
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.ResendCooldown < 0 {
		c.ResendCooldown = 0
	}
	if c.Brand == "" {
		c.Brand = "Salonbook"
	}
	if c.HashCost == 0 {
		c.HashCost = bcrypt.DefaultCost
	}
	return c
}

type RequestResult struct {
	Phone     string
	ExpiresAt time.Time
	// Code is set only in dev echo mode.
	Code string
}

// Gate issues one-time SMS codes and checks them.
type Gate struct {
	store    store.Store
	sender   sms.Sender
	cooldown Cooldown
	cfg      Config
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewGate(st store.Store, sender sms.Sender, cooldown Cooldown, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Gate {
	if cooldown == nil {
		cooldown = NoCooldown{}
	}
	if sender == nil {
		sender = sms.NewNoopSender()
	}
	return &Gate{
		store:    st,
		sender:   sender,
		cooldown: cooldown,
		cfg:      cfg.withDefaults(),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

func (g *Gate) TTL() time.Duration { return g.cfg.TTL }

func (g *Gate) Message(code string) string {
	return fmt.Sprintf("Your %s verification code is %s. It is valid for %d minutes.",
		g.cfg.Brand, code, int(g.cfg.TTL.Minutes()))
}

// Request issues a fresh code for phone and sends it by SMS. Codes issued
// earlier stay usable until they expire or a newer one is checked.
func (g *Gate) Request(ctx context.Context, rawPhone string) (RequestResult, error) {
	ctx, span := otel.Tracer("booking-service/verification").Start(ctx, "verification.request")
	defer span.End()

	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		g.metrics.ObserveCodeRequest("invalid_phone")
		return RequestResult{}, apperr.Invalid("phone", err.Error())
	}
	span.SetAttributes(attribute.String("phone.masked", sms.Mask(phone)))

	if g.cfg.ResendCooldown > 0 {
		ok, err := g.cooldown.Acquire(ctx, phone, g.cfg.ResendCooldown)
		if err != nil {
			// Cooldown errors fail open.
			if g.logger != nil {
				g.logger.Warn("verification cooldown unavailable", "err", err)
			}
		} else if !ok {
			g.metrics.ObserveCodeRequest("rate_limited")
			return RequestResult{}, fmt.Errorf("code recently sent to %s: %w", sms.Mask(phone), apperr.ErrRateLimited)
		}
	}

	now := g.now()
	code, err := g.issue(ctx, phone, now)
	if err != nil {
		if g.cfg.ResendCooldown > 0 {
			if rerr := g.cooldown.Release(ctx, phone); rerr != nil && g.logger != nil {
				g.logger.Warn("verification cooldown release failed", "err", rerr)
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue code")
		return RequestResult{}, err
	}
	g.metrics.ObserveCodeRequest("sent")

	res := RequestResult{Phone: phone, ExpiresAt: now.Add(g.cfg.TTL)}
	if g.cfg.DevEcho {
		res.Code = code
	}
	return res, nil
}

// issue stores a new pending code and sends it. The row is only committed
// once the SMS provider has accepted the message.
func (g *Gate) issue(ctx context.Context, phone string, now time.Time) (string, error) {
	code, err := GenerateCode(g.cfg.CodeLength)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), g.cfg.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	err = g.store.WithinTx(ctx, func(tx store.Tx) error {
		err := tx.InsertVerification(ctx, model.Verification{
			ID:        uuid.NewString(),
			Phone:     phone,
			CodeHash:  string(hash),
			Status:    model.VerificationPending,
			CreatedAt: now,
		})
		if err != nil {
			return apperr.Persistence("insert verification", err)
		}
		if err := g.sender.Send(ctx, phone, g.Message(code)); err != nil {
			g.metrics.ObserveCodeRequest("send_failed")
			if g.logger != nil {
				g.logger.Error("verification sms failed", "err", err, "phone", sms.Mask(phone), "provider", g.sender.ProviderID())
			}
			return fmt.Errorf("send verification sms: %w", apperr.ErrServiceUnavailable)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Validate checks code for phone in its own transaction.
func (g *Gate) Validate(ctx context.Context, rawPhone, code string) (string, error) {
	var phone string
	err := g.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		phone, err = g.ValidateWith(ctx, tx, rawPhone, code)
		return err
	})
	return phone, err
}

// ValidateWith checks code against the newest pending code for phone that is
// still inside the TTL, consumes it and records the customer. Every
// rejection is ErrInvalidOrExpiredCode. It returns the normalized phone.
func (g *Gate) ValidateWith(ctx context.Context, tx store.VerificationStore, rawPhone, code string) (string, error) {
	ctx, span := otel.Tracer("booking-service/verification").Start(ctx, "verification.validate")
	defer span.End()

	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		g.metrics.ObserveCodeValidation("invalid_phone")
		return "", apperr.Invalid("phone", err.Error())
	}
	if code == "" {
		g.metrics.ObserveCodeValidation("rejected")
		return "", apperr.ErrInvalidOrExpiredCode
	}

	now := g.now()
	ver, err := tx.LatestPendingVerification(ctx, phone, now.Add(-g.cfg.TTL))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.metrics.ObserveCodeValidation("rejected")
			return "", apperr.ErrInvalidOrExpiredCode
		}
		return "", apperr.Persistence("load verification", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(ver.CodeHash), []byte(code)) != nil {
		g.metrics.ObserveCodeValidation("rejected")
		return "", apperr.ErrInvalidOrExpiredCode
	}

	consumed, err := tx.MarkVerified(ctx, ver.ID, now)
	if err != nil {
		return "", apperr.Persistence("mark verified", err)
	}
	if !consumed {
		g.metrics.ObserveCodeValidation("rejected")
		return "", apperr.ErrInvalidOrExpiredCode
	}
	if err := tx.UpsertCustomer(ctx, phone, now); err != nil {
		return "", apperr.Persistence("upsert customer", err)
	}
	g.metrics.ObserveCodeValidation("verified")
	return phone, nil
}

package booking

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/sms"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/verification"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// LoggedIn replaces the code for callers that already hold a customer
// session. It skips code matching but still requires a known customer.
const LoggedIn = "LOGGED_IN"

type BookRequest struct {
	Phone         string
	Code          string
	ShopID        string
	ServiceID     string
	TimeSlotID    string
	OptionID      string
	OptionName    string
	CustomerName  string
	CustomerEmail string
	Notes         string
	// PriceOverrideCents, when set, must equal the catalog price.
	PriceOverrideCents *int64
}

type Coordinator struct {
	store   store.Store
	gate    *verification.Gate
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewCoordinator(st store.Store, gate *verification.Gate, m *metrics.Metrics, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: st, gate: gate, metrics: m, logger: logger, now: time.Now}
}

func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Book verifies the caller, claims the slot and records a CONFIRMED
// appointment. The code check, the claim, the appointment row and its
// outbox event share one transaction, so a lost race also leaves the code
// unused.
func (c *Coordinator) Book(ctx context.Context, req BookRequest) (appt model.Appointment, err error) {
	ctx, span := otel.Tracer("booking-service/booking").Start(ctx, "booking.book")
	started := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			kind, _ := apperr.Kind(err)
			outcome = strings.ToLower(kind)
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		c.metrics.ObserveBooking(outcome, time.Since(started))
		span.End()
	}()
	span.SetAttributes(
		attribute.String("shop.id", req.ShopID),
		attribute.String("slot.id", req.TimeSlotID),
	)

	phone, err := validateRequest(&req)
	if err != nil {
		return model.Appointment{}, err
	}

	shop, slot, err := c.availableSlot(ctx, req)
	if err != nil {
		return model.Appointment{}, err
	}
	svc, price, err := c.price(ctx, req)
	if err != nil {
		return model.Appointment{}, err
	}

	now := c.now()
	appt = model.Appointment{
		ID:              uuid.NewString(),
		ShopID:          shop.ID,
		ServiceID:       svc.ID,
		ServiceOptionID: price.OptionID,
		OptionName:      price.OptionName,
		TimeSlotID:      slot.ID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   phone,
		CustomerEmail:   req.CustomerEmail,
		Notes:           req.Notes,
		PriceCents:      price.PriceCents,
		DurationMinutes: price.DurationMinutes,
		Status:          model.AppointmentConfirmed,
		Date:            slot.Date,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	evt, err := outbox.NewAppointmentEvent(outbox.EventAppointmentBooked, payloadFor(appt, shop.Name, svc.Name, now))
	if err != nil {
		return model.Appointment{}, err
	}

	err = c.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := c.checkIdentity(ctx, tx, phone, req.Code); err != nil {
			return err
		}
		claimed, err := tx.ClaimSlot(ctx, slot.ID)
		if err != nil {
			return apperr.Persistence("claim slot", err)
		}
		if !claimed {
			return apperr.ErrSlotUnavailable
		}
		if err := tx.InsertAppointment(ctx, appt); err != nil {
			return apperr.Persistence("insert appointment", err)
		}
		if err := tx.RecordEvent(ctx, evt); err != nil {
			return apperr.Persistence("record event", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrPersistence) && c.logger != nil {
			c.logger.Error("booking commit failed", "err", err, "slot_id", slot.ID, "shop_id", shop.ID)
		}
		return model.Appointment{}, apperr.Persistence("book appointment", err)
	}

	if c.logger != nil {
		c.logger.Info("appointment booked",
			"appointment_id", appt.ID,
			"shop_id", shop.ID,
			"slot_id", slot.ID,
			"phone", sms.Mask(phone),
		)
	}
	return appt, nil
}

func validateRequest(req *BookRequest) (string, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.Code = strings.TrimSpace(req.Code)

	verr := &apperr.ValidationError{}
	phone, err := verification.NormalizePhone(req.Phone)
	if err != nil {
		verr.Add("phone", err.Error())
	}
	if req.Code == "" {
		verr.Add("code", "required")
	}
	verr.CheckID("shopId", req.ShopID)
	verr.CheckID("serviceId", req.ServiceID)
	verr.CheckID("timeSlotId", req.TimeSlotID)
	if req.OptionID != "" {
		verr.CheckID("optionId", req.OptionID)
	}
	if req.CustomerName == "" {
		verr.Add("customerName", "required")
	}
	if req.CustomerEmail != "" {
		if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
			verr.Add("customerEmail", "invalid email address")
		}
	}
	if req.PriceOverrideCents != nil && *req.PriceOverrideCents < 0 {
		verr.Add("priceOverride", "must not be negative")
	}
	return phone, verr.OrNil()
}

// availableSlot is a read-only pre-check. The claim inside the transaction
// is what actually decides the race.
func (c *Coordinator) availableSlot(ctx context.Context, req BookRequest) (model.Shop, model.TimeSlot, error) {
	slot, err := c.store.GetSlot(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Shop{}, model.TimeSlot{}, apperr.ErrSlotUnavailable
		}
		return model.Shop{}, model.TimeSlot{}, apperr.Persistence("load slot", err)
	}
	if slot.ShopID != req.ShopID {
		return model.Shop{}, model.TimeSlot{}, apperr.Invalid("timeSlotId", "slot belongs to another shop")
	}
	if !slot.IsAvailable {
		return model.Shop{}, model.TimeSlot{}, apperr.ErrSlotUnavailable
	}

	shop, err := c.store.GetShop(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Shop{}, model.TimeSlot{}, apperr.NotFound("shop")
		}
		return model.Shop{}, model.TimeSlot{}, apperr.Persistence("load shop", err)
	}
	startsAt, err := slot.StartsAt(shop.Location())
	if err != nil {
		return model.Shop{}, model.TimeSlot{}, apperr.Persistence("slot start", err)
	}
	if startsAt.Before(c.now()) {
		return model.Shop{}, model.TimeSlot{}, apperr.ErrSlotUnavailable
	}
	return shop, slot, nil
}

func (c *Coordinator) price(ctx context.Context, req BookRequest) (model.Service, model.PriceSnapshot, error) {
	svc, err := c.store.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Service{}, model.PriceSnapshot{}, apperr.NotFound("service")
		}
		return model.Service{}, model.PriceSnapshot{}, apperr.Persistence("load service", err)
	}
	if svc.ShopID != req.ShopID {
		return model.Service{}, model.PriceSnapshot{}, apperr.NotFound("service")
	}

	optionID := req.OptionID
	if optionID == "" && req.OptionName != "" {
		for _, opt := range svc.Options {
			if strings.EqualFold(opt.Name, req.OptionName) {
				optionID = opt.ID
				break
			}
		}
	}
	snap, err := model.ResolvePrice(svc.Pricing(), optionID)
	if err != nil {
		return model.Service{}, model.PriceSnapshot{}, apperr.Invalid("optionId", err.Error())
	}
	if req.OptionName != "" && !strings.EqualFold(req.OptionName, snap.OptionName) {
		return model.Service{}, model.PriceSnapshot{}, apperr.Invalid("optionName", "does not match the selected option")
	}
	if req.PriceOverrideCents != nil && *req.PriceOverrideCents != snap.PriceCents {
		return model.Service{}, model.PriceSnapshot{}, apperr.Invalid("priceOverride", "does not match the current price")
	}
	return svc, snap, nil
}

func (c *Coordinator) checkIdentity(ctx context.Context, tx store.Tx, phone, code string) error {
	if code == LoggedIn {
		known, err := tx.CustomerExists(ctx, phone)
		if err != nil {
			return apperr.Persistence("lookup customer", err)
		}
		if !known {
			return apperr.ErrUnknownIdentity
		}
		return nil
	}
	_, err := c.gate.ValidateWith(ctx, tx, phone, code)
	return err
}

func payloadFor(a model.Appointment, shopName, serviceName string, at time.Time) outbox.AppointmentPayload {
	return outbox.AppointmentPayload{
		AppointmentID: a.ID,
		ShopID:        a.ShopID,
		ShopName:      shopName,
		ServiceName:   serviceName,
		CustomerName:  a.CustomerName,
		CustomerPhone: a.CustomerPhone,
		Date:          a.Date.Format(model.DateLayout),
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		PriceCents:    a.PriceCents,
		Status:        string(a.Status),
		OccurredAt:    at,
	}
}

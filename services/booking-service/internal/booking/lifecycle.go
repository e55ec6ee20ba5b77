package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

type Lifecycle struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewLifecycle(st store.Store, m *metrics.Metrics, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{store: st, metrics: m, logger: logger, now: time.Now}
}

func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

// Cancel marks the appointment CANCELLED and then frees its slot. Cancelling
// an appointment that is already CANCELLED changes nothing. The slot is
// released after the status commit; if that second step fails the slot stays
// claimed and the error is logged.
func (l *Lifecycle) Cancel(ctx context.Context, id string) (model.Appointment, error) {
	if err := apperr.ID("appointmentId", id); err != nil {
		return model.Appointment{}, err
	}

	var (
		appt      model.Appointment
		cancelled bool
	)
	err := l.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		appt, cancelled, err = l.transition(ctx, tx, id, model.AppointmentCancelled, outbox.EventAppointmentCancelled)
		return err
	})
	if err != nil {
		return model.Appointment{}, err
	}
	if !cancelled {
		return appt, nil
	}

	if err := l.store.ReleaseSlot(ctx, appt.TimeSlotID); err != nil && l.logger != nil {
		l.logger.Error("slot release after cancel failed", "err", err, "appointment_id", appt.ID, "slot_id", appt.TimeSlotID)
	}
	if l.logger != nil {
		l.logger.Info("appointment cancelled", "appointment_id", appt.ID, "shop_id", appt.ShopID)
	}
	return appt, nil
}

// Confirm moves a PENDING appointment to CONFIRMED.
func (l *Lifecycle) Confirm(ctx context.Context, id string) (model.Appointment, error) {
	if err := apperr.ID("appointmentId", id); err != nil {
		return model.Appointment{}, err
	}
	var appt model.Appointment
	err := l.store.WithinTx(ctx, func(tx store.Tx) error {
		var (
			moved bool
			err   error
		)
		appt, moved, err = l.transition(ctx, tx, id, model.AppointmentConfirmed, outbox.EventAppointmentConfirmed)
		if err == nil && !moved {
			err = fmt.Errorf("appointment already %s: %w", appt.Status, apperr.ErrInvalidTransition)
		}
		return err
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// transition applies one step of the status machine. It reports false with
// no error when the appointment already sits in the target status.
func (l *Lifecycle) transition(ctx context.Context, tx store.Tx, id string, to model.AppointmentStatus, eventType string) (model.Appointment, bool, error) {
	appt, err := tx.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Appointment{}, false, apperr.NotFound("appointment")
		}
		return model.Appointment{}, false, apperr.Persistence("load appointment", err)
	}
	if appt.Status == to {
		return appt, false, nil
	}
	if !appt.Status.CanTransitionTo(to) {
		return model.Appointment{}, false, fmt.Errorf("%s to %s: %w", appt.Status, to, apperr.ErrInvalidTransition)
	}

	now := l.now()
	moved, err := tx.TransitionAppointment(ctx, id, appt.Status, to, now)
	if err != nil {
		return model.Appointment{}, false, apperr.Persistence("transition appointment", err)
	}
	if !moved {
		current, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return model.Appointment{}, false, apperr.Persistence("reload appointment", err)
		}
		if current.Status == to {
			return current, false, nil
		}
		return model.Appointment{}, false, fmt.Errorf("%s to %s: %w", current.Status, to, apperr.ErrInvalidTransition)
	}

	appt.Status = to
	appt.UpdatedAt = now
	if to == model.AppointmentCancelled {
		appt.CancelledAt = &now
	}
	evt, err := outbox.NewAppointmentEvent(eventType, payloadFor(appt, "", "", now))
	if err != nil {
		return model.Appointment{}, false, err
	}
	if err := tx.RecordEvent(ctx, evt); err != nil {
		return model.Appointment{}, false, apperr.Persistence("record event", err)
	}
	l.metrics.ObserveTransition(string(to))
	return appt, true, nil
}

// Package store declares the persistence surface of the booking service.
// Components depend on these interfaces; storage (Postgres) and memstore
// provide implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
)

var ErrNotFound = errors.New("record not found")

type SlotStore interface {
	// InsertSlots stores slots and skips any that collide on
	// (shop, date, start time). It returns how many rows were new.
	InsertSlots(ctx context.Context, slots []model.TimeSlot) (int, error)
	GetSlot(ctx context.Context, id string) (model.TimeSlot, error)
	// ListSlots returns the day's slots ordered by start time.
	ListSlots(ctx context.Context, shopID string, date time.Time) ([]model.TimeSlot, error)
	// ClaimSlot flips is_available from true to false. It reports false when
	// the slot was already taken, leaving it untouched.
	ClaimSlot(ctx context.Context, id string) (bool, error)
	ReleaseSlot(ctx context.Context, id string) error
}

type VerificationStore interface {
	InsertVerification(ctx context.Context, v model.Verification) error
	// LatestPendingVerification returns the newest PENDING row for phone created
	// at or after since.
	LatestPendingVerification(ctx context.Context, phone string, since time.Time) (model.Verification, error)
	// MarkVerified moves a PENDING row to VERIFIED. It reports false when the
	// row was no longer PENDING.
	MarkVerified(ctx context.Context, id string, at time.Time) (bool, error)
	UpsertCustomer(ctx context.Context, phone string, at time.Time) error
	CustomerExists(ctx context.Context, phone string) (bool, error)
	ExpireStaleVerifications(ctx context.Context, before time.Time) (int, error)
	PurgeVerifications(ctx context.Context, before time.Time) (int, error)
	VerificationStats(ctx context.Context, now time.Time) (model.VerificationStats, error)
}

type CatalogStore interface {
	GetShop(ctx context.Context, id string) (model.Shop, error)
	ListShopIDs(ctx context.Context) ([]string, error)
	UpdateWorkingHours(ctx context.Context, shopID string, days []model.WorkingDay) error
	// GetService loads a service with its options.
	GetService(ctx context.Context, id string) (model.Service, error)
}

type AppointmentStore interface {
	InsertAppointment(ctx context.Context, a model.Appointment) error
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// TransitionAppointment moves an appointment from one status to another.
	// It reports false when the stored status was not from.
	TransitionAppointment(ctx context.Context, id string, from, to model.AppointmentStatus, at time.Time) (bool, error)
	ListAppointmentsByPhone(ctx context.Context, phone string) ([]model.Appointment, error)
	ListAppointmentsByShop(ctx context.Context, shopID string, limit int) ([]model.Appointment, error)
	ShopStats(ctx context.Context, shopID string) (model.ShopStats, error)
}

type EventStore interface {
	RecordEvent(ctx context.Context, evt outbox.Event) error
}

type ProfileStore interface {
	InsertAddress(ctx context.Context, a model.Address) error
	ListAddresses(ctx context.Context, ownerPhone string) ([]model.Address, error)
	InsertPaymentMethod(ctx context.Context, pm model.PaymentMethod) error
	ListPaymentMethods(ctx context.Context, ownerPhone string) ([]model.PaymentMethod, error)
	// SetDefault clears the owner's current default of kind and marks id as
	// the default. It returns ErrNotFound when id does not belong to the owner.
	SetDefault(ctx context.Context, kind model.DefaultKind, ownerPhone, id string) error
}

// Tx is the view of the store inside a transaction.
type Tx interface {
	SlotStore
	VerificationStore
	CatalogStore
	AppointmentStore
	EventStore
	ProfileStore
}

type Store interface {
	Tx
	// WithinTx runs fn in one transaction: it commits when fn returns nil and
	// rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}

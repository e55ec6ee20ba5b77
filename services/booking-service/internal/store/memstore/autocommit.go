package memstore

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
)

// Calls made on Store directly run one at a time under the lock and apply
// immediately, the way single statements autocommit in Postgres.

func call[T any](s *Store, fn func(v *view) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{d: s.d})
}

func exec(s *Store, fn func(v *view) error) error {
	return s.locked(fn)
}

func (s *Store) InsertSlots(ctx context.Context, slots []model.TimeSlot) (int, error) {
	return call(s, func(v *view) (int, error) { return v.InsertSlots(ctx, slots) })
}

func (s *Store) GetSlot(ctx context.Context, id string) (model.TimeSlot, error) {
	return call(s, func(v *view) (model.TimeSlot, error) { return v.GetSlot(ctx, id) })
}

func (s *Store) ListSlots(ctx context.Context, shopID string, date time.Time) ([]model.TimeSlot, error) {
	return call(s, func(v *view) ([]model.TimeSlot, error) { return v.ListSlots(ctx, shopID, date) })
}

func (s *Store) ClaimSlot(ctx context.Context, id string) (bool, error) {
	return call(s, func(v *view) (bool, error) { return v.ClaimSlot(ctx, id) })
}

func (s *Store) ReleaseSlot(ctx context.Context, id string) error {
	return exec(s, func(v *view) error { return v.ReleaseSlot(ctx, id) })
}

func (s *Store) InsertVerification(ctx context.Context, ver model.Verification) error {
	return exec(s, func(v *view) error { return v.InsertVerification(ctx, ver) })
}

func (s *Store) LatestPendingVerification(ctx context.Context, phone string, since time.Time) (model.Verification, error) {
	return call(s, func(v *view) (model.Verification, error) { return v.LatestPendingVerification(ctx, phone, since) })
}

func (s *Store) MarkVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	return call(s, func(v *view) (bool, error) { return v.MarkVerified(ctx, id, at) })
}

func (s *Store) UpsertCustomer(ctx context.Context, phone string, at time.Time) error {
	return exec(s, func(v *view) error { return v.UpsertCustomer(ctx, phone, at) })
}

func (s *Store) CustomerExists(ctx context.Context, phone string) (bool, error) {
	return call(s, func(v *view) (bool, error) { return v.CustomerExists(ctx, phone) })
}

func (s *Store) ExpireStaleVerifications(ctx context.Context, before time.Time) (int, error) {
	return call(s, func(v *view) (int, error) { return v.ExpireStaleVerifications(ctx, before) })
}

func (s *Store) PurgeVerifications(ctx context.Context, before time.Time) (int, error) {
	return call(s, func(v *view) (int, error) { return v.PurgeVerifications(ctx, before) })
}

func (s *Store) VerificationStats(ctx context.Context, now time.Time) (model.VerificationStats, error) {
	return call(s, func(v *view) (model.VerificationStats, error) { return v.VerificationStats(ctx, now) })
}

func (s *Store) GetShop(ctx context.Context, id string) (model.Shop, error) {
	return call(s, func(v *view) (model.Shop, error) { return v.GetShop(ctx, id) })
}

func (s *Store) ListShopIDs(ctx context.Context) ([]string, error) {
	return call(s, func(v *view) ([]string, error) { return v.ListShopIDs(ctx) })
}

func (s *Store) UpdateWorkingHours(ctx context.Context, shopID string, days []model.WorkingDay) error {
	return exec(s, func(v *view) error { return v.UpdateWorkingHours(ctx, shopID, days) })
}

func (s *Store) GetService(ctx context.Context, id string) (model.Service, error) {
	return call(s, func(v *view) (model.Service, error) { return v.GetService(ctx, id) })
}

func (s *Store) InsertAppointment(ctx context.Context, a model.Appointment) error {
	return exec(s, func(v *view) error { return v.InsertAppointment(ctx, a) })
}

func (s *Store) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	return call(s, func(v *view) (model.Appointment, error) { return v.GetAppointment(ctx, id) })
}

func (s *Store) TransitionAppointment(ctx context.Context, id string, from, to model.AppointmentStatus, at time.Time) (bool, error) {
	return call(s, func(v *view) (bool, error) { return v.TransitionAppointment(ctx, id, from, to, at) })
}

func (s *Store) ListAppointmentsByPhone(ctx context.Context, phone string) ([]model.Appointment, error) {
	return call(s, func(v *view) ([]model.Appointment, error) { return v.ListAppointmentsByPhone(ctx, phone) })
}

func (s *Store) ListAppointmentsByShop(ctx context.Context, shopID string, limit int) ([]model.Appointment, error) {
	return call(s, func(v *view) ([]model.Appointment, error) { return v.ListAppointmentsByShop(ctx, shopID, limit) })
}

func (s *Store) ShopStats(ctx context.Context, shopID string) (model.ShopStats, error) {
	return call(s, func(v *view) (model.ShopStats, error) { return v.ShopStats(ctx, shopID) })
}

func (s *Store) RecordEvent(ctx context.Context, evt outbox.Event) error {
	return exec(s, func(v *view) error { return v.RecordEvent(ctx, evt) })
}

func (s *Store) InsertAddress(ctx context.Context, a model.Address) error {
	return exec(s, func(v *view) error { return v.InsertAddress(ctx, a) })
}

func (s *Store) ListAddresses(ctx context.Context, owner string) ([]model.Address, error) {
	return call(s, func(v *view) ([]model.Address, error) { return v.ListAddresses(ctx, owner) })
}

func (s *Store) InsertPaymentMethod(ctx context.Context, pm model.PaymentMethod) error {
	return exec(s, func(v *view) error { return v.InsertPaymentMethod(ctx, pm) })
}

func (s *Store) ListPaymentMethods(ctx context.Context, owner string) ([]model.PaymentMethod, error) {
	return call(s, func(v *view) ([]model.PaymentMethod, error) { return v.ListPaymentMethods(ctx, owner) })
}

func (s *Store) SetDefault(ctx context.Context, kind model.DefaultKind, owner, id string) error {
	return exec(s, func(v *view) error { return v.SetDefault(ctx, kind, owner, id) })
}

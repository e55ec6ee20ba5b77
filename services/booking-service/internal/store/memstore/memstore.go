// Package memstore is an in-process store.Store used by tests and by
// STORE_DRIVER=memory. A single mutex serialises every operation, so a
// transaction holds the lock for its whole callback.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

type data struct {
	shops         map[string]model.Shop
	services      map[string]model.Service
	slots         map[string]model.TimeSlot
	slotKeys      map[string]string
	verifications map[string]model.Verification
	customers     map[string]time.Time
	appointments  map[string]model.Appointment
	addresses     map[string]model.Address
	payments      map[string]model.PaymentMethod
	events        []outbox.Event
}

func newData() *data {
	return &data{
		shops:         map[string]model.Shop{},
		services:      map[string]model.Service{},
		slots:         map[string]model.TimeSlot{},
		slotKeys:      map[string]string{},
		verifications: map[string]model.Verification{},
		customers:     map[string]time.Time{},
		appointments:  map[string]model.Appointment{},
		addresses:     map[string]model.Address{},
		payments:      map[string]model.PaymentMethod{},
	}
}

// clone copies every map so a failed transaction can be discarded.
func (d *data) clone() *data {
	c := newData()
	for k, v := range d.shops {
		v.WorkingHours = append([]model.WorkingDay(nil), v.WorkingHours...)
		c.shops[k] = v
	}
	for k, v := range d.services {
		c.services[k] = v
	}
	for k, v := range d.slots {
		c.slots[k] = v
	}
	for k, v := range d.slotKeys {
		c.slotKeys[k] = v
	}
	for k, v := range d.verifications {
		c.verifications[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.appointments {
		c.appointments[k] = v
	}
	for k, v := range d.addresses {
		c.addresses[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	c.events = append([]outbox.Event(nil), d.events...)
	return c
}

type Store struct {
	mu sync.Mutex
	d  *data
}

func New() *Store {
	return &Store{d: newData()}
}

var _ store.Store = (*Store)(nil)

// view implements store.Tx over a data snapshot without locking.
type view struct {
	d *data
}

var _ store.Tx = (*view)(nil)

func (s *Store) locked(fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{d: s.d})
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.d.clone()
	if err := fn(&view{d: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.d = work
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// AddShop and AddService seed the catalog, which has no write API.
func (s *Store) AddShop(shop model.Shop) {
	_ = s.locked(func(v *view) error {
		v.d.shops[shop.ID] = shop
		return nil
	})
}

func (s *Store) AddService(svc model.Service) {
	_ = s.locked(func(v *view) error {
		v.d.services[svc.ID] = svc
		return nil
	})
}

// Events returns the outbox events committed so far.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Event(nil), s.d.events...)
}

func slotKey(shopID string, date time.Time, start string) string {
	return shopID + "|" + date.Format(model.DateLayout) + "|" + start
}

func (v *view) InsertSlots(_ context.Context, slots []model.TimeSlot) (int, error) {
	created := 0
	for _, sl := range slots {
		key := slotKey(sl.ShopID, sl.Date, sl.StartTime)
		if _, dup := v.d.slotKeys[key]; dup {
			continue
		}
		v.d.slotKeys[key] = sl.ID
		v.d.slots[sl.ID] = sl
		created++
	}
	return created, nil
}

func (v *view) GetSlot(_ context.Context, id string) (model.TimeSlot, error) {
	sl, ok := v.d.slots[id]
	if !ok {
		return model.TimeSlot{}, store.ErrNotFound
	}
	return sl, nil
}

func (v *view) ListSlots(_ context.Context, shopID string, date time.Time) ([]model.TimeSlot, error) {
	var out []model.TimeSlot
	for _, sl := range v.d.slots {
		if sl.ShopID == shopID && sl.Date.Equal(date) {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (v *view) ClaimSlot(_ context.Context, id string) (bool, error) {
	sl, ok := v.d.slots[id]
	if !ok || !sl.IsAvailable {
		return false, nil
	}
	sl.IsAvailable = false
	v.d.slots[id] = sl
	return true, nil
}

func (v *view) ReleaseSlot(_ context.Context, id string) error {
	sl, ok := v.d.slots[id]
	if !ok {
		return store.ErrNotFound
	}
	sl.IsAvailable = true
	v.d.slots[id] = sl
	return nil
}

func (v *view) InsertVerification(_ context.Context, ver model.Verification) error {
	v.d.verifications[ver.ID] = ver
	return nil
}

func (v *view) LatestPendingVerification(_ context.Context, phone string, since time.Time) (model.Verification, error) {
	var (
		best  model.Verification
		found bool
	)
	for _, ver := range v.d.verifications {
		if ver.Phone != phone || ver.Status != model.VerificationPending || ver.CreatedAt.Before(since) {
			continue
		}
		if !found || ver.CreatedAt.After(best.CreatedAt) {
			best, found = ver, true
		}
	}
	if !found {
		return model.Verification{}, store.ErrNotFound
	}
	return best, nil
}

func (v *view) MarkVerified(_ context.Context, id string, at time.Time) (bool, error) {
	ver, ok := v.d.verifications[id]
	if !ok || ver.Status != model.VerificationPending {
		return false, nil
	}
	ver.Status = model.VerificationVerified
	ver.VerifiedAt = &at
	v.d.verifications[id] = ver
	return true, nil
}

func (v *view) UpsertCustomer(_ context.Context, phone string, at time.Time) error {
	if _, ok := v.d.customers[phone]; !ok {
		v.d.customers[phone] = at
	}
	return nil
}

func (v *view) CustomerExists(_ context.Context, phone string) (bool, error) {
	_, ok := v.d.customers[phone]
	return ok, nil
}

func (v *view) ExpireStaleVerifications(_ context.Context, before time.Time) (int, error) {
	n := 0
	for id, ver := range v.d.verifications {
		if ver.Status == model.VerificationPending && ver.CreatedAt.Before(before) {
			ver.Status = model.VerificationExpired
			v.d.verifications[id] = ver
			n++
		}
	}
	return n, nil
}

func (v *view) PurgeVerifications(_ context.Context, before time.Time) (int, error) {
	n := 0
	for id, ver := range v.d.verifications {
		if ver.CreatedAt.Before(before) {
			delete(v.d.verifications, id)
			n++
		}
	}
	return n, nil
}

func (v *view) VerificationStats(_ context.Context, now time.Time) (model.VerificationStats, error) {
	var st model.VerificationStats
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for _, ver := range v.d.verifications {
		st.Total++
		if !ver.CreatedAt.Before(dayStart) {
			st.Today++
		}
		if !ver.CreatedAt.Before(monthStart) {
			st.ThisMonth++
		}
		if ver.Status == model.VerificationVerified {
			st.Verified++
		}
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.Verified) / float64(st.Total) * 100
	}
	return st, nil
}

func (v *view) GetShop(_ context.Context, id string) (model.Shop, error) {
	shop, ok := v.d.shops[id]
	if !ok {
		return model.Shop{}, store.ErrNotFound
	}
	return shop, nil
}

func (v *view) ListShopIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(v.d.shops))
	for id := range v.d.shops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (v *view) UpdateWorkingHours(_ context.Context, shopID string, days []model.WorkingDay) error {
	shop, ok := v.d.shops[shopID]
	if !ok {
		return store.ErrNotFound
	}
	shop.WorkingHours = append([]model.WorkingDay(nil), days...)
	v.d.shops[shopID] = shop
	return nil
}

func (v *view) GetService(_ context.Context, id string) (model.Service, error) {
	svc, ok := v.d.services[id]
	if !ok {
		return model.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (v *view) InsertAppointment(_ context.Context, a model.Appointment) error {
	v.d.appointments[a.ID] = a
	return nil
}

func (v *view) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	a, ok := v.d.appointments[id]
	if !ok {
		return model.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (v *view) TransitionAppointment(_ context.Context, id string, from, to model.AppointmentStatus, at time.Time) (bool, error) {
	a, ok := v.d.appointments[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = at
	if to == model.AppointmentCancelled {
		a.CancelledAt = &at
	}
	v.d.appointments[id] = a
	return true, nil
}

func (v *view) ListAppointmentsByPhone(_ context.Context, phone string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range v.d.appointments {
		if a.CustomerPhone == phone {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (v *view) ListAppointmentsByShop(_ context.Context, shopID string, limit int) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range v.d.appointments {
		if a.ShopID == shopID {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(appts []model.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if appts[i].CreatedAt.Equal(appts[j].CreatedAt) {
			return appts[i].ID > appts[j].ID
		}
		return appts[i].CreatedAt.After(appts[j].CreatedAt)
	})
}

func (v *view) ShopStats(_ context.Context, shopID string) (model.ShopStats, error) {
	var st model.ShopStats
	for _, a := range v.d.appointments {
		if a.ShopID != shopID {
			continue
		}
		st.TotalAppointments++
		switch a.Status {
		case model.AppointmentConfirmed:
			st.ConfirmedAppointments++
			st.RevenueCents += a.PriceCents
		case model.AppointmentCancelled:
			st.CancelledAppointments++
		}
	}
	for _, svc := range v.d.services {
		if svc.ShopID == shopID {
			st.TotalServices++
		}
	}
	if st.TotalAppointments > 0 {
		st.CompletionRate = st.ConfirmedAppointments * 100 / st.TotalAppointments
	}
	return st, nil
}

func (v *view) RecordEvent(_ context.Context, evt outbox.Event) error {
	v.d.events = append(v.d.events, evt)
	return nil
}

func (v *view) InsertAddress(_ context.Context, a model.Address) error {
	if a.IsDefault {
		clearAddressDefault(v.d, a.OwnerPhone)
	}
	v.d.addresses[a.ID] = a
	return nil
}

func (v *view) ListAddresses(_ context.Context, owner string) ([]model.Address, error) {
	var out []model.Address
	for _, a := range v.d.addresses {
		if a.OwnerPhone == owner {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v *view) InsertPaymentMethod(_ context.Context, pm model.PaymentMethod) error {
	if pm.IsDefault {
		clearPaymentDefault(v.d, pm.OwnerPhone)
	}
	v.d.payments[pm.ID] = pm
	return nil
}

func (v *view) ListPaymentMethods(_ context.Context, owner string) ([]model.PaymentMethod, error) {
	var out []model.PaymentMethod
	for _, pm := range v.d.payments {
		if pm.OwnerPhone == owner {
			out = append(out, pm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v *view) SetDefault(_ context.Context, kind model.DefaultKind, owner, id string) error {
	switch kind {
	case model.DefaultAddress:
		a, ok := v.d.addresses[id]
		if !ok || a.OwnerPhone != owner {
			return store.ErrNotFound
		}
		clearAddressDefault(v.d, owner)
		a.IsDefault = true
		v.d.addresses[id] = a
	case model.DefaultPaymentMethod:
		pm, ok := v.d.payments[id]
		if !ok || pm.OwnerPhone != owner {
			return store.ErrNotFound
		}
		clearPaymentDefault(v.d, owner)
		pm.IsDefault = true
		v.d.payments[id] = pm
	default:
		return store.ErrNotFound
	}
	return nil
}

func clearAddressDefault(d *data, owner string) {
	for id, a := range d.addresses {
		if a.OwnerPhone == owner && a.IsDefault {
			a.IsDefault = false
			d.addresses[id] = a
		}
	}
}

func clearPaymentDefault(d *data, owner string) {
	for id, pm := range d.payments {
		if pm.OwnerPhone == owner && pm.IsDefault {
			pm.IsDefault = false
			d.payments[id] = pm
		}
	}
}

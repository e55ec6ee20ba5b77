package booking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store/memstore"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	phone = "+16465551234"

	shopID    = "8a6e0804-2bd0-4672-b79d-d97027f9071a"
	cutID     = "3f1c2b8e-6a4d-4e0b-9a57-1d2e3c4b5a60"
	passID    = "5b2d9c17-0e3f-4a81-b6c4-7e8f9a0b1c2d"
	passOneID = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	passTenID = "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e"
	pendingID = "c3d4e5f6-a7b8-4c9d-8e0f-2a3b4c5d6e7f"
	ghostID   = "00000000-0000-4000-8000-000000000000"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memstore.Store
	gate      *verification.Gate
	coord     *Coordinator
	lifecycle *Lifecycle
	slots     []model.TimeSlot
	now       time.Time
	mu        sync.Mutex
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memstore.New(), now: t0}
	f.store.AddShop(model.Shop{ID: shopID, Name: "Glow", Timezone: "UTC", WorkingHours: model.DefaultWorkingHours()})
	f.store.AddService(model.Service{ID: cutID, ShopID: shopID, Name: "Haircut", DurationMinutes: 45, PriceCents: 4500})
	f.store.AddService(model.Service{ID: passID, ShopID: shopID, Name: "Massage", Options: []model.ServiceOption{
		{ID: passOneID, ServiceID: passID, Name: "Single", DurationMinutes: 60, PriceCents: 9000},
		{ID: passTenID, ServiceID: passID, Name: "10 sessions", DurationMinutes: 60, PriceCents: 80000},
	}})

	tuesday := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	res, err := availability.NewGenerator(f.store, f.store, nil, nil).WithClock(f.clock).
		Generate(context.Background(), availability.GenerateRequest{ShopID: shopID, Date: tuesday})
	require.NoError(t, err)
	require.Equal(t, availability.OutcomeCreated, res.Outcome)
	f.slots = res.Slots

	f.gate = verification.NewGate(f.store, nil, nil, verification.Config{DevEcho: true, HashCost: bcrypt.MinCost}, nil, nil).WithClock(f.clock)
	f.coord = NewCoordinator(f.store, f.gate, nil, nil).WithClock(f.clock)
	f.lifecycle = NewLifecycle(f.store, nil, nil).WithClock(f.clock)
	return f
}

func (f *fixture) request(slotID, code string) BookRequest {
	return BookRequest{
		Phone:        phone,
		Code:         code,
		ShopID:       shopID,
		ServiceID:    cutID,
		TimeSlotID:   slotID,
		CustomerName: "Dana",
	}
}

func (f *fixture) slotAvailable(t *testing.T, id string) bool {
	t.Helper()
	sl, err := f.store.GetSlot(context.Background(), id)
	require.NoError(t, err)
	return sl.IsAvailable
}

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.gate.Request(ctx, phone)
	require.NoError(t, err)

	f.set(t0.Add(4*time.Minute + 59*time.Second))
	req := f.request(f.slots[0].ID, res.Code)
	appt, err := f.coord.Book(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentConfirmed, appt.Status)
	assert.Equal(t, "09:00", appt.StartTime)
	assert.Equal(t, "10:00", appt.EndTime)
	assert.Equal(t, int64(4500), appt.PriceCents)
	assert.False(t, f.slotAvailable(t, f.slots[0].ID))

	f.set(t0.Add(4*time.Minute + 59*time.Second + time.Millisecond))
	_, err = f.coord.Book(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, outbox.EventAppointmentBooked, events[0].EventType)
	var payload outbox.AppointmentPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, appt.ID, payload.AppointmentID)
	assert.Equal(t, "Haircut", payload.ServiceName)
}

func TestNoDoubleBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertCustomer(ctx, phone, t0))

	const n = 20
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		unavailable int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.Book(ctx, f.request(f.slots[3].ID, LoggedIn))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperr.ErrSlotUnavailable):
				unavailable++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, unavailable)
	appts, err := f.store.ListAppointmentsByPhone(ctx, phone)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestBookRejectsWrongCodeWithoutClaiming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.gate.Request(ctx, phone)
	require.NoError(t, err)
	wrong := "000000"
	if res.Code == wrong {
		wrong = "111111"
	}

	_, err = f.coord.Book(ctx, f.request(f.slots[0].ID, wrong))
	assert.ErrorIs(t, err, apperr.ErrInvalidOrExpiredCode)
	assert.True(t, f.slotAvailable(t, f.slots[0].ID))

	_, err = f.coord.Book(ctx, f.request(f.slots[0].ID, res.Code))
	assert.NoError(t, err)
}

func TestLostRaceKeepsCodeUsable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.gate.Request(ctx, phone)
	require.NoError(t, err)
	claimed, err := f.store.ClaimSlot(ctx, f.slots[1].ID)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.coord.Book(ctx, f.request(f.slots[1].ID, res.Code))
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)

	_, err = f.coord.Book(ctx, f.request(f.slots[2].ID, res.Code))
	assert.NoError(t, err)
}

func TestLoggedInRequiresKnownCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.Book(ctx, f.request(f.slots[0].ID, LoggedIn))
	assert.ErrorIs(t, err, apperr.ErrUnknownIdentity)
	assert.True(t, f.slotAvailable(t, f.slots[0].ID))

	require.NoError(t, f.store.UpsertCustomer(ctx, phone, t0))
	appt, err := f.coord.Book(ctx, f.request(f.slots[0].ID, LoggedIn))
	require.NoError(t, err)
	assert.Equal(t, phone, appt.CustomerPhone)
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.Book(ctx, BookRequest{Phone: "12", CustomerEmail: "not-an-email"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	fields := apperr.Fields(err)
	for _, k := range []string{"phone", "code", "shopId", "serviceId", "timeSlotId", "customerName", "customerEmail"} {
		assert.Contains(t, fields, k)
	}

	req := f.request(ghostID, LoggedIn)
	_, err = f.coord.Book(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)

	req = f.request(f.slots[0].ID, LoggedIn)
	req.ServiceID = ghostID
	_, err = f.coord.Book(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBookRejectsMalformedIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertCustomer(ctx, phone, t0))

	req := f.request("abc", LoggedIn)
	req.ShopID = "shop-1"
	req.ServiceID = strings.ToUpper(cutID) + "0"
	req.OptionID = "opt"
	_, err := f.coord.Book(ctx, req)
	require.ErrorIs(t, err, apperr.ErrValidation)
	fields := apperr.Fields(err)
	for _, k := range []string{"shopId", "serviceId", "timeSlotId", "optionId"} {
		assert.Equal(t, "must be a UUID", fields[k], k)
	}

	_, err = f.lifecycle.Cancel(ctx, "abc")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.lifecycle.Confirm(ctx, "{"+pendingID+"}")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBookPastSlot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.UpsertCustomer(context.Background(), phone, t0))
	f.set(time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC))

	_, err := f.coord.Book(context.Background(), f.request(f.slots[0].ID, LoggedIn))
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
}

func TestBookOptionPricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertCustomer(ctx, phone, t0))

	req := f.request(f.slots[0].ID, LoggedIn)
	req.ServiceID = passID
	_, err := f.coord.Book(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	wrongPrice := int64(100)
	req.OptionName = "10 sessions"
	req.PriceOverrideCents = &wrongPrice
	_, err = f.coord.Book(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	price := int64(80000)
	req.PriceOverrideCents = &price
	appt, err := f.coord.Book(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, passTenID, appt.ServiceOptionID)
	assert.Equal(t, "10 sessions", appt.OptionName)
	assert.Equal(t, int64(80000), appt.PriceCents)
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertCustomer(ctx, phone, t0))

	appt, err := f.coord.Book(ctx, f.request(f.slots[0].ID, LoggedIn))
	require.NoError(t, err)

	cancelled, err := f.lifecycle.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.True(t, f.slotAvailable(t, f.slots[0].ID))

	_, err = f.coord.Book(ctx, f.request(f.slots[0].ID, LoggedIn))
	assert.NoError(t, err)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertCustomer(ctx, phone, t0))

	appt, err := f.coord.Book(ctx, f.request(f.slots[0].ID, LoggedIn))
	require.NoError(t, err)
	_, err = f.lifecycle.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	// Someone else takes the freed slot; a repeated cancel must not free it again.
	require.NoError(t, f.store.UpsertCustomer(ctx, "+16465550000", t0))
	other := f.request(f.slots[0].ID, LoggedIn)
	other.Phone = "+16465550000"
	_, err = f.coord.Book(ctx, other)
	require.NoError(t, err)

	again, err := f.lifecycle.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, again.Status)
	assert.False(t, f.slotAvailable(t, f.slots[0].ID))

	cancelEvents := 0
	for _, evt := range f.store.Events() {
		if evt.EventType == outbox.EventAppointmentCancelled {
			cancelEvents++
		}
	}
	assert.Equal(t, 1, cancelEvents)
}

func TestConfirmTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.InsertAppointment(ctx, model.Appointment{ID: pendingID, ShopID: shopID, TimeSlotID: f.slots[5].ID, Status: model.AppointmentPending}))

	appt, err := f.lifecycle.Confirm(ctx, pendingID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentConfirmed, appt.Status)

	_, err = f.lifecycle.Confirm(ctx, pendingID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.lifecycle.Cancel(ctx, pendingID)
	require.NoError(t, err)
	_, err = f.lifecycle.Confirm(ctx, pendingID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.lifecycle.Confirm(ctx, ghostID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := model.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func TestInsertSlotsSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	d := day(t, "2025-03-10")

	n, err := s.InsertSlots(ctx, []model.TimeSlot{
		{ID: "a", ShopID: "shop", Date: d, StartTime: "10:00", EndTime: "11:00", IsAvailable: true},
		{ID: "b", ShopID: "shop", Date: d, StartTime: "09:00", EndTime: "10:00", IsAvailable: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.InsertSlots(ctx, []model.TimeSlot{
		{ID: "c", ShopID: "shop", Date: d, StartTime: "10:00", EndTime: "11:00", IsAvailable: true},
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	slots, err := s.ListSlots(ctx, "shop", d)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].StartTime)
}

func TestClaimSlotIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.InsertSlots(ctx, []model.TimeSlot{{ID: "a", ShopID: "shop", Date: day(t, "2025-03-10"), StartTime: "10:00", IsAvailable: true}})
	require.NoError(t, err)

	ok, err := s.ClaimSlot(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ClaimSlot(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ReleaseSlot(ctx, "a"))
	ok, err = s.ClaimSlot(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.InsertSlots(ctx, []model.TimeSlot{{ID: "a", ShopID: "shop", Date: day(t, "2025-03-10"), StartTime: "10:00", IsAvailable: true}})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(tx store.Tx) error {
		ok, err := tx.ClaimSlot(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.InsertAppointment(ctx, model.Appointment{ID: "appt", TimeSlotID: "a"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sl, err := s.GetSlot(ctx, "a")
	require.NoError(t, err)
	assert.True(t, sl.IsAvailable)
	_, err = s.GetAppointment(ctx, "appt")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLatestPendingVerification(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertVerification(ctx, model.Verification{ID: "old", Phone: "+1", Status: model.VerificationPending, CreatedAt: base}))
	require.NoError(t, s.InsertVerification(ctx, model.Verification{ID: "new", Phone: "+1", Status: model.VerificationPending, CreatedAt: base.Add(time.Minute)}))

	v, err := s.LatestPendingVerification(ctx, "+1", base.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "new", v.ID)

	ok, err := s.MarkVerified(ctx, "new", base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.MarkVerified(ctx, "new", base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	v, err = s.LatestPendingVerification(ctx, "+1", base.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "old", v.ID)

	_, err = s.LatestPendingVerification(ctx, "+1", base.Add(30*time.Second))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetDefaultKeepsOneDefault(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	require.NoError(t, s.InsertAddress(ctx, model.Address{ID: "a1", OwnerPhone: "+1", IsDefault: true, CreatedAt: now}))
	require.NoError(t, s.InsertAddress(ctx, model.Address{ID: "a2", OwnerPhone: "+1", CreatedAt: now.Add(time.Second)}))
	require.NoError(t, s.InsertAddress(ctx, model.Address{ID: "other", OwnerPhone: "+2", IsDefault: true, CreatedAt: now}))

	require.NoError(t, s.SetDefault(ctx, model.DefaultAddress, "+1", "a2"))
	list, err := s.ListAddresses(ctx, "+1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].IsDefault)
	assert.True(t, list[1].IsDefault)

	assert.ErrorIs(t, s.SetDefault(ctx, model.DefaultAddress, "+1", "other"), store.ErrNotFound)
	others, err := s.ListAddresses(ctx, "+2")
	require.NoError(t, err)
	assert.True(t, others[0].IsDefault)
}

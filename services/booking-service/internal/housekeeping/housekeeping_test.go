package housekeeping

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store/memstore"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerExpiresAndPurges(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.InsertVerification(ctx, model.Verification{ID: "fresh", Phone: "+1", Status: model.VerificationPending, CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, st.InsertVerification(ctx, model.Verification{ID: "stale", Phone: "+1", Status: model.VerificationPending, CreatedAt: now.Add(-10 * time.Minute)}))
	require.NoError(t, st.InsertVerification(ctx, model.Verification{ID: "ancient", Phone: "+1", Status: model.VerificationVerified, CreatedAt: now.Add(-40 * 24 * time.Hour)}))

	w := NewWorker(st, discard(), WorkerConfig{})
	w.now = func() time.Time { return now }

	expired, purged, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, purged)

	v, err := st.LatestPendingVerification(ctx, "+1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "fresh", v.ID)

	stats, err := st.VerificationStats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
}

func TestRolloverGeneratesAhead(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	st.AddShop(model.Shop{ID: "4c1f9e2a-7b3d-4a58-8e6f-0a1b2c3d4e5f", Timezone: "UTC", WorkingHours: model.DefaultWorkingHours()})
	st.AddShop(model.Shop{ID: "9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a", Timezone: "UTC", WorkingHours: model.DefaultWorkingHours()})

	// Sunday evening: today is closed, Monday and Tuesday are 8 slots each.
	now := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	gen := availability.NewGenerator(st, st, nil, discard()).WithClock(clock)
	r := NewRollover(st, gen, 3, discard())
	r.now = clock

	stats, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Shops)
	assert.Equal(t, 32, stats.Created)
	assert.Zero(t, stats.Failed)

	again, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
}

func TestRolloverSchedule(t *testing.T) {
	st := memstore.New()
	gen := availability.NewGenerator(st, st, nil, discard())
	r := NewRollover(st, gen, 1, discard())

	c := cron.New()
	_, err := r.Schedule(context.Background(), c, "5 0 * * *")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = r.Schedule(context.Background(), c, "not a schedule")
	assert.Error(t, err)
}

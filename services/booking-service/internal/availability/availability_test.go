package availability

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shopID   = "0d9a3f6e-58c1-4b27-9e04-6f1a2b3c4d5e"
	nyShopID = "7e6d5c4b-3a29-4817-a6f5-e4d3c2b1a098"
	ghostID  = "00000000-0000-4000-8000-000000000000"
)

// 2025-03-10 is a Monday.
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func seedShop(t *testing.T, hours []model.WorkingDay) *memstore.Store {
	t.Helper()
	s := memstore.New()
	s.AddShop(model.Shop{ID: shopID, Name: "Glow", Timezone: "UTC", WorkingHours: hours})
	return s
}

func nineToSix() []model.WorkingDay {
	days := model.DefaultWorkingHours()
	days[1].Close = "18:00"
	return days
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestClassifyHour(t *testing.T) {
	assert.Equal(t, model.Morning, ClassifyHour(0))
	assert.Equal(t, model.Morning, ClassifyHour(11))
	assert.Equal(t, model.Afternoon, ClassifyHour(12))
	assert.Equal(t, model.Afternoon, ClassifyHour(16))
	assert.Equal(t, model.Evening, ClassifyHour(17))
	assert.Equal(t, model.Evening, ClassifyHour(23))
}

func TestPlanDayNeverCrossesClose(t *testing.T) {
	open := monday.Add(9 * time.Hour)
	closing := monday.Add(17*time.Hour + 30*time.Minute)

	intervals := PlanDay(open, closing, time.Hour, open)
	require.Len(t, intervals, 8)
	assert.Equal(t, monday.Add(16*time.Hour), intervals[7].Start)
	assert.False(t, intervals[7].End.After(closing))

	assert.Nil(t, PlanDay(closing, open, time.Hour, open))

	late := PlanDay(open.Add(30*time.Minute), closing, time.Hour, monday.Add(11*time.Hour))
	require.Len(t, late, 6)
	assert.Equal(t, monday.Add(11*time.Hour), late[0].Start)
}

func TestSameDayStart(t *testing.T) {
	assert.Equal(t, monday.Add(11*time.Hour), SameDayStart(monday.Add(10*time.Hour+10*time.Minute)))
	assert.Equal(t, monday.Add(11*time.Hour), SameDayStart(monday.Add(10*time.Hour+30*time.Minute)))
	assert.Equal(t, monday.Add(12*time.Hour), SameDayStart(monday.Add(10*time.Hour+31*time.Minute)))
}

func TestGenerateFullDay(t *testing.T) {
	s := seedShop(t, nineToSix())
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(-24 * time.Hour)))

	res, err := g.Generate(context.Background(), GenerateRequest{ShopID: shopID, Date: monday})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	require.Len(t, res.Slots, 9)
	assert.Equal(t, 9, res.Created)

	first, last := res.Slots[0], res.Slots[8]
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "10:00", first.EndTime)
	assert.Equal(t, "17:00", last.StartTime)
	assert.Equal(t, "18:00", last.EndTime)
	assert.Equal(t, model.Evening, last.TimeOfDay)

	day, err := NewInventory(s, s).Day(context.Background(), shopID, monday, false)
	require.NoError(t, err)
	assert.Len(t, day.Morning, 3)
	assert.Len(t, day.Afternoon, 5)
	assert.Len(t, day.Evening, 1)
}

func TestGenerateTwiceDoesNotDuplicate(t *testing.T) {
	s := seedShop(t, nineToSix())
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(-24 * time.Hour)))
	ctx := context.Background()

	_, err := g.Generate(ctx, GenerateRequest{ShopID: shopID, Date: monday})
	require.NoError(t, err)
	res, err := g.Generate(ctx, GenerateRequest{ShopID: shopID, Date: monday})
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 9, res.Skipped)

	slots, err := s.ListSlots(ctx, shopID, monday)
	require.NoError(t, err)
	assert.Len(t, slots, 9)
}

func TestGenerateClosedDay(t *testing.T) {
	s := seedShop(t, nineToSix())
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(-24 * time.Hour)))

	sunday := monday.Add(6 * 24 * time.Hour)
	res, err := g.Generate(context.Background(), GenerateRequest{ShopID: shopID, Date: sunday})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotOpen, res.Outcome)
	assert.Empty(t, res.Slots)
}

func TestGenerateTodayStartsAfterBuffer(t *testing.T) {
	s := seedShop(t, nineToSix())
	now := monday.Add(13*time.Hour + 40*time.Minute)
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(now))

	res, err := g.Generate(context.Background(), GenerateRequest{ShopID: shopID, Date: monday})
	require.NoError(t, err)
	require.Len(t, res.Slots, 3)
	assert.Equal(t, "15:00", res.Slots[0].StartTime)
}

func TestGenerateTodayStartsOnAdjustedHour(t *testing.T) {
	hours := nineToSix()
	hours[1].Open = "09:30"
	s := seedShop(t, hours)
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(10*time.Hour + 20*time.Minute)))

	res, err := g.Generate(context.Background(), GenerateRequest{ShopID: shopID, Date: monday})
	require.NoError(t, err)
	require.Len(t, res.Slots, 7)
	assert.Equal(t, "11:00", res.Slots[0].StartTime)
	assert.Equal(t, "18:00", res.Slots[6].EndTime)

	tomorrow, err := g.Generate(context.Background(), GenerateRequest{ShopID: shopID, Date: monday.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.NotEmpty(t, tomorrow.Slots)
	assert.Equal(t, "09:00", tomorrow.Slots[0].StartTime)
}

func TestGenerateTodayAfterClose(t *testing.T) {
	s := seedShop(t, nineToSix())
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(17*time.Hour + 45*time.Minute)))

	res, err := g.Generate(context.Background(), GenerateRequest{ShopID: shopID, Date: monday})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoSlots, res.Outcome)
}

func TestGenerateQuarterHours(t *testing.T) {
	s := seedShop(t, nineToSix())
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(-24 * time.Hour)))

	res, err := g.Generate(context.Background(), GenerateRequest{ShopID: shopID, Date: monday, GranularityMinutes: 15})
	require.NoError(t, err)
	require.Len(t, res.Slots, 36)
	assert.Equal(t, "09:15", res.Slots[1].StartTime)
	assert.Equal(t, "18:00", res.Slots[35].EndTime)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	s := seedShop(t, nineToSix())
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(24 * time.Hour)))
	ctx := context.Background()

	_, err := g.Generate(ctx, GenerateRequest{ShopID: shopID, Date: monday})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.Fields(err), "date")

	_, err = g.Generate(ctx, GenerateRequest{ShopID: shopID, Date: monday.Add(48 * time.Hour), GranularityMinutes: 45})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = g.Generate(ctx, GenerateRequest{ShopID: ghostID, Date: monday.Add(48 * time.Hour)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = g.Generate(ctx, GenerateRequest{ShopID: "shop-1", Date: monday.Add(48 * time.Hour)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "must be a UUID", apperr.Fields(err)["shopId"])

	_, err = NewInventory(s, s).Day(ctx, "shop-1", monday, false)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGenerateUsesShopTimezone(t *testing.T) {
	s := memstore.New()
	s.AddShop(model.Shop{ID: nyShopID, Timezone: "America/New_York", WorkingHours: nineToSix()})
	// 02:00 UTC on Tuesday is still Monday evening in New York.
	now := monday.Add(26 * time.Hour)
	g := NewGenerator(s, s, nil, nil).WithClock(fixedClock(now))

	res, err := g.Generate(context.Background(), GenerateRequest{ShopID: nyShopID, Date: monday})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoSlots, res.Outcome)
}

func TestInventoryAvailableFilter(t *testing.T) {
	s := seedShop(t, nineToSix())
	ctx := context.Background()
	_, err := NewGenerator(s, s, nil, nil).WithClock(fixedClock(monday.Add(-time.Hour))).
		Generate(ctx, GenerateRequest{ShopID: shopID, Date: monday})
	require.NoError(t, err)

	slots, err := s.ListSlots(ctx, shopID, monday)
	require.NoError(t, err)
	claimed, err := s.ClaimSlot(ctx, slots[len(slots)-1].ID)
	require.NoError(t, err)
	require.True(t, claimed)

	inv := NewInventory(s, s).WithClock(fixedClock(monday.Add(11*time.Hour + 45*time.Minute)))
	day, err := inv.Day(ctx, shopID, monday, true)
	require.NoError(t, err)
	assert.Empty(t, day.Morning)
	require.NotEmpty(t, day.Afternoon)
	assert.Equal(t, "13:00", day.Afternoon[0].StartTime)
	assert.Empty(t, day.Evening)

	all, err := inv.Day(ctx, shopID, monday, false)
	require.NoError(t, err)
	assert.Equal(t, 9, all.Len())
}

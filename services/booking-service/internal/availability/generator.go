package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

const DefaultGranularity = 60

var allowedGranularity = map[int]bool{15: true, 30: true, 60: true}

type Outcome string

const (
	OutcomeCreated Outcome = "CREATED"
	// OutcomeNotOpen means the shop is closed on that weekday.
	OutcomeNotOpen Outcome = "NOT_OPEN"
	// OutcomeNoSlots means the shop is open but no interval fits, e.g. late
	// in the current day.
	OutcomeNoSlots Outcome = "NO_SLOTS"
)

type GenerateRequest struct {
	ShopID             string
	Date               time.Time
	GranularityMinutes int
	// Source labels the metric: "api" or "rollover".
	Source string
}

type GenerateResult struct {
	Outcome Outcome
	Date    time.Time
	Slots   []model.TimeSlot
	Created int
	Skipped int
}

type Generator struct {
	catalog store.CatalogStore
	slots   store.SlotStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewGenerator(catalog store.CatalogStore, slots store.SlotStore, m *metrics.Metrics, logger *slog.Logger) *Generator {
	return &Generator{catalog: catalog, slots: slots, metrics: m, logger: logger, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate writes the day's slots for a shop. Slots that already exist for
// the same start time are left alone, so running it twice is harmless.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if req.GranularityMinutes == 0 {
		req.GranularityMinutes = DefaultGranularity
	}
	verr := &apperr.ValidationError{}
	verr.CheckID("shopId", req.ShopID)
	if req.Date.IsZero() {
		verr.Add("date", "required")
	}
	if !allowedGranularity[req.GranularityMinutes] {
		verr.Add("granularityMinutes", "must be 15, 30 or 60")
	}
	if err := verr.OrNil(); err != nil {
		return GenerateResult{}, err
	}

	shop, err := g.catalog.GetShop(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return GenerateResult{}, apperr.NotFound("shop")
		}
		return GenerateResult{}, apperr.Persistence("load shop", err)
	}

	date := model.CivilDate(req.Date)
	loc := shop.Location()
	now := g.now().In(loc)
	today := model.CivilDate(now)
	if date.Before(today) {
		return GenerateResult{}, apperr.Invalid("date", "must not be in the past")
	}

	result := GenerateResult{Date: date}
	hours := shop.HoursFor(date.Weekday())
	if !hours.IsOpen {
		result.Outcome = OutcomeNotOpen
		return result, nil
	}

	opensAt, closesAt, err := dayWindow(date, hours, loc)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("shop %s working hours: %w", shop.ID, err)
	}
	notBefore := opensAt
	if date.Equal(today) {
		if start := SameDayStart(now); start.After(notBefore) {
			notBefore = start
		}
	}

	step := time.Duration(req.GranularityMinutes) * time.Minute
	intervals := PlanDay(opensAt, closesAt, step, notBefore)
	if len(intervals) == 0 {
		result.Outcome = OutcomeNoSlots
		return result, nil
	}

	createdAt := g.now()
	slots := make([]model.TimeSlot, 0, len(intervals))
	for _, iv := range intervals {
		slots = append(slots, model.TimeSlot{
			ID:          uuid.NewString(),
			ShopID:      shop.ID,
			Date:        date,
			StartTime:   iv.Start.Format(model.ClockLayout),
			EndTime:     iv.End.Format(model.ClockLayout),
			IsAvailable: true,
			TimeOfDay:   ClassifyHour(iv.Start.Hour()),
			CreatedAt:   createdAt,
		})
	}

	created, err := g.slots.InsertSlots(ctx, slots)
	if err != nil {
		return GenerateResult{}, apperr.Persistence("insert slots", err)
	}
	result.Outcome = OutcomeCreated
	result.Slots = slots
	result.Created = created
	result.Skipped = len(slots) - created

	source := req.Source
	if source == "" {
		source = "api"
	}
	g.metrics.ObserveSlotsGenerated(source, created)
	if g.logger != nil {
		g.logger.Info("slots generated",
			"shop_id", shop.ID,
			"date", date.Format(model.DateLayout),
			"created", created,
			"skipped", result.Skipped,
		)
	}
	return result, nil
}

func dayWindow(date time.Time, hours model.WorkingDay, loc *time.Location) (time.Time, time.Time, error) {
	open, err := model.ParseClock(hours.Open)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	closing, err := model.ParseClock(hours.Close)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	at := func(minutes int) time.Time {
		return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, loc)
	}
	return at(open), at(closing), nil
}

package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

type DaySlots struct {
	Morning   []model.TimeSlot
	Afternoon []model.TimeSlot
	Evening   []model.TimeSlot
}

func (d DaySlots) Len() int {
	return len(d.Morning) + len(d.Afternoon) + len(d.Evening)
}

// Partition groups slots by time of day, each group ordered by start time.
func Partition(slots []model.TimeSlot) DaySlots {
	sorted := append([]model.TimeSlot(nil), slots...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })

	out := DaySlots{
		Morning:   []model.TimeSlot{},
		Afternoon: []model.TimeSlot{},
		Evening:   []model.TimeSlot{},
	}
	for _, sl := range sorted {
		switch sl.TimeOfDay {
		case model.Afternoon:
			out.Afternoon = append(out.Afternoon, sl)
		case model.Evening:
			out.Evening = append(out.Evening, sl)
		default:
			out.Morning = append(out.Morning, sl)
		}
	}
	return out
}

type Inventory struct {
	catalog store.CatalogStore
	slots   store.SlotStore
	now     func() time.Time
}

func NewInventory(catalog store.CatalogStore, slots store.SlotStore) *Inventory {
	return &Inventory{catalog: catalog, slots: slots, now: time.Now}
}

func (i *Inventory) WithClock(now func() time.Time) *Inventory {
	i.now = now
	return i
}

// Day lists a shop's slots for date. With onlyAvailable it drops claimed
// slots and, for the current day, slots starting inside the same-day buffer.
func (i *Inventory) Day(ctx context.Context, shopID string, date time.Time, onlyAvailable bool) (DaySlots, error) {
	verr := &apperr.ValidationError{}
	verr.CheckID("shopId", shopID)
	if date.IsZero() {
		verr.Add("date", "required")
	}
	if err := verr.OrNil(); err != nil {
		return DaySlots{}, err
	}

	shop, err := i.catalog.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DaySlots{}, apperr.NotFound("shop")
		}
		return DaySlots{}, apperr.Persistence("load shop", err)
	}

	date = model.CivilDate(date)
	slots, err := i.slots.ListSlots(ctx, shopID, date)
	if err != nil {
		return DaySlots{}, apperr.Persistence("list slots", err)
	}
	if !onlyAvailable {
		return Partition(slots), nil
	}

	loc := shop.Location()
	cutoff := i.now().In(loc).Add(SameDayBuffer)
	kept := slots[:0:0]
	for _, sl := range slots {
		if !sl.IsAvailable {
			continue
		}
		startsAt, err := sl.StartsAt(loc)
		if err != nil || startsAt.Before(cutoff) {
			continue
		}
		kept = append(kept, sl)
	}
	return Partition(kept), nil
}

package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

const slotColumns = `id, shop_id, date, start_time, end_time, is_available, time_of_day, created_at`

func scanSlot(row pgx.Row) (model.TimeSlot, error) {
	var (
		sl  model.TimeSlot
		tod string
	)
	err := row.Scan(&sl.ID, &sl.ShopID, &sl.Date, &sl.StartTime, &sl.EndTime, &sl.IsAvailable, &tod, &sl.CreatedAt)
	sl.TimeOfDay = model.TimeOfDay(tod)
	return sl, err
}

// InsertSlots sends the batch as parallel arrays in one statement.
func (r *queries) InsertSlots(ctx context.Context, slots []model.TimeSlot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	var (
		ids     = make([]string, 0, len(slots))
		shopIDs = make([]string, 0, len(slots))
		dates   = make([]time.Time, 0, len(slots))
		starts  = make([]string, 0, len(slots))
		ends    = make([]string, 0, len(slots))
		tods    = make([]string, 0, len(slots))
	)
	for _, sl := range slots {
		ids = append(ids, sl.ID)
		shopIDs = append(shopIDs, sl.ShopID)
		dates = append(dates, sl.Date)
		starts = append(starts, sl.StartTime)
		ends = append(ends, sl.EndTime)
		tods = append(tods, string(sl.TimeOfDay))
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO time_slots (id, shop_id, date, start_time, end_time, time_of_day, is_available)
		SELECT u.id, u.shop_id, u.date, u.start_time, u.end_time, u.time_of_day, true
		FROM unnest($1::uuid[], $2::uuid[], $3::date[], $4::text[], $5::text[], $6::text[])
			AS u(id, shop_id, date, start_time, end_time, time_of_day)
		ON CONFLICT (shop_id, date, start_time) DO NOTHING
	`, ids, shopIDs, dates, starts, ends, tods)
	if err != nil {
		return 0, mapErr("insert slots", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *queries) GetSlot(ctx context.Context, id string) (model.TimeSlot, error) {
	sl, err := scanSlot(r.q.QueryRow(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = $1`, id))
	return sl, mapErr("get slot", err)
}

func (r *queries) ListSlots(ctx context.Context, shopID string, date time.Time) ([]model.TimeSlot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE shop_id = $1 AND date = $2
		ORDER BY start_time ASC
	`, shopID, date)
	if err != nil {
		return nil, mapErr("list slots", err)
	}
	defer rows.Close()

	var slots []model.TimeSlot
	for rows.Next() {
		sl, err := scanSlot(rows)
		if err != nil {
			return nil, mapErr("scan slot", err)
		}
		slots = append(slots, sl)
	}
	return slots, mapErr("list slots", rows.Err())
}

// ClaimSlot only succeeds for a slot that is still available when the row is
// written, so two concurrent claims cannot both win.
func (r *queries) ClaimSlot(ctx context.Context, id string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE time_slots
		SET is_available = false
		WHERE id = $1 AND is_available = true
	`, id)
	if err != nil {
		return false, mapErr("claim slot", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) ReleaseSlot(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE time_slots SET is_available = true WHERE id = $1`, id)
	return mapErr("release slot", err)
}

package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

const appointmentColumns = `id, shop_id, service_id, COALESCE(service_option_id::text, ''), option_name,
	time_slot_id, customer_name, customer_phone, customer_email, notes, price_cents, duration_minutes,
	status, date, start_time, end_time, cancelled_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a      model.Appointment
		status string
	)
	err := row.Scan(
		&a.ID,
		&a.ShopID,
		&a.ServiceID,
		&a.ServiceOptionID,
		&a.OptionName,
		&a.TimeSlotID,
		&a.CustomerName,
		&a.CustomerPhone,
		&a.CustomerEmail,
		&a.Notes,
		&a.PriceCents,
		&a.DurationMinutes,
		&status,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.CancelledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	a.Status = model.AppointmentStatus(status)
	return a, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *queries) InsertAppointment(ctx context.Context, a model.Appointment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO appointments
			(id, shop_id, service_id, service_option_id, option_name, time_slot_id,
			 customer_name, customer_phone, customer_email, notes, price_cents, duration_minutes,
			 status, date, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
	`, a.ID, a.ShopID, a.ServiceID, nullable(a.ServiceOptionID), a.OptionName, a.TimeSlotID,
		a.CustomerName, a.CustomerPhone, a.CustomerEmail, a.Notes, a.PriceCents, a.DurationMinutes,
		string(a.Status), a.Date, a.StartTime, a.EndTime, a.CreatedAt)
	return mapErr("insert appointment", err)
}

func (r *queries) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(r.q.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	return a, mapErr("get appointment", err)
}

// TransitionAppointment guards on the current status in the WHERE clause. When
// no row changes it checks whether the appointment exists at all.
func (r *queries) TransitionAppointment(ctx context.Context, id string, from, to model.AppointmentStatus, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = $3,
			updated_at = $4,
			cancelled_at = CASE WHEN $3 = 'CANCELLED' THEN $4 ELSE cancelled_at END
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), at)
	if err != nil {
		return false, mapErr("transition appointment", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, mapErr("transition appointment", err)
	}
	if !exists {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (r *queries) listAppointments(ctx context.Context, op, where string, args ...any) ([]model.Appointment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments `+where, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, a)
	}
	return out, mapErr(op, rows.Err())
}

func (r *queries) ListAppointmentsByPhone(ctx context.Context, phone string) ([]model.Appointment, error) {
	return r.listAppointments(ctx, "list appointments by phone",
		`WHERE customer_phone = $1 ORDER BY created_at DESC, id DESC`, phone)
}

func (r *queries) ListAppointmentsByShop(ctx context.Context, shopID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.listAppointments(ctx, "list appointments by shop",
		`WHERE shop_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, shopID, limit)
}

func (r *queries) ShopStats(ctx context.Context, shopID string) (model.ShopStats, error) {
	var st model.ShopStats
	err := r.q.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'CONFIRMED'),
			count(*) FILTER (WHERE status = 'CANCELLED'),
			COALESCE(sum(price_cents) FILTER (WHERE status = 'CONFIRMED'), 0),
			(SELECT count(*) FROM services WHERE shop_id = $1)
		FROM appointments
		WHERE shop_id = $1
	`, shopID).Scan(&st.TotalAppointments, &st.ConfirmedAppointments, &st.CancelledAppointments, &st.RevenueCents, &st.TotalServices)
	if err != nil {
		return model.ShopStats{}, mapErr("shop stats", err)
	}
	if st.TotalAppointments > 0 {
		st.CompletionRate = st.ConfirmedAppointments * 100 / st.TotalAppointments
	}
	return st, nil
}

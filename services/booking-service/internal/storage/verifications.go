package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

func (r *queries) InsertVerification(ctx context.Context, v model.Verification) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO verifications (id, phone, code_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.Phone, v.CodeHash, string(v.Status), v.CreatedAt)
	return mapErr("insert verification", err)
}

func (r *queries) LatestPendingVerification(ctx context.Context, phone string, since time.Time) (model.Verification, error) {
	var (
		v      model.Verification
		status string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, phone, code_hash, status, created_at, verified_at
		FROM verifications
		WHERE phone = $1 AND status = 'PENDING' AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, phone, since).Scan(&v.ID, &v.Phone, &v.CodeHash, &status, &v.CreatedAt, &v.VerifiedAt)
	v.Status = model.VerificationStatus(status)
	return v, mapErr("latest verification", err)
}

func (r *queries) MarkVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE verifications
		SET status = 'VERIFIED', verified_at = $2
		WHERE id = $1 AND status = 'PENDING'
	`, id, at)
	if err != nil {
		return false, mapErr("mark verified", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) UpsertCustomer(ctx context.Context, phone string, at time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO customers (phone, created_at, last_verified_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (phone) DO UPDATE SET last_verified_at = EXCLUDED.last_verified_at
	`, phone, at)
	return mapErr("upsert customer", err)
}

func (r *queries) CustomerExists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE phone = $1)`, phone).Scan(&exists)
	return exists, mapErr("customer exists", err)
}

func (r *queries) ExpireStaleVerifications(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE verifications
		SET status = 'EXPIRED'
		WHERE status = 'PENDING' AND created_at < $1
	`, before)
	if err != nil {
		return 0, mapErr("expire verifications", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *queries) PurgeVerifications(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM verifications WHERE created_at < $1`, before)
	if err != nil {
		return 0, mapErr("purge verifications", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *queries) VerificationStats(ctx context.Context, now time.Time) (model.VerificationStats, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var st model.VerificationStats
	err := r.q.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE created_at >= $1),
			count(*) FILTER (WHERE created_at >= $2),
			count(*),
			count(*) FILTER (WHERE status = 'VERIFIED')
		FROM verifications
	`, dayStart, monthStart).Scan(&st.Today, &st.ThisMonth, &st.Total, &st.Verified)
	if err != nil {
		return model.VerificationStats{}, mapErr("verification stats", err)
	}
	if st.Total > 0 {
		st.SuccessRate = float64(st.Verified) / float64(st.Total) * 100
	}
	return st, nil
}

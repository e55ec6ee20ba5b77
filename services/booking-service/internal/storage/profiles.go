package storage

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

// defaultTables maps each kind to its table. Both tables carry a partial
// unique index on (owner_phone) WHERE is_default.
var defaultTables = map[model.DefaultKind]string{
	model.DefaultAddress:       "addresses",
	model.DefaultPaymentMethod: "payment_methods",
}

func (r *queries) clearDefault(ctx context.Context, table, owner string) error {
	_, err := r.q.Exec(ctx, `UPDATE `+table+` SET is_default = false WHERE owner_phone = $1 AND is_default`, owner)
	return mapErr("clear default", err)
}

func (r *queries) InsertAddress(ctx context.Context, a model.Address) error {
	if a.IsDefault {
		if err := r.clearDefault(ctx, "addresses", a.OwnerPhone); err != nil {
			return err
		}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO addresses (id, owner_phone, label, line1, line2, city, postal_code, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.OwnerPhone, a.Label, a.Line1, a.Line2, a.City, a.PostalCode, a.IsDefault, a.CreatedAt)
	return mapErr("insert address", err)
}

func (r *queries) ListAddresses(ctx context.Context, owner string) ([]model.Address, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, owner_phone, label, line1, line2, city, postal_code, is_default, created_at
		FROM addresses
		WHERE owner_phone = $1
		ORDER BY created_at ASC
	`, owner)
	if err != nil {
		return nil, mapErr("list addresses", err)
	}
	defer rows.Close()

	var out []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(&a.ID, &a.OwnerPhone, &a.Label, &a.Line1, &a.Line2, &a.City, &a.PostalCode, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, mapErr("scan address", err)
		}
		out = append(out, a)
	}
	return out, mapErr("list addresses", rows.Err())
}

func (r *queries) InsertPaymentMethod(ctx context.Context, pm model.PaymentMethod) error {
	if pm.IsDefault {
		if err := r.clearDefault(ctx, "payment_methods", pm.OwnerPhone); err != nil {
			return err
		}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO payment_methods (id, owner_phone, brand, last4, exp_month, exp_year, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pm.ID, pm.OwnerPhone, pm.Brand, pm.Last4, pm.ExpMonth, pm.ExpYear, pm.IsDefault, pm.CreatedAt)
	return mapErr("insert payment method", err)
}

func (r *queries) ListPaymentMethods(ctx context.Context, owner string) ([]model.PaymentMethod, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, owner_phone, brand, last4, exp_month, exp_year, is_default, created_at
		FROM payment_methods
		WHERE owner_phone = $1
		ORDER BY created_at ASC
	`, owner)
	if err != nil {
		return nil, mapErr("list payment methods", err)
	}
	defer rows.Close()

	var out []model.PaymentMethod
	for rows.Next() {
		var pm model.PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.OwnerPhone, &pm.Brand, &pm.Last4, &pm.ExpMonth, &pm.ExpYear, &pm.IsDefault, &pm.CreatedAt); err != nil {
			return nil, mapErr("scan payment method", err)
		}
		out = append(out, pm)
	}
	return out, mapErr("list payment methods", rows.Err())
}

// SetDefault must run inside a transaction: the clear and the set are two
// statements and the partial unique index rejects a second default.
func (r *queries) SetDefault(ctx context.Context, kind model.DefaultKind, owner, id string) error {
	table, ok := defaultTables[kind]
	if !ok {
		return store.ErrNotFound
	}
	if err := r.clearDefault(ctx, table, owner); err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `UPDATE `+table+` SET is_default = true WHERE id = $1 AND owner_phone = $2`, id, owner)
	if err != nil {
		return mapErr("set default", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

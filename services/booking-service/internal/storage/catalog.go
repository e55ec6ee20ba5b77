package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

func (r *queries) GetShop(ctx context.Context, id string) (model.Shop, error) {
	var (
		shop  model.Shop
		hours []byte
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, name, address, phone, timezone, working_hours, created_at
		FROM shops
		WHERE id = $1
	`, id).Scan(&shop.ID, &shop.Name, &shop.Address, &shop.Phone, &shop.Timezone, &hours, &shop.CreatedAt)
	if err != nil {
		return model.Shop{}, mapErr("get shop", err)
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &shop.WorkingHours); err != nil {
			return model.Shop{}, fmt.Errorf("decode working hours for shop %s: %w", id, err)
		}
	}
	return shop, nil
}

func (r *queries) ListShopIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM shops ORDER BY id`)
	if err != nil {
		return nil, mapErr("list shops", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapErr("scan shop", err)
		}
		ids = append(ids, id)
	}
	return ids, mapErr("list shops", rows.Err())
}

func (r *queries) UpdateWorkingHours(ctx context.Context, shopID string, days []model.WorkingDay) error {
	payload, err := json.Marshal(days)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `UPDATE shops SET working_hours = $2 WHERE id = $1`, shopID, payload)
	if err != nil {
		return mapErr("update working hours", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *queries) GetService(ctx context.Context, id string) (model.Service, error) {
	var svc model.Service
	err := r.q.QueryRow(ctx, `
		SELECT id, shop_id, name, category, duration_minutes, price_cents
		FROM services
		WHERE id = $1
	`, id).Scan(&svc.ID, &svc.ShopID, &svc.Name, &svc.Category, &svc.DurationMinutes, &svc.PriceCents)
	if err != nil {
		return model.Service{}, mapErr("get service", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, service_id, name, option_type, duration_minutes, price_cents
		FROM service_options
		WHERE service_id = $1
		ORDER BY price_cents ASC, name ASC
	`, id)
	if err != nil {
		return model.Service{}, mapErr("list service options", err)
	}
	defer rows.Close()
	for rows.Next() {
		var opt model.ServiceOption
		if err := rows.Scan(&opt.ID, &opt.ServiceID, &opt.Name, &opt.Type, &opt.DurationMinutes, &opt.PriceCents); err != nil {
			return model.Service{}, mapErr("scan service option", err)
		}
		svc.Options = append(svc.Options, opt)
	}
	return svc, mapErr("list service options", rows.Err())
}

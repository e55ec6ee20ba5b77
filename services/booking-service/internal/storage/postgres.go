// Package storage is the Postgres implementation of store.Store.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

// Store runs statements on the pool. Inside WithinTx the same queries run on
// the transaction instead.
type Store struct {
	queries
	pool db.PgxPool
}

func New(pool db.PgxPool) *Store {
	return &Store{queries: queries{q: pool}, pool: pool}
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*queries)(nil)
)

type queries struct {
	q db.Querier
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&queries{q: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

// SetDefault touches two rows, so outside a transaction it opens its own.
func (s *Store) SetDefault(ctx context.Context, kind model.DefaultKind, owner, id string) error {
	return s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.SetDefault(ctx, kind, owner, id)
	})
}

func (s *Store) InsertAddress(ctx context.Context, a model.Address) error {
	return s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertAddress(ctx, a)
	})
}

func (s *Store) InsertPaymentMethod(ctx context.Context, pm model.PaymentMethod) error {
	return s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.InsertPaymentMethod(ctx, pm)
	})
}

func (r *queries) RecordEvent(ctx context.Context, evt outbox.Event) error {
	return outbox.Insert(ctx, r.q, evt)
}

// mapErr turns pgx.ErrNoRows into store.ErrNotFound and tags other failures
// with op.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

package housekeeping

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"github.com/robfig/cron/v3"
)

// Rollover keeps every shop's inventory generated a fixed number of days
// ahead.
type Rollover struct {
	catalog   store.CatalogStore
	generator *availability.Generator
	days      int
	logger    *slog.Logger
	now       func() time.Time
}

func NewRollover(catalog store.CatalogStore, gen *availability.Generator, days int, logger *slog.Logger) *Rollover {
	if days <= 0 {
		days = 14
	}
	return &Rollover{catalog: catalog, generator: gen, days: days, logger: logger, now: time.Now}
}

type RolloverStats struct {
	Shops   int
	Created int
	Failed  int
}

// RunOnce generates today and the following days for each shop. A failure
// for one shop is logged and does not stop the others.
func (r *Rollover) RunOnce(ctx context.Context) (RolloverStats, error) {
	ids, err := r.catalog.ListShopIDs(ctx)
	if err != nil {
		return RolloverStats{}, err
	}
	var stats RolloverStats
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		shop, err := r.catalog.GetShop(ctx, id)
		if err != nil {
			stats.Failed++
			r.logger.Error("rollover shop lookup failed", "err", err, "shop_id", id)
			continue
		}
		stats.Shops++
		today := model.CivilDate(r.now().In(shop.Location()))
		for d := 0; d < r.days; d++ {
			res, err := r.generator.Generate(ctx, availability.GenerateRequest{
				ShopID: id,
				Date:   today.AddDate(0, 0, d),
				Source: "rollover",
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return stats, err
				}
				stats.Failed++
				r.logger.Error("rollover generate failed", "err", err, "shop_id", id, "offset_days", d)
				continue
			}
			stats.Created += res.Created
		}
	}
	r.logger.Info("slot rollover complete", "shops", stats.Shops, "created", stats.Created, "failed", stats.Failed)
	return stats, nil
}

// Schedule registers the rollover on c using a standard five field cron
// expression. Runs use ctx, so cancelling it aborts an in-flight pass.
func (r *Rollover) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("slot rollover failed", "err", err)
		}
	})
}

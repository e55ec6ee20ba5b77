package inbox

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/libs/db"
)

// Record claims eventID for this consumer. It reports false when the event
// was already recorded, so callers can skip redelivered messages. Run it in
// the same transaction as the side effects it guards.
func Record(ctx context.Context, q db.Querier, eventID, eventType string) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

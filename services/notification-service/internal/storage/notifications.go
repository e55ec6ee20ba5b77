package storage

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/libs/db"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Notification is one delivery attempt for a booking event.
type Notification struct {
	EventID       string
	EventType     string
	AppointmentID string
	ShopID        string
	Channel       string
	Recipient     string
	Body          string
	Status        string
	ProviderID    string
	Error         string
}

func Insert(ctx context.Context, q db.Querier, n Notification) error {
	_, err := q.Exec(ctx, `
		INSERT INTO notifications
			(event_id, event_type, appointment_id, shop_id, channel, recipient, body, status, provider_id, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, n.EventID, n.EventType, n.AppointmentID, n.ShopID, n.Channel, n.Recipient, n.Body, n.Status, n.ProviderID, n.Error)
	return err
}

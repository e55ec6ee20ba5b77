package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	"github.com/md-rashed-zaman/salonbook/libs/sms"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/salonbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

const (
	EventBooked    = "booking.appointment.booked.v1"
	EventCancelled = "booking.appointment.cancelled.v1"
	EventConfirmed = "booking.appointment.confirmed.v1"
)

// Topics lists every event the processor turns into a message.
var Topics = []string{EventBooked, EventCancelled, EventConfirmed}

type appointmentEvent struct {
	AppointmentID string `json:"appointment_id"`
	ShopID        string `json:"shop_id"`
	ShopName      string `json:"shop_name"`
	ServiceName   string `json:"service_name"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
}

type Processor struct {
	pool       db.PgxPool
	sender     sms.Sender
	logger     *slog.Logger
	failSuffix string
}

type Config struct {
	// FailSuffix makes sends to recipients ending in it fail without calling
	// the provider. Used by end-to-end tests.
	FailSuffix string
}

func NewProcessor(pool db.PgxPool, sender sms.Sender, logger *slog.Logger, cfg Config) *Processor {
	return &Processor{pool: pool, sender: sender, logger: logger, failSuffix: cfg.FailSuffix}
}

// Handle processes one message at most once per event id. A malformed
// message is logged and dropped; database errors are returned.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID == "" {
		p.logger.Error("event without id dropped", "topic", msg.Topic)
		return nil
	}

	var evt appointmentEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		p.logger.Error("invalid event payload", "err", err, "event_id", meta.EventID)
		return nil
	}

	return db.InTx(ctx, p.pool, func(tx pgx.Tx) error {
		fresh, err := inbox.Record(ctx, tx, meta.EventID, meta.EventType)
		if err != nil {
			return fmt.Errorf("inbox record: %w", err)
		}
		if !fresh {
			p.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
			return nil
		}

		n := p.deliver(ctx, meta.EventType, evt)
		n.EventID = meta.EventID
		if err := storage.Insert(ctx, tx, n); err != nil {
			return fmt.Errorf("record notification: %w", err)
		}
		p.logger.Info("notification processed",
			"event_id", meta.EventID,
			"appointment_id", evt.AppointmentID,
			"recipient", sms.Mask(evt.CustomerPhone),
			"status", n.Status,
		)
		return nil
	})
}

func (p *Processor) deliver(ctx context.Context, eventType string, evt appointmentEvent) storage.Notification {
	n := storage.Notification{
		EventType:     eventType,
		AppointmentID: evt.AppointmentID,
		ShopID:        evt.ShopID,
		Channel:       "sms",
		Recipient:     evt.CustomerPhone,
	}
	body, ok := compose(eventType, evt)
	switch {
	case !ok:
		n.Status = storage.StatusSkipped
		n.Error = "unsupported event type"
		return n
	case strings.TrimSpace(evt.CustomerPhone) == "":
		n.Status = storage.StatusSkipped
		n.Error = "missing recipient"
		return n
	}
	n.Body = body

	if p.failSuffix != "" && strings.HasSuffix(evt.CustomerPhone, p.failSuffix) {
		n.Status = storage.StatusFailed
		n.Error = "simulated failure"
		return n
	}
	if err := p.sender.Send(ctx, evt.CustomerPhone, body); err != nil {
		p.logger.Error("sms send failed", "err", err, "recipient", sms.Mask(evt.CustomerPhone))
		n.Status = storage.StatusFailed
		n.Error = err.Error()
		return n
	}
	n.Status = storage.StatusSent
	n.ProviderID = p.sender.ProviderID()
	return n
}

// compose renders the customer-facing text for an event type.
func compose(eventType string, evt appointmentEvent) (string, bool) {
	what := evt.ServiceName
	if what == "" {
		what = "appointment"
	}
	where := ""
	if evt.ShopName != "" {
		where = " at " + evt.ShopName
	}
	greeting := "Hi"
	if name := strings.TrimSpace(evt.CustomerName); name != "" {
		greeting = "Hi " + name
	}

	switch eventType {
	case EventBooked:
		return fmt.Sprintf("%s, your %s%s is booked for %s at %s.", greeting, what, where, evt.Date, evt.StartTime), true
	case EventConfirmed:
		return fmt.Sprintf("%s, your %s%s on %s at %s is confirmed.", greeting, what, where, evt.Date, evt.StartTime), true
	case EventCancelled:
		return fmt.Sprintf("%s, your %s%s on %s at %s has been cancelled.", greeting, what, where, evt.Date, evt.StartTime), true
	default:
		return "", false
	}
}

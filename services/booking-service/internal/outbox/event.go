package outbox

import (
	"encoding/json"
	"time"
)

const (
	AggregateAppointment = "appointment"

	EventAppointmentBooked    = "booking.appointment.booked.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
	EventAppointmentConfirmed = "booking.appointment.confirmed.v1"
)

// Event is the envelope written to the outbox table. The Kafka topic equals
// EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentPayload is the body of every appointment event.
type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	ShopID        string    `json:"shop_id"`
	ShopName      string    `json:"shop_name,omitempty"`
	ServiceName   string    `json:"service_name,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	PriceCents    int64     `json:"price_cents"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewAppointmentEvent(eventType string, p AppointmentPayload) (Event, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   p.AppointmentID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}

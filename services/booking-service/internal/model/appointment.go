package model

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:   {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCancelled},
}

// CanTransitionTo reports whether next is reachable from s in one step.
// CANCELLED has no outgoing transitions.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment holds a snapshot of the slot times and the resolved price taken
// at booking time. Later catalog or slot edits never rewrite it.
type Appointment struct {
	ID              string
	ShopID          string
	ServiceID       string
	ServiceOptionID string
	OptionName      string
	TimeSlotID      string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	Notes           string
	PriceCents      int64
	DurationMinutes int
	Status          AppointmentStatus
	Date            time.Time
	StartTime       string
	EndTime         string
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

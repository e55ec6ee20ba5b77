package model

import "time"

// DefaultKind names a per-customer collection that keeps exactly one default entry.
type DefaultKind string

const (
	DefaultAddress       DefaultKind = "address"
	DefaultPaymentMethod DefaultKind = "payment_method"
)

type Address struct {
	ID         string
	OwnerPhone string
	Label      string
	Line1      string
	Line2      string
	City       string
	PostalCode string
	IsDefault  bool
	CreatedAt  time.Time
}

// PaymentMethod stores display metadata only; card data never reaches this service.
type PaymentMethod struct {
	ID         string
	OwnerPhone string
	Brand      string
	Last4      string
	ExpMonth   int
	ExpYear    int
	IsDefault  bool
	CreatedAt  time.Time
}

type ShopStats struct {
	TotalAppointments     int
	ConfirmedAppointments int
	CancelledAppointments int
	TotalServices         int
	RevenueCents          int64
	CompletionRate        int
}

package model

import (
	"errors"
	"fmt"
)

type Service struct {
	ID              string
	ShopID          string
	Name            string
	Category        string
	DurationMinutes int
	PriceCents      int64
	Options         []ServiceOption
}

// ServiceOption is a named priced variant of a service, e.g. a 10-session pass.
type ServiceOption struct {
	ID              string
	ServiceID       string
	Name            string
	Type            string
	DurationMinutes int
	PriceCents      int64
}

// Pricing is either FlatPricing or OptionPricing.
type Pricing interface {
	isPricing()
}

type FlatPricing struct {
	PriceCents      int64
	DurationMinutes int
}

type OptionPricing struct {
	Variants []ServiceOption
}

func (FlatPricing) isPricing()   {}
func (OptionPricing) isPricing() {}

// Pricing classifies the service once: any options make it option priced.
func (s Service) Pricing() Pricing {
	if len(s.Options) > 0 {
		return OptionPricing{Variants: s.Options}
	}
	return FlatPricing{PriceCents: s.PriceCents, DurationMinutes: s.DurationMinutes}
}

// PriceSnapshot is what an appointment records about the price it was booked at.
type PriceSnapshot struct {
	PriceCents      int64
	DurationMinutes int
	OptionID        string
	OptionName      string
}

var (
	ErrOptionRequired   = errors.New("service is sold by option; optionId is required")
	ErrOptionNotAllowed = errors.New("service has a single price; optionId must be empty")
	ErrUnknownOption    = errors.New("option does not belong to service")
)

// ResolvePrice picks the snapshot for optionID under p.
func ResolvePrice(p Pricing, optionID string) (PriceSnapshot, error) {
	switch v := p.(type) {
	case FlatPricing:
		if optionID != "" {
			return PriceSnapshot{}, ErrOptionNotAllowed
		}
		return PriceSnapshot{PriceCents: v.PriceCents, DurationMinutes: v.DurationMinutes}, nil
	case OptionPricing:
		if optionID == "" {
			return PriceSnapshot{}, ErrOptionRequired
		}
		for _, opt := range v.Variants {
			if opt.ID == optionID {
				return PriceSnapshot{
					PriceCents:      opt.PriceCents,
					DurationMinutes: opt.DurationMinutes,
					OptionID:        opt.ID,
					OptionName:      opt.Name,
				}, nil
			}
		}
		return PriceSnapshot{}, ErrUnknownOption
	default:
		return PriceSnapshot{}, fmt.Errorf("unsupported pricing %T", p)
	}
}

package handlers

import (
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type slotItem struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
	TimeOfDay   string `json:"timeOfDay"`
}

type daySlotsResponse struct {
	Morning   []slotItem `json:"morning"`
	Afternoon []slotItem `json:"afternoon"`
	Evening   []slotItem `json:"evening"`
}

func toSlotItems(slots []model.TimeSlot) []slotItem {
	out := make([]slotItem, 0, len(slots))
	for _, sl := range slots {
		out = append(out, slotItem{
			ID:          sl.ID,
			Date:        sl.Date.Format(model.DateLayout),
			StartTime:   sl.StartTime,
			EndTime:     sl.EndTime,
			IsAvailable: sl.IsAvailable,
			TimeOfDay:   string(sl.TimeOfDay),
		})
	}
	return out
}

func toDaySlots(d availability.DaySlots) daySlotsResponse {
	return daySlotsResponse{
		Morning:   toSlotItems(d.Morning),
		Afternoon: toSlotItems(d.Afternoon),
		Evening:   toSlotItems(d.Evening),
	}
}

type appointmentItem struct {
	AppointmentID string  `json:"appointmentId"`
	ShopID        string  `json:"shopId"`
	ServiceID     string  `json:"serviceId"`
	TimeSlotID    string  `json:"timeSlotId"`
	OptionName    string  `json:"optionName,omitempty"`
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone,omitempty"`
	Status        string  `json:"status"`
	Date          string  `json:"date"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	PriceCents    int64   `json:"priceCents"`
	CancelledAt   *string `json:"cancelledAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func toAppointmentItem(a model.Appointment, withPhone bool) appointmentItem {
	item := appointmentItem{
		AppointmentID: a.ID,
		ShopID:        a.ShopID,
		ServiceID:     a.ServiceID,
		TimeSlotID:    a.TimeSlotID,
		OptionName:    a.OptionName,
		CustomerName:  a.CustomerName,
		Status:        string(a.Status),
		Date:          a.Date.Format(model.DateLayout),
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		PriceCents:    a.PriceCents,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withPhone {
		item.CustomerPhone = a.CustomerPhone
	}
	if a.CancelledAt != nil {
		s := a.CancelledAt.UTC().Format(time.RFC3339)
		item.CancelledAt = &s
	}
	return item
}

func toAppointmentItems(appts []model.Appointment, withPhone bool) []appointmentItem {
	out := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentItem(a, withPhone))
	}
	return out
}

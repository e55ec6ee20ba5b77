package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/salonbook/libs/auth"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/verification"
)

type bookRequest struct {
	Phone         string `json:"phone"`
	Code          string `json:"code"`
	ShopID        string `json:"shopId"`
	ServiceID     string `json:"serviceId"`
	TimeSlotID    string `json:"timeSlotId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	Notes         string `json:"notes,omitempty"`
	PriceOverride *int64 `json:"priceOverride,omitempty"`
	OptionName    string `json:"optionName,omitempty"`
	OptionID      string `json:"optionId,omitempty"`
}

type bookResponse struct {
	AppointmentID string `json:"appointmentId"`
	Status        string `json:"status"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	PriceCents    int64  `json:"priceCents"`
}

func (a *API) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}

	// The session sentinel is only honoured together with a matching session.
	if strings.TrimSpace(req.Code) == booking.LoggedIn {
		phone, err := verification.NormalizePhone(req.Phone)
		c := claimsFrom(r.Context())
		if err == nil && (c == nil || c.Role != auth.RoleCustomer || c.Subject != phone) {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "a customer session for this phone is required")
			return
		}
	}

	appt, err := a.coord.Book(r.Context(), booking.BookRequest{
		Phone:              req.Phone,
		Code:               req.Code,
		ShopID:             strings.TrimSpace(req.ShopID),
		ServiceID:          strings.TrimSpace(req.ServiceID),
		TimeSlotID:         strings.TrimSpace(req.TimeSlotID),
		OptionID:           strings.TrimSpace(req.OptionID),
		OptionName:         strings.TrimSpace(req.OptionName),
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		Notes:              req.Notes,
		PriceOverrideCents: req.PriceOverride,
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, bookResponse{
		AppointmentID: appt.ID,
		Status:        string(appt.Status),
		Date:          appt.Date.Format(model.DateLayout),
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
		PriceCents:    appt.PriceCents,
	})
}

type cancelRequest struct {
	AppointmentID string `json:"appointmentId"`
}

type cancelResponse struct {
	AppointmentID string `json:"appointmentId"`
	Status        string `json:"status"`
}

// cancelAppointment accepts the owning customer's session or a staff token
// for the appointment's shop.
func (a *API) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}
	id := strings.TrimSpace(req.AppointmentID)
	if err := apperr.ID("appointmentId", id); err != nil {
		a.writeErr(w, r, err)
		return
	}

	c := claimsFrom(r.Context())
	if c == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session required")
		return
	}
	appt, err := a.store.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = apperr.NotFound("appointment")
		}
		a.writeErr(w, r, err)
		return
	}
	owner := c.Role == auth.RoleCustomer && c.Subject == appt.CustomerPhone
	if !owner && !c.CanManageShop(appt.ShopID) {
		// Reported as missing to callers without access.
		a.writeErr(w, r, apperr.NotFound("appointment"))
		return
	}

	cancelled, err := a.lifecycle.Cancel(r.Context(), id)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cancelResponse{AppointmentID: cancelled.ID, Status: string(cancelled.Status)})
}

func (a *API) myAppointments(w http.ResponseWriter, r *http.Request) {
	phone := claimsFrom(r.Context()).Subject
	appts, err := a.store.ListAppointmentsByPhone(r.Context(), phone)
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("list appointments", err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": toAppointmentItems(appts, false)})
}

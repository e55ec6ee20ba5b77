package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

type generateSlotsRequest struct {
	Date               string `json:"date"`
	GranularityMinutes int    `json:"granularityMinutes,omitempty"`
}

type generateSlotsResponse struct {
	Outcome string     `json:"outcome"`
	Date    string     `json:"date"`
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Slots   []slotItem `json:"slots"`
}

func (a *API) generateSlots(w http.ResponseWriter, r *http.Request) {
	var req generateSlotsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		a.writeErr(w, r, apperr.Invalid("date", "must be YYYY-MM-DD"))
		return
	}
	res, err := a.generator.Generate(r.Context(), availability.GenerateRequest{
		ShopID:             chi.URLParam(r, "shopID"),
		Date:               date,
		GranularityMinutes: req.GranularityMinutes,
		Source:             "api",
	})
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, generateSlotsResponse{
		Outcome: string(res.Outcome),
		Date:    res.Date.Format(model.DateLayout),
		Created: res.Created,
		Skipped: res.Skipped,
		Slots:   toSlotItems(res.Slots),
	})
}

func (a *API) shopAppointments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			a.writeErr(w, r, apperr.Invalid("limit", "must be between 1 and 500"))
			return
		}
		limit = n
	}
	appts, err := a.store.ListAppointmentsByShop(r.Context(), chi.URLParam(r, "shopID"), limit)
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("list appointments", err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": toAppointmentItems(appts, true)})
}

type statsResponse struct {
	TotalAppointments     int    `json:"totalAppointments"`
	ConfirmedAppointments int    `json:"confirmedAppointments"`
	CancelledAppointments int    `json:"cancelledAppointments"`
	TotalServices         int    `json:"totalServices"`
	RevenueCents          int64  `json:"revenueCents"`
	CompletionRate        int    `json:"completionRate"`
	Verifications         vstats `json:"verifications"`
}

type vstats struct {
	Today       int     `json:"today"`
	ThisMonth   int     `json:"thisMonth"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"successRate"`
}

func (a *API) shopStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := a.store.ShopStats(ctx, chi.URLParam(r, "shopID"))
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("shop stats", err))
		return
	}
	vs, err := a.store.VerificationStats(ctx, time.Now().UTC())
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("verification stats", err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, statsResponse{
		TotalAppointments:     st.TotalAppointments,
		ConfirmedAppointments: st.ConfirmedAppointments,
		CancelledAppointments: st.CancelledAppointments,
		TotalServices:         st.TotalServices,
		RevenueCents:          st.RevenueCents,
		CompletionRate:        st.CompletionRate,
		Verifications: vstats{
			Today:       vs.Today,
			ThisMonth:   vs.ThisMonth,
			Total:       vs.Total,
			SuccessRate: vs.SuccessRate,
		},
	})
}

type workingHoursRequest struct {
	Days []model.WorkingDay `json:"days"`
}

func (a *API) updateWorkingHours(w http.ResponseWriter, r *http.Request) {
	var req workingHoursRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}
	if err := model.ValidateWorkingHours(req.Days); err != nil {
		a.writeErr(w, r, apperr.Invalid("days", err.Error()))
		return
	}
	if err := a.store.UpdateWorkingHours(r.Context(), chi.URLParam(r, "shopID"), req.Days); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = apperr.NotFound("shop")
		}
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, req)
}

// staffAppointment loads the appointment named in the path and checks the
// caller may manage its shop.
func (a *API) staffAppointment(w http.ResponseWriter, r *http.Request) (model.Appointment, bool) {
	id := chi.URLParam(r, "id")
	if err := apperr.ID("appointmentId", id); err != nil {
		a.writeErr(w, r, err)
		return model.Appointment{}, false
	}
	appt, err := a.store.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = apperr.NotFound("appointment")
		}
		a.writeErr(w, r, err)
		return model.Appointment{}, false
	}
	if !claimsFrom(r.Context()).CanManageShop(appt.ShopID) {
		httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "token is not scoped to this shop")
		return model.Appointment{}, false
	}
	return appt, true
}

func (a *API) adminConfirm(w http.ResponseWriter, r *http.Request) {
	appt, ok := a.staffAppointment(w, r)
	if !ok {
		return
	}
	confirmed, err := a.lifecycle.Confirm(r.Context(), appt.ID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentItem(confirmed, true))
}

func (a *API) adminCancel(w http.ResponseWriter, r *http.Request) {
	appt, ok := a.staffAppointment(w, r)
	if !ok {
		return
	}
	cancelled, err := a.lifecycle.Cancel(r.Context(), appt.ID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentItem(cancelled, true))
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

func (a *API) listSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shopID := strings.TrimSpace(q.Get("shopId"))
	rawDate := strings.TrimSpace(q.Get("date"))

	verr := &apperr.ValidationError{}
	verr.CheckID("shopId", shopID)
	date, err := model.ParseDate(rawDate)
	if err != nil {
		verr.Add("date", "must be YYYY-MM-DD")
	}
	if err := verr.OrNil(); err != nil {
		a.writeErr(w, r, err)
		return
	}

	day, err := a.inventory.Day(r.Context(), shopID, date, config.IsTruthy(q.Get("available")))
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDaySlots(day))
}

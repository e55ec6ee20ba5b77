package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
)

const (
	defaultAddress       = model.DefaultAddress
	defaultPaymentMethod = model.DefaultPaymentMethod
)

type addressBody struct {
	ID         string `json:"id,omitempty"`
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	IsDefault  bool   `json:"isDefault"`
}

type paymentMethodBody struct {
	ID        string `json:"id,omitempty"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4"`
	ExpMonth  int    `json:"expMonth"`
	ExpYear   int    `json:"expYear"`
	IsDefault bool   `json:"isDefault"`
}

func (a *API) listAddresses(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.ListAddresses(r.Context(), claimsFrom(r.Context()).Subject)
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("list addresses", err))
		return
	}
	out := make([]addressBody, 0, len(list))
	for _, ad := range list {
		out = append(out, addressBody{ID: ad.ID, Label: ad.Label, Line1: ad.Line1, Line2: ad.Line2, City: ad.City, PostalCode: ad.PostalCode, IsDefault: ad.IsDefault})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"addresses": out})
}

func (a *API) createAddress(w http.ResponseWriter, r *http.Request) {
	var body addressBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}
	verr := &apperr.ValidationError{}
	if strings.TrimSpace(body.Line1) == "" {
		verr.Add("line1", "required")
	}
	if strings.TrimSpace(body.City) == "" {
		verr.Add("city", "required")
	}
	if err := verr.OrNil(); err != nil {
		a.writeErr(w, r, err)
		return
	}

	body.ID = uuid.NewString()
	err := a.store.InsertAddress(r.Context(), model.Address{
		ID:         body.ID,
		OwnerPhone: claimsFrom(r.Context()).Subject,
		Label:      strings.TrimSpace(body.Label),
		Line1:      strings.TrimSpace(body.Line1),
		Line2:      strings.TrimSpace(body.Line2),
		City:       strings.TrimSpace(body.City),
		PostalCode: strings.TrimSpace(body.PostalCode),
		IsDefault:  body.IsDefault,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("insert address", err))
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, body)
}

func (a *API) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.ListPaymentMethods(r.Context(), claimsFrom(r.Context()).Subject)
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("list payment methods", err))
		return
	}
	out := make([]paymentMethodBody, 0, len(list))
	for _, pm := range list {
		out = append(out, paymentMethodBody{ID: pm.ID, Brand: pm.Brand, Last4: pm.Last4, ExpMonth: pm.ExpMonth, ExpYear: pm.ExpYear, IsDefault: pm.IsDefault})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"paymentMethods": out})
}

func (a *API) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var body paymentMethodBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}
	verr := &apperr.ValidationError{}
	if strings.TrimSpace(body.Brand) == "" {
		verr.Add("brand", "required")
	}
	if len(body.Last4) != 4 || strings.Trim(body.Last4, "0123456789") != "" {
		verr.Add("last4", "must be 4 digits")
	}
	if body.ExpMonth < 1 || body.ExpMonth > 12 {
		verr.Add("expMonth", "must be 1-12")
	}
	if body.ExpYear < 2000 {
		verr.Add("expYear", "invalid")
	}
	if err := verr.OrNil(); err != nil {
		a.writeErr(w, r, err)
		return
	}

	body.ID = uuid.NewString()
	err := a.store.InsertPaymentMethod(r.Context(), model.PaymentMethod{
		ID:         body.ID,
		OwnerPhone: claimsFrom(r.Context()).Subject,
		Brand:      strings.TrimSpace(body.Brand),
		Last4:      body.Last4,
		ExpMonth:   body.ExpMonth,
		ExpYear:    body.ExpYear,
		IsDefault:  body.IsDefault,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		a.writeErr(w, r, apperr.Persistence("insert payment method", err))
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, body)
}

func (a *API) setDefault(kind model.DefaultKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := apperr.ID("id", id); err != nil {
			a.writeErr(w, r, err)
			return
		}
		err := a.store.SetDefault(r.Context(), kind, claimsFrom(r.Context()).Subject, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				err = apperr.NotFound(string(kind))
			}
			a.writeErr(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "isDefault": true})
	}
}

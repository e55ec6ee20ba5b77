package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/salonbook/libs/auth"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/store"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/verification"
)

// API serves the public and admin JSON endpoints.
type API struct {
	store     store.Store
	coord     *booking.Coordinator
	lifecycle *booking.Lifecycle
	gate      *verification.Gate
	inventory *availability.Inventory
	generator *availability.Generator
	issuer    *auth.Issuer
	logger    *slog.Logger
}

type Deps struct {
	Store       store.Store
	Coordinator *booking.Coordinator
	Lifecycle   *booking.Lifecycle
	Gate        *verification.Gate
	Inventory   *availability.Inventory
	Generator   *availability.Generator
	Issuer      *auth.Issuer
	Logger      *slog.Logger
}

func NewAPI(d Deps) *API {
	return &API{
		store:     d.Store,
		coord:     d.Coordinator,
		lifecycle: d.Lifecycle,
		gate:      d.Gate,
		inventory: d.Inventory,
		generator: d.Generator,
		issuer:    d.Issuer,
		logger:    d.Logger,
	}
}

// Routes mounts everything under /api/v1. Public write endpoints can be
// wrapped with limit, typically a rate limiter.
func (a *API) Routes(limit httpx.Middleware) http.Handler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	r := chi.NewRouter()
	r.Use(a.parseSession)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(limit).Post("/book-appointment", a.bookAppointment)
		r.With(limit).Post("/request-code", a.requestCode)
		r.With(limit).Post("/verify-code", a.verifyCode)
		r.Get("/slots", a.listSlots)
		r.Post("/cancel-appointment", a.cancelAppointment)

		r.Group(func(r chi.Router) {
			r.Use(requireCustomer)
			r.Get("/appointments/mine", a.myAppointments)
			r.Get("/me/addresses", a.listAddresses)
			r.Post("/me/addresses", a.createAddress)
			r.Post("/me/addresses/{id}/default", a.setDefault(defaultAddress))
			r.Get("/me/payment-methods", a.listPaymentMethods)
			r.Post("/me/payment-methods", a.createPaymentMethod)
			r.Post("/me/payment-methods/{id}/default", a.setDefault(defaultPaymentMethod))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireStaff)
			r.With(requireShopScope).Post("/shops/{shopID}/slots/generate", a.generateSlots)
			r.With(requireShopScope).Get("/shops/{shopID}/appointments", a.shopAppointments)
			r.With(requireShopScope).Get("/shops/{shopID}/stats", a.shopStats)
			r.With(requireShopScope).Put("/shops/{shopID}/working-hours", a.updateWorkingHours)
			r.Post("/appointments/{id}/confirm", a.adminConfirm)
			r.Post("/appointments/{id}/cancel", a.adminCancel)
		})
	})
	return r
}

// writeErr maps err onto the error envelope. Failures outside the taxonomy
// are logged and reported without detail.
func (a *API) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind, status := apperr.Kind(err)
	message := err.Error()
	switch {
	case errors.Is(err, apperr.ErrPersistence) || !apperr.Classified(err):
		a.logger.Error("request failed", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		message = "internal error"
	case errors.Is(err, apperr.ErrInvalidOrExpiredCode), errors.Is(err, apperr.ErrUnknownIdentity):
		message = apperr.ErrInvalidOrExpiredCode.Error()
	case errors.Is(err, apperr.ErrValidation):
		message = apperr.ErrValidation.Error()
	}
	httpx.WriteJSON(w, status, httpx.ErrorBody{
		ErrorKind: kind,
		Message:   message,
		Fields:    apperr.Fields(err),
	})
}

func badRequest(err error) error {
	return apperr.Invalid("body", err.Error())
}

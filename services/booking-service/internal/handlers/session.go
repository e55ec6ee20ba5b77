package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/salonbook/libs/auth"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
)

type claimsKey struct{}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

// parseSession attaches verified claims when a bearer token is present. A
// bad token is rejected outright rather than treated as anonymous.
func (a *API) parseSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || a.issuer == nil {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := auth.BearerToken(header)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "malformed authorization header")
			return
		}
		claims, err := a.issuer.Parse(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := claimsFrom(r.Context())
		if c == nil || c.Role != auth.RoleCustomer || c.Subject == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "customer session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !claimsFrom(r.Context()).IsStaff() {
			httpx.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "staff token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireShopScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shopID := chi.URLParam(r, "shopID")
		if err := apperr.ID("shopId", shopID); err != nil {
			kind, status := apperr.Kind(err)
			httpx.WriteJSON(w, status, httpx.ErrorBody{ErrorKind: kind, Message: apperr.ErrValidation.Error(), Fields: apperr.Fields(err)})
			return
		}
		if !claimsFrom(r.Context()).CanManageShop(shopID) {
			httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "token is not scoped to this shop")
			return
		}
		next.ServeHTTP(w, r)
	})
}

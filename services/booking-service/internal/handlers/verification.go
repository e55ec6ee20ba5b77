package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
)

type requestCodeRequest struct {
	Phone string `json:"phone"`
}

type requestCodeResponse struct {
	Requested bool   `json:"requested"`
	ExpiresAt string `json:"expiresAt"`
	Code      string `json:"code,omitempty"`
}

func (a *API) requestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}
	res, err := a.gate.Request(r.Context(), req.Phone)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, requestCodeResponse{
		Requested: true,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		Code:      res.Code,
	})
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type verifyCodeResponse struct {
	Verified         bool   `json:"verified"`
	Phone            string `json:"phone"`
	SessionToken     string `json:"sessionToken,omitempty"`
	SessionExpiresAt string `json:"sessionExpiresAt,omitempty"`
}

func (a *API) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		a.writeErr(w, r, badRequest(err))
		return
	}
	phone, err := a.gate.Validate(r.Context(), req.Phone, req.Code)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}

	resp := verifyCodeResponse{Verified: true, Phone: phone}
	if a.issuer != nil {
		token, expires, err := a.issuer.IssueCustomer(phone)
		if err != nil {
			a.writeErr(w, r, apperr.Persistence("issue session", err))
			return
		}
		resp.SessionToken = token
		resp.SessionExpiresAt = expires.UTC().Format(time.RFC3339)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

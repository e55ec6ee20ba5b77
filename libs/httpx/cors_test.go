package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCORSPreflight(t *testing.T) {
	h := WithCORS(DefaultCORSPolicy([]string{"https://book.example"}))(okHandler())

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/book-appointment", nil)
	r.Header.Set("Origin", "https://book.example")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://book.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestWithCORSUnknownOrigin(t *testing.T) {
	h := WithCORS(DefaultCORSPolicy([]string{"https://book.example"}))(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil)
	r.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWithCORSDisabled(t *testing.T) {
	h := WithCORS(CORSPolicy{})(okHandler())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://book.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

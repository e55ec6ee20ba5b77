package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

func TestWebhookSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "tok")
	require.NoError(t, s.Send(context.Background(), "+16465551234", "hello"))
	assert.Equal(t, map[string]string{"to": "+16465551234", "body": "hello"}, got)
}

func TestWebhookSenderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	assert.Error(t, NewWebhookSender(srv.URL, "").Send(context.Background(), "+1", "x"))
	assert.ErrorIs(t, NewWebhookSender("", "").Send(context.Background(), "+1", "x"), ErrNotConfigured)
}

type fakeCreator struct {
	params *openapi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSender(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioSender{api: fc, from: "+15550000000"}

	require.NoError(t, s.Send(context.Background(), "+16465551234", "code 483920"))
	require.NotNil(t, fc.params)
	assert.Equal(t, "+16465551234", *fc.params.To)
	assert.Equal(t, "+15550000000", *fc.params.From)
	assert.Equal(t, "code 483920", *fc.params.Body)

	assert.Error(t, s.Send(context.Background(), "6465551234", "x"))

	fc.err = errors.New("20003 auth failed")
	assert.Error(t, s.Send(context.Background(), "+16465551234", "x"))

	_, err := NewTwilioSender(TwilioConfig{AccountSID: "AC1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "********1234", Mask("+16465551234"))
	assert.Equal(t, "****", Mask("12"))
}

package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// messageCreator is the slice of the Twilio REST client this package uses.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioSender struct {
	api  messageCreator
	from string
}

func NewTwilioSender(cfg TwilioConfig) (*TwilioSender, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" || strings.TrimSpace(cfg.FromNumber) == "" {
		return nil, fmt.Errorf("%w: twilio account sid, auth token and from number are required", ErrNotConfigured)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   cfg.AccountSID,
		Password:   cfg.AuthToken,
		AccountSid: cfg.AccountSID,
	})
	return &TwilioSender{api: client.Api, from: cfg.FromNumber}, nil
}

func (s *TwilioSender) ProviderID() string {
	return "twilio"
}

// Send ignores ctx cancellation once the request is in flight; the Twilio
// client has no context-aware API.
func (s *TwilioSender) Send(ctx context.Context, to string, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(to, "+") {
		return fmt.Errorf("twilio: destination %s is not E.164", Mask(to))
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	if resp == nil || resp.Sid == nil {
		return fmt.Errorf("twilio send: response carried no message sid")
	}
	return nil
}

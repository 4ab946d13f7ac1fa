package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"salonreach-backend/config"
)

// CommunicationGateway is the outbound voice/SMS surface. Both calls
// carry a bounded timeout; a timeout is a per-item failure, never a
// process-wide fault.
type CommunicationGateway interface {
	PlaceCall(ctx context.Context, to, scriptURL, statusCallbackURL string) (callID string, err error)
	SendMessage(ctx context.Context, to, body string) (messageID string, err error)
}

const gatewayTimeout = 15 * time.Second

type twilioGateway struct {
	client     *twilio.RestClient
	fromNumber string
	mockCalls  bool
	mockSMS    bool
}

// NewTwilioGateway builds the production gateway. With the mock flags
// set it logs instead of dialing, which keeps development cheap.
func NewTwilioGateway(cfg config.Config) CommunicationGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	client.SetTimeout(gatewayTimeout)

	return &twilioGateway{
		client:     client,
		fromNumber: cfg.TwilioPhoneNumber,
		mockCalls:  cfg.MockCalls,
		mockSMS:    cfg.MockSMS,
	}
}

func (g *twilioGateway) PlaceCall(ctx context.Context, to, scriptURL, statusCallbackURL string) (string, error) {
	if g.mockCalls {
		log.Info().Str("to", to).Str("script", scriptURL).Msg("mock call placed")
		return fmt.Sprintf("mock-call-%d", time.Now().UnixNano()), nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(g.fromNumber)
	params.SetUrl(scriptURL)
	params.SetStatusCallback(statusCallbackURL)
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetTimeout(30)
	params.SetRecord(true)

	call, err := g.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("%w: place call to %s: %v", ErrBackendUnavailable, to, err)
	}
	if call.Sid == nil {
		return "", fmt.Errorf("%w: place call to %s: no SID returned", ErrBackendUnavailable, to)
	}

	log.Info().Str("to", to).Str("call_sid", *call.Sid).Msg("call placed")
	return *call.Sid, nil
}

func (g *twilioGateway) SendMessage(ctx context.Context, to, body string) (string, error) {
	if g.mockSMS {
		log.Info().Str("to", to).Str("body", body).Msg("mock sms sent")
		return fmt.Sprintf("mock-sms-%d", time.Now().UnixNano()), nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(g.fromNumber)
	params.SetBody(body)

	msg, err := g.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("%w: send message to %s: %v", ErrBackendUnavailable, to, err)
	}
	if msg.Sid == nil {
		return "", fmt.Errorf("%w: send message to %s: no SID returned", ErrBackendUnavailable, to)
	}

	log.Info().Str("to", to).Str("message_sid", *msg.Sid).Msg("sms sent")
	return *msg.Sid, nil
}

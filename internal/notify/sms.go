package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/les-detritivores/clic-compost/internal/entity"
)

// SMSConfig holds the Twilio credentials and the sending number.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

type SMSSender struct {
	client *twilio.RestClient
	from   string
}

func NewSMSSender(cfg SMSConfig) (*SMSSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("%w: AccountSID and AuthToken are required", ErrInvalidConfig)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: From number is required", ErrInvalidConfig)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{client: client, from: cfg.From}, nil
}

// Send delivers a text message and returns the provider message SID.
func (s *SMSSender) Send(_ context.Context, text, to string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(text)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", errors.Join(ErrFailedToSendSMS, err)
	}
	if resp.Sid == nil {
		return "", ErrFailedToSendSMS
	}
	return *resp.Sid, nil
}

// Dispatcher bundles the confirmation channels behind the workflow's
// notifier contract. SMS may be nil when the channel is disabled.
type Dispatcher struct {
	Mailer *Mailer
	SMS    *SMSSender
}

func (d *Dispatcher) SendSubscriptionEmail(ctx context.Context, sub *entity.Subscription) (string, error) {
	return d.Mailer.SendSubscriptionEmail(ctx, sub)
}

func (d *Dispatcher) SendSMS(ctx context.Context, text, to string) (string, error) {
	if d.SMS == nil {
		return "", ErrSMSDisabled
	}
	return d.SMS.Send(ctx, text, to)
}

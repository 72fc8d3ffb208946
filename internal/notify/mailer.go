// Package notify dispatches subscription confirmations: transactional
// email through Postmark and an optional SMS through Twilio.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/les-detritivores/clic-compost/internal/entity"
)

// MailConfig holds the Postmark credentials and addressing. Bcc receives
// a copy of every confirmation so the operations team sees new signups.
type MailConfig struct {
	ServerToken  string
	AccountToken string
	Sender       string
	Bcc          string
}

type Mailer struct {
	client *postmark.Client
	config MailConfig
}

// NewMailer creates a Postmark-backed confirmation mailer. Tokens and
// sender are required so a misconfigured service fails at startup rather
// than at the first signup.
func NewMailer(cfg MailConfig) (*Mailer, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: AccountToken is required", ErrInvalidConfig)
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("%w: Sender is required", ErrInvalidConfig)
	}

	return &Mailer{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// SendSubscriptionEmail sends the bilingual-free French confirmation for
// a persisted subscription, plain-text and HTML variants in one message,
// and returns the provider message ID.
func (m *Mailer) SendSubscriptionEmail(ctx context.Context, sub *entity.Subscription) (string, error) {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.config.Sender,
		To:       sub.Email.String(),
		Bcc:      m.config.Bcc,
		Subject:  Subject(sub.ID),
		TextBody: renderText(sub),
		HTMLBody: renderHTML(sub),
		Tag:      "subscription-confirmation",
	})
	if err != nil {
		return "", errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return "", errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return resp.MessageID, nil
}

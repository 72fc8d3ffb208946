package notify

import "errors"

var (
	ErrFailedToSendEmail = errors.New("notify: failed to send email")
	ErrFailedToSendSMS   = errors.New("notify: failed to send sms")
	ErrInvalidConfig     = errors.New("notify: invalid config")
	ErrSMSDisabled       = errors.New("notify: sms sender not configured")
)

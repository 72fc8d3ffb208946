package usecase

import (
	"context"
	"errors"

	"github.com/les-detritivores/clic-compost/internal/entity"
)

//go:generate go run github.com/golang/mock/mockgen@v1.6.0 -destination=usecase_mock.go -package=usecase github.com/les-detritivores/clic-compost/internal/usecase SubscriptionRepository

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidSubscription  = errors.New("invalid subscription")
	ErrInvalidID            = errors.New("invalid id")
	ErrInvalidStartDate     = errors.New("invalid start date")
	ErrNoPaymentMethod      = errors.New("no payment method completed")
)

// SubscriptionRepository — persistence for subscription records
type SubscriptionRepository interface {
	// SaveSub - persist a new subscription, returns it with ID and CreatedAt set
	SaveSub(ctx context.Context, s *entity.Subscription) (*entity.Subscription, error)
	// UpdateSub - update an existing subscription
	UpdateSub(ctx context.Context, s *entity.Subscription) error
	// DeleteSub - delete a subscription permanently
	DeleteSub(ctx context.Context, id int64) error
	// GetSubByID - fetch a subscription by ID
	GetSubByID(ctx context.Context, id int64) (*entity.Subscription, error)
	// ListSubs - all subscriptions, newest first
	ListSubs(ctx context.Context) ([]*entity.Subscription, error)
}

// CardDetails — raw card input forwarded to the payment provider
type CardDetails struct {
	Number   string
	ExpMonth int64
	ExpYear  int64
	CVC      string
}

// BillingDetails — identity attached to a payment method confirmation
type BillingDetails struct {
	Name  string
	Email string
}

// PaymentProvider — customer provisioning and payment method setup.
// A setup secret authorizes exactly one confirmation; SetupSecret must be
// called again before each confirmation attempt.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, name, email string) (string, error)
	SetupSecret(ctx context.Context, customerID string) (string, error)
	ConfirmCardSetup(ctx context.Context, secret string, card CardDetails, billing BillingDetails) (string, error)
	ConfirmSepaSetup(ctx context.Context, secret string, iban string, billing BillingDetails) (string, error)
}

// Notifier — confirmation messages for a persisted subscription
type Notifier interface {
	SendSubscriptionEmail(ctx context.Context, sub *entity.Subscription) (string, error)
	SendSMS(ctx context.Context, text, to string) (string, error)
}

// CRMSync — mirrors a won subscription into the sales CRM
type CRMSync interface {
	CreateOrganization(ctx context.Context, name string) (int64, error)
	CreateDeal(ctx context.Context, title, value string, orgID int64) (int64, error)
}

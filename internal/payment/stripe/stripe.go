// Package stripe adapts the Stripe SDK to the intake workflow's payment
// provider contract: customer provisioning and card/SEPA setup intents.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/les-detritivores/clic-compost/internal/usecase"
)

var ErrBadSecret = errors.New("malformed setup secret")

type Client struct {
	api *client.API
}

func NewClient(secretKey string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api}
}

// CreateCustomer registers the subscriber with the payment provider and
// returns the customer reference carried on the subscription record.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Description: stripe.String(name),
		Email:       stripe.String(email),
	}
	params.Context = ctx

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", humanize(err)
	}
	return cust.ID, nil
}

// SetupSecret mints a fresh SetupIntent for the customer and returns its
// client secret. Each secret authorizes a single confirmation, so callers
// fetch a new one before every confirmation attempt.
func (c *Client) SetupSecret(ctx context.Context, customerID string) (string, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card", "sepa_debit"}),
	}
	params.Context = ctx

	si, err := c.api.SetupIntents.New(params)
	if err != nil {
		return "", humanize(err)
	}
	return si.ClientSecret, nil
}

// ConfirmCardSetup tokenizes the card and confirms the setup intent behind
// the secret, returning the durable payment method reference.
func (c *Client) ConfirmCardSetup(ctx context.Context, secret string, card usecase.CardDetails, billing usecase.BillingDetails) (string, error) {
	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(billing.Name),
			Email: stripe.String(billing.Email),
		},
	}
	pmParams.Context = ctx

	pm, err := c.api.PaymentMethods.New(pmParams)
	if err != nil {
		return "", humanize(err)
	}
	return c.confirm(ctx, secret, pm.ID, nil)
}

// ConfirmSepaSetup sets up a SEPA debit mandate for the given IBAN. The
// mandate acceptance was collected by the signup form, so it is recorded
// as offline acceptance.
func (c *Client) ConfirmSepaSetup(ctx context.Context, secret string, iban string, billing usecase.BillingDetails) (string, error) {
	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeSEPADebit)),
		SEPADebit: &stripe.PaymentMethodSEPADebitParams{
			IBAN: stripe.String(iban),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(billing.Name),
			Email: stripe.String(billing.Email),
		},
	}
	pmParams.Context = ctx

	pm, err := c.api.PaymentMethods.New(pmParams)
	if err != nil {
		return "", humanize(err)
	}

	mandate := &stripe.SetupIntentMandateDataParams{
		CustomerAcceptance: &stripe.SetupIntentMandateDataCustomerAcceptanceParams{
			Type:    "offline",
			Offline: &stripe.SetupIntentMandateDataCustomerAcceptanceOfflineParams{},
		},
	}
	return c.confirm(ctx, secret, pm.ID, mandate)
}

func (c *Client) confirm(ctx context.Context, secret, paymentMethodID string, mandate *stripe.SetupIntentMandateDataParams) (string, error) {
	intentID, err := intentIDFromSecret(secret)
	if err != nil {
		return "", err
	}

	params := &stripe.SetupIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
		MandateData:   mandate,
	}
	params.Context = ctx

	si, err := c.api.SetupIntents.Confirm(intentID, params)
	if err != nil {
		return "", humanize(err)
	}
	if si.Status != stripe.SetupIntentStatusSucceeded {
		return "", fmt.Errorf("setup intent not succeeded: %s", si.Status)
	}
	if si.PaymentMethod == nil {
		return "", errors.New("setup intent confirmed without payment method")
	}
	return si.PaymentMethod.ID, nil
}

// intentIDFromSecret recovers the SetupIntent ID from its client secret
// ("seti_xxx_secret_yyy" -> "seti_xxx").
func intentIDFromSecret(secret string) (string, error) {
	idx := strings.Index(secret, "_secret_")
	if idx <= 0 {
		return "", ErrBadSecret
	}
	return secret[:idx], nil
}

// humanize surfaces the provider's user-readable message when present,
// since step failures are shown to the subscriber as-is.
func humanize(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return errors.New(stripeErr.Msg)
	}
	return err
}

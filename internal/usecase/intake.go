package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/les-detritivores/clic-compost/internal/entity"
)

// ConfirmRoute is where the client is sent once a submission has been persisted.
const ConfirmRoute = "/confirm"

const crmTimeout = 15 * time.Second

// PaymentChoice is the payment instrument the subscriber completed,
// decided by the caller before the workflow starts. Either or both may
// be set; at least one is required to submit.
type PaymentChoice struct {
	Card *CardDetails
	Iban string
}

func (c PaymentChoice) CardChosen() bool { return c.Card != nil }
func (c PaymentChoice) IbanChosen() bool { return c.Iban != "" }

// SubmitAllowed is the submit-button gate: no submission while a request
// is in flight, and never before at least one payment input is complete.
func SubmitAllowed(loading, cardComplete, ibanComplete bool) bool {
	return !loading && (cardComplete || ibanComplete)
}

// StepEvent is one user-visible outcome of a submission step, in order.
// Failed payment confirmations appear here instead of aborting the flow.
type StepEvent struct {
	Step    string
	OK      bool
	Message string
}

// SignupResult carries the persisted subscription, the ordered step
// events and the route the client should navigate to.
type SignupResult struct {
	Subscription *entity.Subscription
	Events       []StepEvent
	RedirectTo   string
}

// Intake drives the subscription signup workflow: customer provisioning,
// payment method setup, persistence, notification and CRM sync, strictly
// in that order.
type Intake struct {
	subs       *Subscription
	payments   PaymentProvider
	notify     Notifier
	crm        CRMSync
	log        *slog.Logger
	smsEnabled bool
}

// NewIntake wires the workflow. crm may be nil to disable CRM sync.
func NewIntake(subs *Subscription, payments PaymentProvider, notify Notifier, crm CRMSync, log *slog.Logger, smsEnabled bool) *Intake {
	return &Intake{
		subs:       subs,
		payments:   payments,
		notify:     notify,
		crm:        crm,
		log:        log,
		smsEnabled: smsEnabled,
	}
}

// Submit runs the signup workflow for a filled-in draft.
//
// Customer provisioning and persistence failures are fatal. A failed card
// or SEPA confirmation is recorded as an event and the flow continues:
// an IBAN alone, a card alone, or - when both confirmations fail - no
// payment reference at all still yields a persisted subscription.
// Notification failures never block the result, and CRM sync runs in the
// background without being awaited.
func (i *Intake) Submit(ctx context.Context, draft *entity.Subscription, choice PaymentChoice) (*SignupResult, error) {
	if !choice.CardChosen() && !choice.IbanChosen() {
		return nil, ErrNoPaymentMethod
	}

	var events []StepEvent

	customerID, err := i.payments.CreateCustomer(ctx, draft.ContactName(), draft.Email.String())
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	draft.Customer = customerID
	events = append(events, StepEvent{Step: "customer", OK: true, Message: "Usager ajouté."})

	billing := BillingDetails{Name: draft.ContactName(), Email: draft.Email.String()}

	if choice.CardChosen() {
		events = append(events, i.confirmCard(ctx, draft, *choice.Card, billing))
	}
	if choice.IbanChosen() {
		events = append(events, i.confirmSepa(ctx, draft, choice.Iban, billing))
	}

	created, err := i.subs.RegisterSub(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("persist subscription: %w", err)
	}
	events = append(events, StepEvent{Step: "subscription", OK: true, Message: "Abonnement ajouté."})

	if _, err := i.notify.SendSubscriptionEmail(ctx, created); err != nil {
		i.log.Error("confirmation email failed", slog.Int64("id", created.ID), slog.String("error", err.Error()))
		events = append(events, StepEvent{Step: "email", Message: err.Error()})
	} else {
		events = append(events, StepEvent{Step: "email", OK: true, Message: "Mél de confirmation envoyé."})
	}

	if i.smsEnabled {
		if _, err := i.notify.SendSMS(ctx, "Abonnement prêt", created.Phone); err != nil {
			i.log.Error("confirmation sms failed", slog.Int64("id", created.ID), slog.String("error", err.Error()))
			events = append(events, StepEvent{Step: "sms", Message: err.Error()})
		} else {
			events = append(events, StepEvent{Step: "sms", OK: true, Message: "SMS de confirmation envoyé."})
		}
	}

	if i.crm != nil {
		// Fire and forget: detached from the request context, never awaited,
		// a CRM outage must not block the confirmation page.
		go i.syncCRM(created)
	}

	return &SignupResult{
		Subscription: created,
		Events:       events,
		RedirectTo:   ConfirmRoute,
	}, nil
}

// confirmCard fetches a fresh single-use secret and confirms card setup.
// The payment method reference lands on the draft only on success.
func (i *Intake) confirmCard(ctx context.Context, draft *entity.Subscription, card CardDetails, billing BillingDetails) StepEvent {
	secret, err := i.payments.SetupSecret(ctx, draft.Customer)
	if err != nil {
		i.log.Error("card setup secret failed", slog.String("error", err.Error()))
		return StepEvent{Step: "card", Message: err.Error()}
	}
	ref, err := i.payments.ConfirmCardSetup(ctx, secret, card, billing)
	if err != nil {
		i.log.Error("card confirmation failed", slog.String("error", err.Error()))
		return StepEvent{Step: "card", Message: err.Error()}
	}
	draft.Card = ref
	return StepEvent{Step: "card", OK: true, Message: "Carte bancaire ajoutée."}
}

// confirmSepa is the SEPA debit mirror of confirmCard, on its own fresh secret.
func (i *Intake) confirmSepa(ctx context.Context, draft *entity.Subscription, iban string, billing BillingDetails) StepEvent {
	secret, err := i.payments.SetupSecret(ctx, draft.Customer)
	if err != nil {
		i.log.Error("sepa setup secret failed", slog.String("error", err.Error()))
		return StepEvent{Step: "iban", Message: err.Error()}
	}
	ref, err := i.payments.ConfirmSepaSetup(ctx, secret, iban, billing)
	if err != nil {
		i.log.Error("sepa confirmation failed", slog.String("error", err.Error()))
		return StepEvent{Step: "iban", Message: err.Error()}
	}
	draft.Iban = ref
	return StepEvent{Step: "iban", OK: true, Message: "Compte bancaire ajouté."}
}

// syncCRM mirrors the subscription as a won deal on its organization.
func (i *Intake) syncCRM(sub *entity.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), crmTimeout)
	defer cancel()

	orgID, err := i.crm.CreateOrganization(ctx, sub.Company)
	if err != nil {
		i.log.Error("crm organization failed", slog.Int64("id", sub.ID), slog.String("error", err.Error()))
		return
	}
	title := fmt.Sprintf("CLIC & COMPOST #%d", sub.ID)
	if _, err := i.crm.CreateDeal(ctx, title, DealValue(sub.Meals), orgID); err != nil {
		i.log.Error("crm deal failed", slog.Int64("id", sub.ID), slog.String("error", err.Error()))
	}
}

// DealValue prices a deal at one tenth of the weekly meal count,
// rendered without trailing zeros: 20 meals -> "2", 15 -> "1.5".
func DealValue(meals int64) string {
	return strconv.FormatFloat(float64(meals)/10.0, 'f', -1, 64)
}

package entity

import (
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// Subscription is a biowaste collection contract as it is stored.
// A draft has ID 0 and empty Customer/Card/Iban; the intake workflow
// fills the payment references before the record is persisted.
type Subscription struct {
	// ID - membership number, assigned by the store
	ID int64
	// Firstname - contact first name
	Firstname string
	// Lastname - contact last name
	Lastname string
	// Company - subscribing company name
	Company string
	// Email - contact email address
	Email strfmt.Email
	// Phone - contact phone number
	Phone string
	// Location - collection address
	Location string
	// Meals - meals served per week, drives the offer sizing
	Meals int64
	// Service - selected offer label
	Service string
	// StartedAt - first collection date, business days only
	StartedAt time.Time
	// Customer - payment provider customer reference
	Customer string
	// Card - card payment method reference, empty when no card was set up
	Card string
	// Iban - SEPA debit payment method reference, empty when no mandate was set up
	Iban string
	// CreatedAt - record creation timestamp, assigned by the store
	CreatedAt time.Time
}

// ContactName is the display name used for the payment provider customer
// and billing details: firstname as given, lastname uppercased.
func (s *Subscription) ContactName() string {
	return s.Firstname + " " + strings.ToUpper(s.Lastname)
}

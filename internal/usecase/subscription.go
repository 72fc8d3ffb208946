package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/les-detritivores/clic-compost/internal/entity"
)

// Subscription coordinates subscription record use cases via the repository
type Subscription struct {
	Sr SubscriptionRepository
}

// NewSubscription creates a use case service with the given repository
func NewSubscription(sr SubscriptionRepository) *Subscription {
	return &Subscription{
		Sr: sr,
	}
}

// RegisterSub validates/normalizes and saves a new subscription.
// Empty Card and Iban are accepted: the intake workflow persists whatever
// payment references it managed to obtain.
func (s *Subscription) RegisterSub(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	if err := s.validateAndNormalize(sub); err != nil {
		return nil, err
	}
	created, err := s.Sr.SaveSub(ctx, sub)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateSub validates/normalizes and updates an existing subscription by ID, returning the fresh copy
func (s *Subscription) UpdateSub(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	if sub == nil || sub.ID <= 0 {
		return nil, ErrInvalidID
	}
	if err := s.validateAndNormalize(sub); err != nil {
		return nil, err
	}
	if err := s.Sr.UpdateSub(ctx, sub); err != nil {
		return nil, err
	}

	return s.Sr.GetSubByID(ctx, sub.ID)
}

// DeleteSub removes a subscription by ID and returns the previously stored record
func (s *Subscription) DeleteSub(ctx context.Context, id int64) (*entity.Subscription, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	existing, err := s.Sr.GetSubByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Sr.DeleteSub(ctx, id); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetSubByID fetches a subscription by its ID
func (s *Subscription) GetSubByID(ctx context.Context, id int64) (*entity.Subscription, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	return s.Sr.GetSubByID(ctx, id)
}

// ListSubs returns all subscriptions
func (s *Subscription) ListSubs(ctx context.Context) ([]*entity.Subscription, error) {
	return s.Sr.ListSubs(ctx)
}

// validateAndNormalize enforces business rules and aligns the start date to midnight UTC
func (s *Subscription) validateAndNormalize(sub *entity.Subscription) error {
	if sub == nil {
		return fmt.Errorf("%w: nil", ErrInvalidSubscription)
	}
	sub.Firstname = strings.TrimSpace(sub.Firstname)
	sub.Lastname = strings.TrimSpace(sub.Lastname)
	sub.Company = strings.TrimSpace(sub.Company)
	sub.Location = strings.TrimSpace(sub.Location)
	sub.Service = strings.TrimSpace(sub.Service)

	if sub.Company == "" {
		return fmt.Errorf("%w: empty company", ErrInvalidSubscription)
	}
	if sub.Firstname == "" || sub.Lastname == "" {
		return fmt.Errorf("%w: empty contact name", ErrInvalidSubscription)
	}
	if sub.Email.String() == "" {
		return fmt.Errorf("%w: empty email", ErrInvalidSubscription)
	}
	if !strings.Contains(sub.Email.String(), "@") {
		return fmt.Errorf("%w: malformed email", ErrInvalidSubscription)
	}
	if sub.Location == "" {
		return fmt.Errorf("%w: empty location", ErrInvalidSubscription)
	}
	if sub.Meals < 1 {
		return fmt.Errorf("%w: meals must be >= 1", ErrInvalidSubscription)
	}
	if sub.Service == "" {
		return fmt.Errorf("%w: empty service", ErrInvalidSubscription)
	}
	if sub.StartedAt.IsZero() {
		return fmt.Errorf("%w: empty start date", ErrInvalidStartDate)
	}

	sub.StartedAt = dayStart(sub.StartedAt)
	if wd := sub.StartedAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return fmt.Errorf("%w: falls on a weekend", ErrInvalidStartDate)
	}
	return nil
}

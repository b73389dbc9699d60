package service

import (
	"context"
	"errors"
	"time"

	billingerrors "bookd/internal/billing/errors"
	"bookd/internal/billing/repository"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/model"
)

// SubscriptionService owns the tenant billing lifecycle: trial creation,
// webhook-driven state changes, and the operational gate the rest of the
// platform consults before doing billable work.
type SubscriptionService interface {
	// CreateForTenant opens the trial subscription at tenant registration.
	CreateForTenant(ctx context.Context, tenantID string) (*model.Subscription, error)
	GetByTenant(ctx context.Context, principalID, tenantID string) (*model.Subscription, error)
	// Gate returns nil iff the tenant may operate. Missing, past_due and
	// canceled subscriptions all fail closed with SubscriptionRequired.
	Gate(ctx context.Context, tenantID string) error
	// ApplyEvent applies one verified webhook event. Replays are a no-op.
	ApplyEvent(ctx context.Context, event *model.BillingEvent) error
}

// OwnershipResolver is the slice of the identity resolver this service needs.
// Declared here so billing does not import the identity service, which calls
// back into billing to open trials.
type OwnershipResolver interface {
	Authorize(ctx context.Context, principalID, tenantID string) (*model.Account, error)
}

type subscriptionService struct {
	repo     repository.SubscriptionRepository
	events   repository.ProcessedEventRepository
	resolver OwnershipResolver
	cfg      *config.Config
	now      func() time.Time
}

func NewSubscriptionService(
	repo repository.SubscriptionRepository,
	events repository.ProcessedEventRepository,
	resolver OwnershipResolver,
	cfg *config.Config,
) SubscriptionService {
	return &subscriptionService{
		repo:     repo,
		events:   events,
		resolver: resolver,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *subscriptionService) CreateForTenant(ctx context.Context, tenantID string) (*model.Subscription, error) {
	sub := &model.Subscription{
		TenantID:    tenantID,
		Status:      model.SubscriptionStatusTrialing,
		TrialEndsAt: s.now().UTC().Add(s.cfg.TrialPeriod).Truncate(time.Millisecond),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, billingerrors.ErrDuplicateTenant) {
			return nil, apperrors.Conflict("tenant already has a subscription")
		}
		return nil, apperrors.Internal("Failed to create subscription", err)
	}

	s.cfg.Log.Info("Trial subscription created",
		"tenant_id", tenantID,
		"trial_ends_at", sub.TrialEndsAt,
	)
	return sub, nil
}

func (s *subscriptionService) GetByTenant(ctx context.Context, principalID, tenantID string) (*model.Subscription, error) {
	if _, err := s.resolver.Authorize(ctx, principalID, tenantID); err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, billingerrors.ErrNotFound) {
			return nil, apperrors.NotFound("Subscription")
		}
		return nil, apperrors.Internal("Failed to retrieve subscription", err)
	}
	return sub, nil
}

func (s *subscriptionService) Gate(ctx context.Context, tenantID string) error {
	sub, err := s.repo.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, billingerrors.ErrNotFound) {
			return apperrors.SubscriptionRequired(tenantID)
		}
		return apperrors.Internal("Failed to check subscription", err)
	}

	if !sub.Operational() {
		return apperrors.SubscriptionRequired(tenantID)
	}
	return nil
}

// ApplyEvent claims the event id first; the unique insert is the idempotency
// check. A transient failure while applying releases the id so the processor's
// retry can land. Events set the state the processor reports rather than
// advancing edges, so late or reordered deliveries converge on the same row.
func (s *subscriptionService) ApplyEvent(ctx context.Context, event *model.BillingEvent) error {
	err := s.events.MarkProcessed(ctx, &model.ProcessedEvent{
		EventID:   event.ID,
		EventType: event.Type,
		TenantID:  event.TenantID,
	})
	if err != nil {
		if errors.Is(err, billingerrors.ErrDuplicateEvent) {
			s.cfg.Log.Info("Duplicate billing event ignored", "event_id", event.ID, "type", event.Type)
			return nil
		}
		return apperrors.Internal("Failed to record billing event", err)
	}

	if err := s.apply(ctx, event); err != nil {
		if apperrors.IsCode(err, apperrors.CodeInternal) {
			if removeErr := s.events.Remove(ctx, event.ID); removeErr != nil {
				s.cfg.Log.Error("Failed to release billing event after error",
					"event_id", event.ID, "error", removeErr)
			}
		}
		return err
	}

	s.cfg.Log.Info("Billing event applied",
		"event_id", event.ID,
		"type", event.Type,
		"tenant_id", event.TenantID,
	)
	return nil
}

func (s *subscriptionService) apply(ctx context.Context, event *model.BillingEvent) error {
	switch event.Type {
	case model.EventCheckoutCompleted:
		err := s.repo.Activate(ctx, event.TenantID, event.ExternalCustomerID, event.ExternalSubscriptionID)
		switch {
		case errors.Is(err, billingerrors.ErrDuplicateExternalID):
			return apperrors.Conflict("external subscription id already linked to another tenant")
		case errors.Is(err, billingerrors.ErrNotFound):
			return apperrors.NotFound("Subscription")
		case err != nil:
			return apperrors.Internal("Failed to activate subscription", err)
		}
		return nil

	case model.EventInvoicePaymentSucceeded:
		return s.setStatus(ctx, event.TenantID, model.SubscriptionStatusActive, nil)

	case model.EventInvoicePaymentFailed:
		return s.setStatus(ctx, event.TenantID, model.SubscriptionStatusPastDue, nil)

	case model.EventSubscriptionDeleted:
		endsAt := s.now().UTC().Truncate(time.Millisecond)
		return s.setStatus(ctx, event.TenantID, model.SubscriptionStatusCanceled, &endsAt)

	default:
		s.cfg.Log.Info("Unhandled billing event type ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}
}

func (s *subscriptionService) setStatus(ctx context.Context, tenantID, status string, endsAt *time.Time) error {
	err := s.repo.SetStatus(ctx, tenantID, status, endsAt)
	switch {
	case errors.Is(err, billingerrors.ErrNotFound):
		return apperrors.NotFound("Subscription")
	case err != nil:
		return apperrors.Internal("Failed to update subscription status", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	billingservice "bookd/internal/billing/service"
	bookingerrors "bookd/internal/bookings/errors"
	"bookd/internal/bookings/repository"
	"bookd/internal/bookings/validator"
	discountservice "bookd/internal/discounts/service"
	identityservice "bookd/internal/identity/service"
	pricingservice "bookd/internal/pricing/service"
	"bookd/pkg/accesstoken"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/events"
	"bookd/pkg/model"
	"bookd/pkg/sanitizer"
)

// CreateBookingRequest is the public booking form: customer details, the
// selected services, and an optional discount code.
type CreateBookingRequest struct {
	TenantID        string                     `json:"tenant_id"`
	CustomerName    string                     `json:"customer_name"`
	CustomerEmail   string                     `json:"customer_email"`
	CustomerPhone   string                     `json:"customer_phone,omitempty"`
	CustomerAddress string                     `json:"customer_address,omitempty"`
	Selections      []pricingservice.Selection `json:"selections"`
	DiscountCode    string                     `json:"discount_code,omitempty"`
	StartTime       time.Time                  `json:"start_time"`
}

// CreatedBooking pairs the stored booking with the customer's self-service
// token, which is returned exactly here and never stored.
type CreatedBooking struct {
	Booking     *model.Booking `json:"booking"`
	AccessToken string         `json:"access_token"`
}

type BookingService interface {
	Create(ctx context.Context, req *CreateBookingRequest) (*CreatedBooking, error)
	Get(ctx context.Context, principalID, id string) (*model.Booking, error)
	List(ctx context.Context, principalID, tenantID string, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, principalID, id, status, cancelReason string) error
	Assign(ctx context.Context, principalID, id, staffID string) error
	// GetByReference, Reschedule and CancelByCustomer are the customer
	// self-service surface, authorized by access token instead of principal.
	GetByReference(ctx context.Context, reference, token, email string) (*model.Booking, error)
	Reschedule(ctx context.Context, reference, token, email string, startTime time.Time) error
	CancelByCustomer(ctx context.Context, reference, token, email, reason string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	pricing   pricingservice.PricingService
	discounts discountservice.DiscountService
	billing   billingservice.SubscriptionService
	resolver  identityservice.Resolver
	validator *validator.BookingValidator
	issuer    *accesstoken.Issuer
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	pricing pricingservice.PricingService,
	discounts discountservice.DiscountService,
	billing billingservice.SubscriptionService,
	resolver identityservice.Resolver,
	bookingValidator *validator.BookingValidator,
	issuer *accesstoken.Issuer,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		pricing:   pricing,
		discounts: discounts,
		billing:   billing,
		resolver:  resolver,
		validator: bookingValidator,
		issuer:    issuer,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create prices the selections, consumes the discount use and inserts the
// booking in one transaction, so a code can never be over-consumed and a
// booking can never commit with a discount it did not secure. A usage conflict
// rejects the whole booking rather than silently re-pricing it.
func (s *bookingService) Create(ctx context.Context, req *CreateBookingRequest) (*CreatedBooking, error) {
	if err := s.billing.Gate(ctx, req.TenantID); err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(ctx, req.TenantID, req.Selections, sanitizer.NormalizeDiscountCode(req.DiscountCode))
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		OwnerID:          req.TenantID,
		BookingReference: uuid.NewString(),
		CustomerName:     sanitizer.NormalizeName(req.CustomerName),
		CustomerEmail:    sanitizer.NormalizeEmail(req.CustomerEmail),
		CustomerPhone:    sanitizer.NormalizePhone(req.CustomerPhone),
		CustomerAddress:  sanitizer.NormalizeAddress(req.CustomerAddress),
		LineItems:        quote.LineItems,
		Subtotal:         quote.Subtotal,
		DiscountCode:     quote.DiscountCode,
		DiscountID:       quote.DiscountID,
		DiscountAmount:   quote.DiscountAmount,
		Total:            quote.Total,
		Status:           model.BookingStatusPending,
		StartTime:        req.StartTime.UTC(),
	}

	if err := s.validator.Validate(booking); err != nil {
		return nil, apperrors.Validation("booking validation failed", map[string]any{"errors": err.Error()})
	}

	if quote.DiscountID != "" {
		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.discounts.RecordUsage(sessCtx, quote.DiscountID); err != nil {
				return err
			}
			return s.repo.Create(sessCtx, booking)
		})
	} else {
		err = s.repo.Create(ctx, booking)
	}
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Failed to create booking", "error", err, "tenant_id", req.TenantID)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.publish(ctx, events.TypeBookingCreated, booking, false)
	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"reference", booking.BookingReference,
		"tenant_id", booking.OwnerID,
		"total", booking.Total,
	)

	return &CreatedBooking{
		Booking:     booking,
		AccessToken: s.issuer.Issue(booking.ID, booking.CustomerEmail),
	}, nil
}

func (s *bookingService) Get(ctx context.Context, principalID, id string) (*model.Booking, error) {
	booking, account, err := s.authorizedBooking(ctx, principalID, id)
	if err != nil {
		return nil, err
	}

	if account.Role == model.RoleStaffAssignedOnly && booking.AssignedStaffID != account.ID {
		return nil, apperrors.Forbidden("access denied")
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, principalID, tenantID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	account, err := s.resolver.Authorize(ctx, principalID, tenantID)
	if err != nil {
		return nil, 0, err
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	// Assigned-only staff see their own assignments, nothing else.
	if account.Role == model.RoleStaffAssignedOnly {
		bookings, err := s.repo.FindByAssignedStaff(ctx, tenantID, account.ID, limit, offset)
		if err != nil {
			return nil, 0, apperrors.Internal("Failed to list bookings", err)
		}
		count, err := s.repo.CountByAssignedStaff(ctx, tenantID, account.ID)
		if err != nil {
			return nil, 0, apperrors.Internal("Failed to count bookings", err)
		}
		return bookings, count, nil
	}

	bookings, err := s.repo.FindByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list bookings", err)
	}
	count, err := s.repo.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}
	return bookings, count, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, principalID, id, status, cancelReason string) error {
	booking, account, err := s.authorizedBooking(ctx, principalID, id)
	if err != nil {
		return err
	}
	if account.Role == model.RoleStaffAssignedOnly && booking.AssignedStaffID != account.ID {
		return apperrors.Forbidden("access denied")
	}

	if !model.CanTransitionTo(booking.Status, status) {
		return apperrors.StateTransitionInvalid(booking.Status, status)
	}

	if err := s.repo.UpdateStatus(ctx, id, status, cancelReason); err != nil {
		return apperrors.Internal("Failed to update booking status", err)
	}

	booking.Status = status
	booking.CancelReason = cancelReason
	eventType := events.TypeBookingStatus
	if status == model.BookingStatusCancelled {
		eventType = events.TypeBookingCancelled
	}
	s.publish(ctx, eventType, booking, false)
	return nil
}

// Assign gives a booking to a staff member of the same tenant. Only the owner
// assigns.
func (s *bookingService) Assign(ctx context.Context, principalID, id, staffID string) error {
	booking, account, err := s.authorizedBooking(ctx, principalID, id)
	if err != nil {
		return err
	}
	if account.IsWorker() {
		return apperrors.Forbidden("access denied")
	}
	if booking.IsTerminal() {
		return apperrors.StateTransitionInvalid(booking.Status, booking.Status)
	}

	staffOwner, err := s.resolver.ResolveOwner(ctx, staffID)
	if err != nil || staffOwner != booking.OwnerID {
		return apperrors.InvalidInput("staff member does not belong to this tenant")
	}
	isWorker, err := s.resolver.IsWorker(ctx, staffID)
	if err != nil {
		return apperrors.Internal("Failed to look up staff member", err)
	}
	if !isWorker {
		return apperrors.InvalidInput("assignee is not a staff member")
	}

	if err := s.repo.AssignStaff(ctx, id, staffID); err != nil {
		return apperrors.Internal("Failed to assign booking", err)
	}
	return nil
}

func (s *bookingService) GetByReference(ctx context.Context, reference, token, email string) (*model.Booking, error) {
	return s.customerBooking(ctx, reference, token, email)
}

func (s *bookingService) Reschedule(ctx context.Context, reference, token, email string, startTime time.Time) error {
	booking, err := s.customerBooking(ctx, reference, token, email)
	if err != nil {
		return err
	}

	if booking.IsTerminal() {
		return apperrors.StateTransitionInvalid(booking.Status, booking.Status)
	}
	if err := s.validator.ValidateStartTime(startTime); err != nil {
		return apperrors.Validation("booking validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.repo.Reschedule(ctx, booking.ID, startTime); err != nil {
		return apperrors.Internal("Failed to reschedule booking", err)
	}

	booking.StartTime = startTime.UTC()
	s.publish(ctx, events.TypeBookingRescheduled, booking, true)
	return nil
}

func (s *bookingService) CancelByCustomer(ctx context.Context, reference, token, email, reason string) error {
	booking, err := s.customerBooking(ctx, reference, token, email)
	if err != nil {
		return err
	}

	if !model.CanTransitionTo(booking.Status, model.BookingStatusCancelled) {
		return apperrors.StateTransitionInvalid(booking.Status, model.BookingStatusCancelled)
	}
	if s.now().Add(s.cfg.CancellationWindow).After(booking.StartTime) {
		return apperrors.Conflict("booking can no longer be cancelled online; contact the business directly")
	}

	if err := s.repo.UpdateStatus(ctx, booking.ID, model.BookingStatusCancelled, reason); err != nil {
		return apperrors.Internal("Failed to cancel booking", err)
	}

	booking.Status = model.BookingStatusCancelled
	booking.CancelReason = reason
	s.publish(ctx, events.TypeBookingCancelled, booking, true)
	return nil
}

// authorizedBooking loads a booking and checks the principal against its
// tenant. A missing id and a booking belonging to another tenant both come
// back as the same Forbidden: ownership of a missing id cannot be
// established, and a distinct answer would tell an unrelated principal
// which ids exist.
func (s *bookingService) authorizedBooking(ctx context.Context, principalID, id string) (*model.Booking, *model.Account, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, bookingerrors.ErrInvalidID):
			return nil, nil, apperrors.InvalidInput("Invalid booking ID format")
		case errors.Is(err, bookingerrors.ErrNotFound):
			return nil, nil, apperrors.Forbidden("access denied")
		default:
			return nil, nil, apperrors.Internal("Failed to retrieve booking", err)
		}
	}

	account, err := s.resolver.Authorize(ctx, principalID, booking.OwnerID)
	if err != nil {
		return nil, nil, err
	}
	return booking, account, nil
}

// customerBooking authorizes a self-service request: the caller must present
// the reference, the booking's customer email and the access token issued for
// that exact booking. All failures collapse to the same Forbidden.
func (s *bookingService) customerBooking(ctx context.Context, reference, token, email string) (*model.Booking, error) {
	booking, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.Forbidden("access denied")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if sanitizer.NormalizeEmail(email) != booking.CustomerEmail {
		return nil, apperrors.Forbidden("access denied")
	}
	if !s.issuer.Verify(token, booking.ID, booking.CustomerEmail) {
		return nil, apperrors.Forbidden("access denied")
	}
	return booking, nil
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, customerInitiated bool) {
	payload := events.NewBookingChanged(eventType, booking, customerInitiated)
	if err := s.publisher.Publish(ctx, eventType, booking.OwnerID, payload); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

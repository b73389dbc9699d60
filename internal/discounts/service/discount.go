package service

import (
	"context"
	"errors"
	"time"

	discounterrors "bookd/internal/discounts/errors"
	"bookd/internal/discounts/repository"
	"bookd/internal/discounts/validator"
	identityservice "bookd/internal/identity/service"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/model"
	"bookd/pkg/sanitizer"
)

// DiscountService is the discount ledger: it owns validity checks and the
// atomic consumption of usage-limited codes.
type DiscountService interface {
	Create(ctx context.Context, principalID string, discount *model.Discount) error
	List(ctx context.Context, principalID, tenantID string, limit int, offset int64) ([]*model.Discount, int64, error)
	SetStatus(ctx context.Context, principalID, id, status string) error
	// Validate runs the ordered validity checks and returns the discount on
	// success, or a domain error identifying the first failing check.
	Validate(ctx context.Context, tenantID, code string) (*model.Discount, error)
	// ValidatePublic is the unauthenticated validation surface: it exposes
	// only the discount's public fields and a collapsed error.
	ValidatePublic(ctx context.Context, tenantID, code string) (*model.PublicDiscount, error)
	// RecordUsage consumes one use. ErrUsageConflict from the repository
	// surfaces as Conflict.
	RecordUsage(ctx context.Context, discountID string) error
}

type discountService struct {
	repo      repository.DiscountRepository
	resolver  identityservice.Resolver
	validator *validator.DiscountValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewDiscountService(
	repo repository.DiscountRepository,
	resolver identityservice.Resolver,
	discountValidator *validator.DiscountValidator,
	cfg *config.Config,
) DiscountService {
	return &discountService{
		repo:      repo,
		resolver:  resolver,
		validator: discountValidator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *discountService) Create(ctx context.Context, principalID string, discount *model.Discount) error {
	account, err := s.resolver.Authorize(ctx, principalID, discount.TenantID)
	if err != nil {
		return err
	}
	if account.IsWorker() {
		return apperrors.Forbidden("access denied")
	}

	discount.Code = sanitizer.NormalizeDiscountCode(discount.Code)
	discount.TimesUsed = 0
	if discount.Status == "" {
		discount.Status = model.DiscountStatusActive
	}
	if err := s.validator.Validate(discount); err != nil {
		return apperrors.Validation("discount validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.repo.Create(ctx, discount); err != nil {
		if errors.Is(err, discounterrors.ErrDuplicateCode) {
			return apperrors.Conflict("discount code already exists")
		}
		s.cfg.Log.Error("Failed to create discount", "error", err, "tenant_id", discount.TenantID)
		return apperrors.Internal("Failed to create discount", err)
	}

	s.cfg.Log.Info("Discount created",
		"id", discount.ID,
		"tenant_id", discount.TenantID,
		"type", discount.Type,
	)
	return nil
}

func (s *discountService) List(ctx context.Context, principalID, tenantID string, limit int, offset int64) ([]*model.Discount, int64, error) {
	account, err := s.resolver.Authorize(ctx, principalID, tenantID)
	if err != nil {
		return nil, 0, err
	}
	if account.IsWorker() {
		return nil, 0, apperrors.Forbidden("access denied")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	discounts, err := s.repo.FindByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list discounts", err)
	}
	count, err := s.repo.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count discounts", err)
	}

	return discounts, count, nil
}

func (s *discountService) SetStatus(ctx context.Context, principalID, id, status string) error {
	if status != model.DiscountStatusActive && status != model.DiscountStatusInactive {
		return apperrors.InvalidInput("status must be active or inactive")
	}

	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, discounterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Discount", id)
		}
		if errors.Is(err, discounterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid discount ID format")
		}
		return apperrors.Internal("Failed to retrieve discount", err)
	}

	account, err := s.resolver.Authorize(ctx, principalID, discount.TenantID)
	if err != nil {
		return err
	}
	if account.IsWorker() {
		return apperrors.Forbidden("access denied")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return apperrors.Internal("Failed to update discount status", err)
	}
	return nil
}

// Validate applies the checks in order; the first failing check wins:
// exists → active → unexpired → under usage limit.
func (s *discountService) Validate(ctx context.Context, tenantID, code string) (*model.Discount, error) {
	code = sanitizer.NormalizeDiscountCode(code)
	if code == "" {
		return nil, discounterrors.ErrNotFound
	}

	discount, err := s.repo.FindByTenantAndCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, discounterrors.ErrNotFound) {
			return nil, discounterrors.ErrNotFound
		}
		return nil, apperrors.Internal("Failed to look up discount", err)
	}

	if discount.Status != model.DiscountStatusActive {
		return nil, discounterrors.ErrInactive
	}
	if discount.ExpiresAt != nil && !discount.ExpiresAt.After(s.now()) {
		return nil, discounterrors.ErrExpired
	}
	if discount.UsageLimit != nil && discount.TimesUsed >= *discount.UsageLimit {
		return nil, discounterrors.ErrExhausted
	}

	return discount, nil
}

func (s *discountService) ValidatePublic(ctx context.Context, tenantID, code string) (*model.PublicDiscount, error) {
	discount, err := s.Validate(ctx, tenantID, code)
	if err != nil {
		if apperrors.IsAppError(err) && apperrors.IsCode(err, apperrors.CodeInternal) {
			return nil, err
		}
		return nil, apperrors.DiscountInvalid(discounterrors.Reason(err))
	}

	public := discount.Public()
	return &public, nil
}

func (s *discountService) RecordUsage(ctx context.Context, discountID string) error {
	err := s.repo.RecordUsage(ctx, discountID)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, discounterrors.ErrUsageConflict):
		s.cfg.Log.Warn("Discount exhausted concurrently", "discount_id", discountID)
		return apperrors.Conflict("discount no longer available")
	case errors.Is(err, discounterrors.ErrNotFound):
		return apperrors.NotFoundWithID("Discount", discountID)
	case errors.Is(err, discounterrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid discount ID format")
	default:
		return apperrors.Internal("Failed to record discount usage", err)
	}
}

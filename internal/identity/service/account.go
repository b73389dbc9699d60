package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	billingservice "bookd/internal/billing/service"
	identityerrors "bookd/internal/identity/errors"
	"bookd/internal/identity/repository"
	"bookd/internal/identity/validator"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/model"
	"bookd/pkg/sanitizer"
)

type RegisterTenantRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AccountService handles tenant registration and self-service account reads.
// Registration is the one place a subscription comes into existence.
type AccountService interface {
	RegisterTenant(ctx context.Context, req *RegisterTenantRequest) (*model.Account, error)
	GetSelf(ctx context.Context, principalID string) (*model.Account, error)
}

type accountService struct {
	repo      repository.AccountRepository
	billing   billingservice.SubscriptionService
	validator *validator.AccountValidator
	cfg       *config.Config
}

func NewAccountService(
	repo repository.AccountRepository,
	billing billingservice.SubscriptionService,
	accountValidator *validator.AccountValidator,
	cfg *config.Config,
) AccountService {
	return &accountService{
		repo:      repo,
		billing:   billing,
		validator: accountValidator,
		cfg:       cfg,
	}
}

func (s *accountService) RegisterTenant(ctx context.Context, req *RegisterTenantRequest) (*model.Account, error) {
	if err := s.validator.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.Validation("account validation failed", map[string]any{"errors": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	account := &model.Account{
		Email:        sanitizer.NormalizeEmail(req.Email),
		Name:         sanitizer.NormalizeName(req.Name),
		PasswordHash: string(hash),
		Role:         model.RoleOwner,
	}
	if err := s.validator.Validate(account); err != nil {
		return nil, apperrors.Validation("account validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, identityerrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, apperrors.Internal("Failed to create account", err)
	}

	if _, err := s.billing.CreateForTenant(ctx, account.ID); err != nil {
		// The account exists but has no subscription; the gate fails closed
		// until this is repaired, so surface the failure to the caller.
		s.cfg.Log.Error("Failed to open trial for new tenant", "tenant_id", account.ID, "error", err)
		return nil, apperrors.Internal("Failed to open trial subscription", err)
	}

	s.cfg.Log.Info("Tenant registered", "tenant_id", account.ID)
	return account, nil
}

func (s *accountService) GetSelf(ctx context.Context, principalID string) (*model.Account, error) {
	if principalID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	account, err := s.repo.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, identityerrors.ErrNotFound) || errors.Is(err, identityerrors.ErrInvalidID) {
			return nil, apperrors.Unauthorized("authentication required")
		}
		return nil, apperrors.Internal("Failed to retrieve account", err)
	}
	return account, nil
}

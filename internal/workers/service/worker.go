package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	billingservice "bookd/internal/billing/service"
	identityerrors "bookd/internal/identity/errors"
	identityrepository "bookd/internal/identity/repository"
	identityservice "bookd/internal/identity/service"
	workererrors "bookd/internal/workers/errors"
	"bookd/internal/workers/repository"
	"bookd/internal/workers/validator"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/events"
	"bookd/pkg/model"
	"bookd/pkg/sanitizer"
)

// RedeemRequest carries what the invited person supplies; everything else
// (email, role, tenant) comes from the invitation itself.
type RedeemRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AddWorkerRequest struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type WorkerService interface {
	Invite(ctx context.Context, principalID, tenantID, email, role string) (*model.Invitation, error)
	Redeem(ctx context.Context, req *RedeemRequest) (*model.Account, error)
	// AddDirect provisions a worker without the invitation round-trip.
	AddDirect(ctx context.Context, principalID string, req *AddWorkerRequest) (*model.Account, error)
	List(ctx context.Context, principalID, tenantID string) ([]*model.Account, error)
	// Revoke strips the worker's role and tenant link but keeps the account
	// row, so historical references stay resolvable.
	Revoke(ctx context.Context, principalID, workerID string) error
}

type workerService struct {
	invitations repository.InvitationRepository
	accounts    identityrepository.AccountRepository
	resolver    identityservice.Resolver
	billing     billingservice.SubscriptionService
	validator   *validator.WorkerValidator
	publisher   events.Publisher
	cfg         *config.Config
	now         func() time.Time
}

func NewWorkerService(
	invitations repository.InvitationRepository,
	accounts identityrepository.AccountRepository,
	resolver identityservice.Resolver,
	billing billingservice.SubscriptionService,
	workerValidator *validator.WorkerValidator,
	publisher events.Publisher,
	cfg *config.Config,
) WorkerService {
	return &workerService{
		invitations: invitations,
		accounts:    accounts,
		resolver:    resolver,
		billing:     billing,
		validator:   workerValidator,
		publisher:   publisher,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *workerService) Invite(ctx context.Context, principalID, tenantID, email, role string) (*model.Invitation, error) {
	if err := s.authorizeOwner(ctx, principalID, tenantID); err != nil {
		return nil, err
	}
	if err := s.billing.Gate(ctx, tenantID); err != nil {
		return nil, err
	}

	invitation := &model.Invitation{
		Token:     uuid.NewString(),
		TenantID:  tenantID,
		Email:     sanitizer.NormalizeEmail(email),
		Role:      role,
		ExpiresAt: s.now().UTC().Add(s.cfg.InvitationTTL).Truncate(time.Millisecond),
	}
	if err := s.validator.ValidateInvitation(invitation); err != nil {
		return nil, apperrors.Validation("invitation validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.invitations.Create(ctx, invitation); err != nil {
		return nil, apperrors.Internal("Failed to create invitation", err)
	}

	s.publishInvited(ctx, invitation)
	s.cfg.Log.Info("Worker invited",
		"tenant_id", tenantID,
		"role", role,
	)
	return invitation, nil
}

// Redeem re-validates everything the invitation promised at issue time:
// lifetime, single use, and that the email is still unclaimed. The redeemed
// flag is flipped before the account insert, so of two concurrent redeemers
// exactly one proceeds.
func (s *workerService) Redeem(ctx context.Context, req *RedeemRequest) (*model.Account, error) {
	invitation, err := s.invitations.FindByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, workererrors.ErrInvitationNotFound) {
			return nil, apperrors.NotFound("Invitation")
		}
		return nil, apperrors.Internal("Failed to look up invitation", err)
	}

	if invitation.Redeemed {
		return nil, apperrors.Conflict("invitation has already been redeemed")
	}
	if invitation.Expired(s.now().UTC()) {
		return nil, apperrors.InvalidInput("invitation has expired")
	}
	if err := s.validator.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.Validation("worker validation failed", map[string]any{"errors": err.Error()})
	}
	if _, err := s.accounts.FindByEmail(ctx, invitation.Email); err == nil {
		return nil, apperrors.Conflict("email already belongs to an account")
	} else if !errors.Is(err, identityerrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check existing accounts", err)
	}

	// Build and validate the account before burning the single use, so a bad
	// name or role leaves the invitation redeemable.
	account, err := s.buildWorker(invitation.TenantID, invitation.Email, req.Name, req.Password, invitation.Role)
	if err != nil {
		return nil, err
	}

	if err := s.invitations.MarkRedeemed(ctx, req.Token); err != nil {
		if errors.Is(err, workererrors.ErrAlreadyRedeemed) {
			return nil, apperrors.Conflict("invitation has already been redeemed")
		}
		return nil, apperrors.Internal("Failed to redeem invitation", err)
	}

	if err := s.insertWorker(ctx, account); err != nil {
		// No worker exists; hand the invitation back so redemption can retry.
		if reopenErr := s.invitations.Unredeem(ctx, req.Token); reopenErr != nil {
			s.cfg.Log.Error("Failed to reopen invitation after account error",
				"token", req.Token, "error", reopenErr)
		}
		return nil, err
	}

	s.cfg.Log.Info("Invitation redeemed",
		"tenant_id", invitation.TenantID,
		"worker_id", account.ID,
		"role", account.Role,
	)
	return account, nil
}

func (s *workerService) AddDirect(ctx context.Context, principalID string, req *AddWorkerRequest) (*model.Account, error) {
	if err := s.authorizeOwner(ctx, principalID, req.TenantID); err != nil {
		return nil, err
	}
	if err := s.billing.Gate(ctx, req.TenantID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.Validation("worker validation failed", map[string]any{"errors": err.Error()})
	}

	account, err := s.createWorker(ctx, req.TenantID, sanitizer.NormalizeEmail(req.Email), req.Name, req.Password, req.Role)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Worker added directly",
		"tenant_id", req.TenantID,
		"worker_id", account.ID,
		"role", account.Role,
	)
	return account, nil
}

func (s *workerService) List(ctx context.Context, principalID, tenantID string) ([]*model.Account, error) {
	if err := s.authorizeOwner(ctx, principalID, tenantID); err != nil {
		return nil, err
	}

	workers, err := s.accounts.FindWorkersByOwner(ctx, tenantID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list workers", err)
	}
	return workers, nil
}

func (s *workerService) Revoke(ctx context.Context, principalID, workerID string) error {
	worker, err := s.accounts.FindByID(ctx, workerID)
	if err != nil {
		switch {
		case errors.Is(err, identityerrors.ErrNotFound):
			return apperrors.NotFoundWithID("Worker", workerID)
		case errors.Is(err, identityerrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid worker ID format")
		default:
			return apperrors.Internal("Failed to look up worker", err)
		}
	}
	if !worker.IsWorker() {
		return apperrors.InvalidInput("account is not a worker")
	}

	if err := s.authorizeOwner(ctx, principalID, worker.OwnerID); err != nil {
		return err
	}

	if err := s.accounts.StripWorker(ctx, workerID); err != nil {
		return apperrors.Internal("Failed to revoke worker", err)
	}

	s.cfg.Log.Info("Worker revoked",
		"tenant_id", worker.OwnerID,
		"worker_id", workerID,
	)
	return nil
}

func (s *workerService) authorizeOwner(ctx context.Context, principalID, tenantID string) error {
	account, err := s.resolver.Authorize(ctx, principalID, tenantID)
	if err != nil {
		return err
	}
	if account.IsWorker() {
		return apperrors.Forbidden("access denied")
	}
	return nil
}

func (s *workerService) createWorker(ctx context.Context, tenantID, email, name, password, role string) (*model.Account, error) {
	account, err := s.buildWorker(tenantID, email, name, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.insertWorker(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *workerService) buildWorker(tenantID, email, name, password, role string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	account := &model.Account{
		Email:        email,
		Name:         sanitizer.NormalizeName(name),
		PasswordHash: string(hash),
		Role:         role,
		OwnerID:      tenantID,
	}
	if err := s.validator.ValidateAccount(account); err != nil {
		return nil, apperrors.Validation("worker validation failed", map[string]any{"errors": err.Error()})
	}
	if account.Role == model.RoleOwner {
		return nil, apperrors.InvalidInput("workers cannot hold the owner role")
	}
	return account, nil
}

func (s *workerService) insertWorker(ctx context.Context, account *model.Account) error {
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, identityerrors.ErrDuplicateEmail) {
			return apperrors.Conflict("email already belongs to an account")
		}
		return apperrors.Internal("Failed to create worker account", err)
	}
	return nil
}

func (s *workerService) publishInvited(ctx context.Context, invitation *model.Invitation) {
	payload := events.WorkerInvited{
		Type:            events.TypeWorkerInvited,
		TenantID:        invitation.TenantID,
		Email:           invitation.Email,
		Role:            invitation.Role,
		InvitationToken: invitation.Token,
		ExpiresAt:       invitation.ExpiresAt,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.TypeWorkerInvited, invitation.TenantID, payload); err != nil {
		s.cfg.Log.Error("Failed to publish worker invitation event",
			"tenant_id", invitation.TenantID,
			"error", err,
		)
	}
}

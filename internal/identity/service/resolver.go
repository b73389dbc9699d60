package service

import (
	"context"
	"errors"

	identityerrors "bookd/internal/identity/errors"
	"bookd/internal/identity/repository"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/model"
)

// Resolver is the single source of truth for ownership. A principal may act on
// tenant T's data iff ResolveOwner(principal) == T; no other component
// re-derives ownership.
type Resolver interface {
	IsWorker(ctx context.Context, principalID string) (bool, error)
	ResolveOwner(ctx context.Context, principalID string) (string, error)
	Authorize(ctx context.Context, principalID, tenantID string) (*model.Account, error)
}

type resolverService struct {
	repo repository.AccountRepository
	cfg  *config.Config
}

func NewResolver(repo repository.AccountRepository, cfg *config.Config) Resolver {
	return &resolverService{repo: repo, cfg: cfg}
}

func (s *resolverService) IsWorker(ctx context.Context, principalID string) (bool, error) {
	account, err := s.lookup(ctx, principalID)
	if err != nil {
		return false, err
	}
	return account.IsWorker(), nil
}

// ResolveOwner returns the principal's own id for a tenant owner, the linked
// owner id for a worker, and an error for anything else. Callers treat the
// error as "no access".
func (s *resolverService) ResolveOwner(ctx context.Context, principalID string) (string, error) {
	account, err := s.lookup(ctx, principalID)
	if err != nil {
		return "", err
	}

	if account.IsWorker() {
		return account.OwnerID, nil
	}
	if account.Role == model.RoleOwner {
		return account.ID, nil
	}

	// Revoked workers keep their account row but resolve to nothing.
	return "", identityerrors.ErrNoOwner
}

// Authorize enforces the platform-wide ownership rule and returns the acting
// account for role checks. Failures surface as Forbidden without revealing
// whether the target tenant exists.
func (s *resolverService) Authorize(ctx context.Context, principalID, tenantID string) (*model.Account, error) {
	if principalID == "" {
		return nil, apperrors.Forbidden("access denied")
	}

	account, err := s.lookup(ctx, principalID)
	if err != nil {
		if errors.Is(err, identityerrors.ErrNotFound) || errors.Is(err, identityerrors.ErrInvalidID) {
			return nil, apperrors.Forbidden("access denied")
		}
		return nil, apperrors.Internal("Failed to resolve principal", err)
	}

	owner := account.ID
	if account.IsWorker() {
		owner = account.OwnerID
	} else if account.Role != model.RoleOwner {
		return nil, apperrors.Forbidden("access denied")
	}

	if owner != tenantID {
		return nil, apperrors.Forbidden("access denied")
	}

	return account, nil
}

func (s *resolverService) lookup(ctx context.Context, principalID string) (*model.Account, error) {
	if principalID == "" {
		return nil, identityerrors.ErrNotFound
	}
	return s.repo.FindByID(ctx, principalID)
}

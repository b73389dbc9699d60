package service

import (
	"context"
	"errors"

	catalogerrors "bookd/internal/catalog/errors"
	"bookd/internal/catalog/repository"
	"bookd/internal/catalog/validator"
	identityservice "bookd/internal/identity/service"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/model"
	"bookd/pkg/sanitizer"
)

type CatalogService interface {
	Create(ctx context.Context, principalID string, svc *model.CatalogService) error
	GetByID(ctx context.Context, principalID, id string) (*model.CatalogService, error)
	ListByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.CatalogService, int64, error)
	Update(ctx context.Context, principalID, id string, svc *model.CatalogService) error
	Delete(ctx context.Context, principalID, id string) error
}

type catalogService struct {
	repo      repository.CatalogRepository
	resolver  identityservice.Resolver
	validator *validator.CatalogValidator
	cfg       *config.Config
}

func NewCatalogService(
	repo repository.CatalogRepository,
	resolver identityservice.Resolver,
	catalogValidator *validator.CatalogValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		repo:      repo,
		resolver:  resolver,
		validator: catalogValidator,
		cfg:       cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, principalID string, svc *model.CatalogService) error {
	account, err := s.resolver.Authorize(ctx, principalID, svc.TenantID)
	if err != nil {
		return err
	}
	// Only the owner edits the catalog; workers deliver, they don't price.
	if account.IsWorker() {
		return apperrors.Forbidden("access denied")
	}

	svc.Name = sanitizer.NormalizeName(svc.Name)
	if err := s.validator.Validate(svc); err != nil {
		return apperrors.Validation("service validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		s.cfg.Log.Error("Failed to create service", "error", err, "tenant_id", svc.TenantID)
		return apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Catalog service created", "id", svc.ID, "tenant_id", svc.TenantID, "name", svc.Name)
	return nil
}

func (s *catalogService) GetByID(ctx context.Context, principalID, id string) (*model.CatalogService, error) {
	svc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolver.Authorize(ctx, principalID, svc.TenantID); err != nil {
		return nil, err
	}

	return svc, nil
}

// ListByTenant serves the public booking form: active services for one tenant,
// no principal required.
func (s *catalogService) ListByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.CatalogService, int64, error) {
	if tenantID == "" {
		return nil, 0, apperrors.InvalidInput("tenant_id is required")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	services, err := s.repo.FindByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list services", err)
	}
	count, err := s.repo.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count services", err)
	}

	return services, count, nil
}

func (s *catalogService) Update(ctx context.Context, principalID, id string, svc *model.CatalogService) error {
	existing, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}

	account, err := s.resolver.Authorize(ctx, principalID, existing.TenantID)
	if err != nil {
		return err
	}
	if account.IsWorker() {
		return apperrors.Forbidden("access denied")
	}

	svc.TenantID = existing.TenantID
	svc.Name = sanitizer.NormalizeName(svc.Name)
	if err := s.validator.Validate(svc); err != nil {
		return apperrors.Validation("service validation failed", map[string]any{"errors": err.Error()})
	}

	if err := s.repo.Update(ctx, id, svc); err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Service", id)
		}
		return apperrors.Internal("Failed to update service", err)
	}

	return nil
}

func (s *catalogService) Delete(ctx context.Context, principalID, id string) error {
	existing, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}

	account, err := s.resolver.Authorize(ctx, principalID, existing.TenantID)
	if err != nil {
		return err
	}
	if account.IsWorker() {
		return apperrors.Forbidden("access denied")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Service", id)
		}
		return apperrors.Internal("Failed to delete service", err)
	}

	s.cfg.Log.Info("Catalog service deleted", "id", id, "tenant_id", existing.TenantID)
	return nil
}

func (s *catalogService) fetch(ctx context.Context, id string) (*model.CatalogService, error) {
	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		if errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}
	return svc, nil
}

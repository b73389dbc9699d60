package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	discounterrors "bookd/internal/discounts/errors"
	"bookd/internal/discounts/validator"
	identityservice "bookd/internal/identity/service"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/logger"
	"bookd/pkg/model"

	mongotx "bookd/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockDiscountRepository struct {
	mu sync.Mutex

	createFunc              func(ctx context.Context, discount *model.Discount) error
	findByIDFunc            func(ctx context.Context, id string) (*model.Discount, error)
	findByTenantAndCodeFunc func(ctx context.Context, tenantID, code string) (*model.Discount, error)
	updateStatusFunc        func(ctx context.Context, id, status string) error

	// recordUsage state for the concurrency tests: remaining drains to zero
	// under the mutex the way the conditional update drains usage_limit.
	remaining int
	unlimited bool
}

func (m *mockDiscountRepository) Create(ctx context.Context, discount *model.Discount) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, discount)
	}
	return nil
}

func (m *mockDiscountRepository) FindByID(ctx context.Context, id string) (*model.Discount, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, discounterrors.ErrNotFound
}

func (m *mockDiscountRepository) FindByTenantAndCode(ctx context.Context, tenantID, code string) (*model.Discount, error) {
	if m.findByTenantAndCodeFunc != nil {
		return m.findByTenantAndCodeFunc(ctx, tenantID, code)
	}
	return nil, discounterrors.ErrNotFound
}

func (m *mockDiscountRepository) FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Discount, error) {
	return nil, nil
}

func (m *mockDiscountRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	return 0, nil
}

func (m *mockDiscountRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockDiscountRepository) RecordUsage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlimited {
		return nil
	}
	if m.remaining <= 0 {
		return discounterrors.ErrUsageConflict
	}
	m.remaining--
	return nil
}

func (m *mockDiscountRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockResolver struct {
	account *model.Account
	err     error
}

func (m *mockResolver) IsWorker(ctx context.Context, principalID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.account.IsWorker(), nil
}

func (m *mockResolver) ResolveOwner(ctx context.Context, principalID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.account.IsWorker() {
		return m.account.OwnerID, nil
	}
	return m.account.ID, nil
}

func (m *mockResolver) Authorize(ctx context.Context, principalID, tenantID string) (*model.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

var _ identityservice.Resolver = (*mockResolver)(nil)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: "error", Service: "test"}),
	}
}

func ownerResolver() *mockResolver {
	return &mockResolver{account: &model.Account{ID: "65a000000000000000000010", Role: model.RoleOwner}}
}

func newTestService(repo *mockDiscountRepository, resolver identityservice.Resolver) *discountService {
	cfg := testConfig()
	svc := NewDiscountService(repo, resolver, validator.NewDiscountValidator(cfg.Log), cfg)
	return svc.(*discountService)
}

func activeDiscount() *model.Discount {
	return &model.Discount{
		ID:       "65b000000000000000000001",
		TenantID: "65a000000000000000000010",
		Code:     "SAVE20",
		Type:     model.DiscountTypePercentage,
		Value:    "20",
		Status:   model.DiscountStatusActive,
	}
}

func TestValidate_OrderedChecks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	limit := 5

	tests := []struct {
		name     string
		discount *model.Discount
		found    bool
		wantErr  error
	}{
		{
			name:    "unknown code",
			found:   false,
			wantErr: discounterrors.ErrNotFound,
		},
		{
			name: "inactive wins over expired",
			discount: func() *model.Discount {
				d := activeDiscount()
				d.Status = model.DiscountStatusInactive
				d.ExpiresAt = &past
				return d
			}(),
			found:   true,
			wantErr: discounterrors.ErrInactive,
		},
		{
			name: "expired wins over exhausted",
			discount: func() *model.Discount {
				d := activeDiscount()
				d.ExpiresAt = &past
				d.UsageLimit = &limit
				d.TimesUsed = 5
				return d
			}(),
			found:   true,
			wantErr: discounterrors.ErrExpired,
		},
		{
			name: "exhausted",
			discount: func() *model.Discount {
				d := activeDiscount()
				d.ExpiresAt = &future
				d.UsageLimit = &limit
				d.TimesUsed = 5
				return d
			}(),
			found:   true,
			wantErr: discounterrors.ErrExhausted,
		},
		{
			name: "valid at usage limit minus one",
			discount: func() *model.Discount {
				d := activeDiscount()
				d.UsageLimit = &limit
				d.TimesUsed = 4
				return d
			}(),
			found: true,
		},
		{
			name:     "no expiry no limit",
			discount: activeDiscount(),
			found:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockDiscountRepository{
				findByTenantAndCodeFunc: func(ctx context.Context, tenantID, code string) (*model.Discount, error) {
					if !tt.found {
						return nil, discounterrors.ErrNotFound
					}
					return tt.discount, nil
				},
			}
			svc := newTestService(repo, ownerResolver())
			svc.now = func() time.Time { return now }

			got, err := svc.Validate(context.Background(), "65a000000000000000000010", "SAVE20")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || got.Code != "SAVE20" {
				t.Errorf("expected validated discount, got %+v", got)
			}
		})
	}
}

func TestValidatePublic_CollapsesReasonIntoGenericError(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	discount := activeDiscount()
	discount.ExpiresAt = &past

	repo := &mockDiscountRepository{
		findByTenantAndCodeFunc: func(ctx context.Context, tenantID, code string) (*model.Discount, error) {
			return discount, nil
		},
	}
	svc := newTestService(repo, ownerResolver())

	_, err := svc.ValidatePublic(context.Background(), "65a000000000000000000010", "SAVE20")
	if err == nil {
		t.Fatal("expected error for expired discount")
	}

	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != apperrors.CodeDiscountInvalid {
		t.Errorf("expected code %s, got %s", apperrors.CodeDiscountInvalid, appErr.Code)
	}
	if appErr.Message != "discount code is not valid" {
		t.Errorf("public message should not reveal the reason, got %q", appErr.Message)
	}
	if appErr.Details["reason"] != "expired" {
		t.Errorf("internal reason should be recorded in details, got %v", appErr.Details)
	}
}

func TestValidatePublic_ReturnsPublicFieldsOnly(t *testing.T) {
	repo := &mockDiscountRepository{
		findByTenantAndCodeFunc: func(ctx context.Context, tenantID, code string) (*model.Discount, error) {
			return activeDiscount(), nil
		},
	}
	svc := newTestService(repo, ownerResolver())

	public, err := svc.ValidatePublic(context.Background(), "65a000000000000000000010", "SAVE20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if public.Code != "SAVE20" || public.Type != model.DiscountTypePercentage || public.Value != "20" {
		t.Errorf("unexpected public view: %+v", public)
	}
}

func TestRecordUsage_ConflictWhenLastUseConsumedConcurrently(t *testing.T) {
	repo := &mockDiscountRepository{remaining: 1}
	svc := newTestService(repo, ownerResolver())

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.RecordUsage(context.Background(), "65b000000000000000000001")
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.IsCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Errorf("expected exactly one success and one conflict, got %d successes and %d conflicts", successes, conflicts)
	}
}

func TestCreate_WorkerForbidden(t *testing.T) {
	resolver := &mockResolver{account: &model.Account{
		ID:      "65a000000000000000000020",
		Role:    model.RoleStaff,
		OwnerID: "65a000000000000000000010",
	}}
	svc := newTestService(&mockDiscountRepository{}, resolver)

	err := svc.Create(context.Background(), "65a000000000000000000020", activeDiscount())
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected Forbidden for worker principal, got %v", err)
	}
}

func TestCreate_NormalizesCodeButKeepsCase(t *testing.T) {
	var created *model.Discount
	repo := &mockDiscountRepository{
		createFunc: func(ctx context.Context, discount *model.Discount) error {
			created = discount
			return nil
		},
	}
	svc := newTestService(repo, ownerResolver())

	discount := activeDiscount()
	discount.ID = ""
	discount.Code = "  Save20  "
	if err := svc.Create(context.Background(), "65a000000000000000000010", discount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Code != "Save20" {
		t.Errorf("code should be trimmed but case-preserved, got %q", created.Code)
	}
}

func TestCreate_DuplicateCodeConflict(t *testing.T) {
	repo := &mockDiscountRepository{
		createFunc: func(ctx context.Context, discount *model.Discount) error {
			return discounterrors.ErrDuplicateCode
		},
	}
	svc := newTestService(repo, ownerResolver())

	discount := activeDiscount()
	discount.ID = ""
	err := svc.Create(context.Background(), "65a000000000000000000010", discount)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected Conflict for duplicate code, got %v", err)
	}
}

func TestCreate_RejectsPercentageOverHundred(t *testing.T) {
	svc := newTestService(&mockDiscountRepository{}, ownerResolver())

	discount := activeDiscount()
	discount.ID = ""
	discount.Value = "120"
	err := svc.Create(context.Background(), "65a000000000000000000010", discount)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error for percentage over 100, got %v", err)
	}
}

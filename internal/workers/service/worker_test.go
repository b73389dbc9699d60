package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	identityerrors "bookd/internal/identity/errors"
	identityservice "bookd/internal/identity/service"
	workererrors "bookd/internal/workers/errors"
	"bookd/internal/workers/validator"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/logger"
	"bookd/pkg/model"
)

const (
	ownerID        = "65a000000000000000000010"
	foreignOwnerID = "65a000000000000000000099"
)

type memoryAccountRepository struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]*model.Account
}

func newMemoryAccountRepository() *memoryAccountRepository {
	repo := &memoryAccountRepository{byID: make(map[string]*model.Account)}
	repo.byID[ownerID] = &model.Account{ID: ownerID, Email: "owner@example.com", Name: "Owner", Role: model.RoleOwner}
	repo.byID[foreignOwnerID] = &model.Account{ID: foreignOwnerID, Email: "other@example.com", Name: "Other", Role: model.RoleOwner}
	return repo
}

func (m *memoryAccountRepository) Create(ctx context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == account.Email {
			return identityerrors.ErrDuplicateEmail
		}
	}
	m.nextID++
	id := "65e0000000000000000000" + pad(m.nextID)
	account.ID = id
	copied := *account
	m.byID[id] = &copied
	return nil
}

func pad(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func (m *memoryAccountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byID[id]
	if !ok {
		return nil, identityerrors.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *memoryAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.byID {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, identityerrors.ErrNotFound
}

func (m *memoryAccountRepository) FindWorkersByOwner(ctx context.Context, ownerID string) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Account
	for _, account := range m.byID {
		if account.OwnerID == ownerID {
			copied := *account
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryAccountRepository) StripWorker(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byID[id]
	if !ok {
		return identityerrors.ErrNotFound
	}
	account.Role = ""
	account.OwnerID = ""
	return nil
}

type memoryInvitationRepository struct {
	mu      sync.Mutex
	byToken map[string]*model.Invitation
}

func newMemoryInvitationRepository() *memoryInvitationRepository {
	return &memoryInvitationRepository{byToken: make(map[string]*model.Invitation)}
}

func (m *memoryInvitationRepository) Create(ctx context.Context, invitation *model.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *invitation
	m.byToken[invitation.Token] = &copied
	return nil
}

func (m *memoryInvitationRepository) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invitation, ok := m.byToken[token]
	if !ok {
		return nil, workererrors.ErrInvitationNotFound
	}
	copied := *invitation
	return &copied, nil
}

func (m *memoryInvitationRepository) MarkRedeemed(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	invitation, ok := m.byToken[token]
	if !ok {
		return workererrors.ErrInvitationNotFound
	}
	if invitation.Redeemed {
		return workererrors.ErrAlreadyRedeemed
	}
	invitation.Redeemed = true
	return nil
}

func (m *memoryInvitationRepository) Unredeem(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	invitation, ok := m.byToken[token]
	if !ok {
		return workererrors.ErrInvitationNotFound
	}
	invitation.Redeemed = false
	return nil
}

type stubBilling struct {
	gateErr error
}

func (s *stubBilling) CreateForTenant(ctx context.Context, tenantID string) (*model.Subscription, error) {
	return nil, nil
}

func (s *stubBilling) GetByTenant(ctx context.Context, principalID, tenantID string) (*model.Subscription, error) {
	return nil, nil
}

func (s *stubBilling) Gate(ctx context.Context, tenantID string) error {
	return s.gateErr
}

func (s *stubBilling) ApplyEvent(ctx context.Context, event *model.BillingEvent) error {
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type workerFixture struct {
	svc         *workerService
	invitations *memoryInvitationRepository
	accounts    *memoryAccountRepository
	resolver    identityservice.Resolver
	billing     *stubBilling
	publisher   *recordingPublisher
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	cfg := &config.Config{
		Log:           logger.New(logger.Config{Level: "error", Service: "test"}),
		InvitationTTL: 72 * time.Hour,
	}
	f := &workerFixture{
		invitations: newMemoryInvitationRepository(),
		accounts:    newMemoryAccountRepository(),
		billing:     &stubBilling{},
		publisher:   &recordingPublisher{},
	}
	f.resolver = identityservice.NewResolver(f.accounts, cfg)
	svc := NewWorkerService(
		f.invitations,
		f.accounts,
		f.resolver,
		f.billing,
		validator.NewWorkerValidator(cfg.Log),
		f.publisher,
		cfg,
	)
	f.svc = svc.(*workerService)
	return f
}

func TestInvite_OwnerOnlyAndGated(t *testing.T) {
	f := newWorkerFixture(t)

	invitation, err := f.svc.Invite(context.Background(), ownerID, ownerID, "new@example.com", model.RoleStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invitation.Token == "" {
		t.Error("invitation should carry a token")
	}
	if invitation.TenantID != ownerID || invitation.Role != model.RoleStaff {
		t.Errorf("invitation fields wrong: %+v", invitation)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0] != "worker.invited" {
		t.Errorf("expected worker.invited event, got %v", f.publisher.events)
	}

	if _, err := f.svc.Invite(context.Background(), foreignOwnerID, ownerID, "x@example.com", model.RoleStaff); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("foreign owner must not invite into this tenant, got %v", err)
	}

	f.billing.gateErr = apperrors.SubscriptionRequired(ownerID)
	if _, err := f.svc.Invite(context.Background(), ownerID, ownerID, "y@example.com", model.RoleStaff); !apperrors.IsCode(err, apperrors.CodeSubscriptionRequired) {
		t.Errorf("gated tenant must not invite, got %v", err)
	}
}

func TestRedeem_WorkerResolvesToInvitingTenant(t *testing.T) {
	f := newWorkerFixture(t)
	invitation, err := f.svc.Invite(context.Background(), ownerID, ownerID, "worker@example.com", model.RoleStaffAssignedOnly)
	if err != nil {
		t.Fatal(err)
	}

	account, err := f.svc.Redeem(context.Background(), &RedeemRequest{
		Token:    invitation.Token,
		Name:     "New Worker",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.OwnerID != ownerID || account.Role != model.RoleStaffAssignedOnly {
		t.Errorf("account not linked to inviting tenant with stored role: %+v", account)
	}

	resolved, err := f.resolver.ResolveOwner(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("resolver error: %v", err)
	}
	if resolved != ownerID {
		t.Errorf("redeemed worker should resolve to inviting tenant, got %s", resolved)
	}
}

func TestRedeem_SecondAttemptConflicts(t *testing.T) {
	f := newWorkerFixture(t)
	invitation, err := f.svc.Invite(context.Background(), ownerID, ownerID, "worker@example.com", model.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	req := &RedeemRequest{Token: invitation.Token, Name: "New Worker", Password: "long-enough-password"}
	if _, err := f.svc.Redeem(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Redeem(context.Background(), req); !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("second redemption should conflict, got %v", err)
	}
}

func TestRedeem_FailedValidationKeepsInvitationOpen(t *testing.T) {
	f := newWorkerFixture(t)
	invitation, err := f.svc.Invite(context.Background(), ownerID, ownerID, "worker@example.com", model.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Redeem(context.Background(), &RedeemRequest{
		Token:    invitation.Token,
		Name:     "X",
		Password: "long-enough-password",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("one-letter name should fail validation, got %v", err)
	}
	if _, err := f.accounts.FindByEmail(context.Background(), "worker@example.com"); err == nil {
		t.Error("no account may exist after a failed redemption")
	}

	stored, err := f.invitations.FindByToken(context.Background(), invitation.Token)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Redeemed {
		t.Fatal("failed redemption must not burn the invitation")
	}

	account, err := f.svc.Redeem(context.Background(), &RedeemRequest{
		Token:    invitation.Token,
		Name:     "New Worker",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("retry with valid fields should succeed, got %v", err)
	}
	if account.OwnerID != ownerID {
		t.Errorf("retried redemption not linked to inviting tenant: %+v", account)
	}
}

func TestRedeem_ExpiredInvitationRejected(t *testing.T) {
	f := newWorkerFixture(t)
	invitation, err := f.svc.Invite(context.Background(), ownerID, ownerID, "worker@example.com", model.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	f.svc.now = func() time.Time { return time.Now().Add(100 * time.Hour) }
	_, err = f.svc.Redeem(context.Background(), &RedeemRequest{
		Token:    invitation.Token,
		Name:     "Late Worker",
		Password: "long-enough-password",
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expired invitation must be rejected even before the TTL purge, got %v", err)
	}
}

func TestRedeem_ExistingEmailConflicts(t *testing.T) {
	f := newWorkerFixture(t)
	invitation, err := f.svc.Invite(context.Background(), ownerID, ownerID, "owner@example.com", model.RoleStaff)
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Redeem(context.Background(), &RedeemRequest{
		Token:    invitation.Token,
		Name:     "Imposter",
		Password: "long-enough-password",
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("claimed email must conflict at redemption, got %v", err)
	}
}

func TestRedeem_UnknownTokenNotFound(t *testing.T) {
	f := newWorkerFixture(t)

	_, err := f.svc.Redeem(context.Background(), &RedeemRequest{
		Token:    "11111111-1111-4111-8111-111111111111",
		Name:     "Nobody",
		Password: "long-enough-password",
	})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestAddDirect_HashesPasswordAndRejectsOwnerRole(t *testing.T) {
	f := newWorkerFixture(t)

	account, err := f.svc.AddDirect(context.Background(), ownerID, &AddWorkerRequest{
		TenantID: ownerID,
		Email:    "direct@example.com",
		Name:     "Direct Worker",
		Password: "long-enough-password",
		Role:     model.RoleStaff,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("long-enough-password")); err != nil {
		t.Error("stored hash should verify against the password")
	}

	_, err = f.svc.AddDirect(context.Background(), ownerID, &AddWorkerRequest{
		TenantID: ownerID,
		Email:    "sneaky@example.com",
		Name:     "Sneaky",
		Password: "long-enough-password",
		Role:     model.RoleOwner,
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("owner role must not be grantable, got %v", err)
	}
}

func TestAddDirect_ShortPasswordRejected(t *testing.T) {
	f := newWorkerFixture(t)

	_, err := f.svc.AddDirect(context.Background(), ownerID, &AddWorkerRequest{
		TenantID: ownerID,
		Email:    "direct@example.com",
		Name:     "Direct Worker",
		Password: "short",
		Role:     model.RoleStaff,
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRevoke_StripsLinkButKeepsAccount(t *testing.T) {
	f := newWorkerFixture(t)
	account, err := f.svc.AddDirect(context.Background(), ownerID, &AddWorkerRequest{
		TenantID: ownerID,
		Email:    "direct@example.com",
		Name:     "Direct Worker",
		Password: "long-enough-password",
		Role:     model.RoleStaff,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Revoke(context.Background(), foreignOwnerID, account.ID); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("foreign owner must not revoke, got %v", err)
	}

	if err := f.svc.Revoke(context.Background(), ownerID, account.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kept, err := f.accounts.FindByID(context.Background(), account.ID)
	if err != nil {
		t.Fatal("revoked account row must survive")
	}
	if kept.IsWorker() || kept.Role != "" {
		t.Errorf("revocation should strip role and owner link, got %+v", kept)
	}

	if _, err := f.resolver.ResolveOwner(context.Background(), account.ID); !errors.Is(err, identityerrors.ErrNoOwner) {
		t.Errorf("revoked account must no longer resolve to a tenant, got %v", err)
	}

	if err := f.svc.Revoke(context.Background(), ownerID, account.ID); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("revoking a non-worker should be invalid, got %v", err)
	}
}

func TestList_WorkersOfTenant(t *testing.T) {
	f := newWorkerFixture(t)
	if _, err := f.svc.AddDirect(context.Background(), ownerID, &AddWorkerRequest{
		TenantID: ownerID, Email: "a@example.com", Name: "Worker A",
		Password: "long-enough-password", Role: model.RoleStaff,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AddDirect(context.Background(), ownerID, &AddWorkerRequest{
		TenantID: ownerID, Email: "b@example.com", Name: "Worker B",
		Password: "long-enough-password", Role: model.RoleStaffAssignedOnly,
	}); err != nil {
		t.Fatal(err)
	}

	workers, err := f.svc.List(context.Background(), ownerID, ownerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(workers) != 2 {
		t.Errorf("expected 2 workers, got %d", len(workers))
	}

	others, err := f.svc.List(context.Background(), foreignOwnerID, foreignOwnerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(others) != 0 {
		t.Errorf("other tenant should have no workers, got %d", len(others))
	}
}

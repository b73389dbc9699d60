package service

import (
	"context"
	"testing"

	identityerrors "bookd/internal/identity/errors"
	"bookd/pkg/config"
	apperrors "bookd/pkg/errors"
	"bookd/pkg/logger"
	"bookd/pkg/model"
)

type mockAccountRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Account, error)
}

func (m *mockAccountRepository) Create(ctx context.Context, account *model.Account) error {
	return nil
}

func (m *mockAccountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, identityerrors.ErrNotFound
}

func (m *mockAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return nil, identityerrors.ErrNotFound
}

func (m *mockAccountRepository) FindWorkersByOwner(ctx context.Context, ownerID string) ([]*model.Account, error) {
	return nil, nil
}

func (m *mockAccountRepository) StripWorker(ctx context.Context, id string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: "error", Service: "test"}),
	}
}

func accountsFixture() map[string]*model.Account {
	return map[string]*model.Account{
		"65a000000000000000000010": {ID: "65a000000000000000000010", Role: model.RoleOwner, Email: "owner@example.com"},
		"65a000000000000000000020": {ID: "65a000000000000000000020", Role: model.RoleStaff, OwnerID: "65a000000000000000000010", Email: "staff@example.com"},
		"65a000000000000000000030": {ID: "65a000000000000000000030", Email: "revoked@example.com"},
	}
}

func fixtureResolver() Resolver {
	accounts := accountsFixture()
	repo := &mockAccountRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Account, error) {
			if a, ok := accounts[id]; ok {
				return a, nil
			}
			return nil, identityerrors.ErrNotFound
		},
	}
	return NewResolver(repo, testConfig())
}

func TestResolveOwner_OwnerResolvesToSelf(t *testing.T) {
	resolver := fixtureResolver()

	owner, err := resolver.ResolveOwner(context.Background(), "65a000000000000000000010")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "65a000000000000000000010" {
		t.Errorf("owner should resolve to own id, got %s", owner)
	}
}

func TestResolveOwner_WorkerResolvesToInvitingTenant(t *testing.T) {
	resolver := fixtureResolver()

	owner, err := resolver.ResolveOwner(context.Background(), "65a000000000000000000020")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "65a000000000000000000010" {
		t.Errorf("worker must resolve to the inviting tenant, never itself; got %s", owner)
	}
}

func TestResolveOwner_RevokedWorkerHasNoOwner(t *testing.T) {
	resolver := fixtureResolver()

	_, err := resolver.ResolveOwner(context.Background(), "65a000000000000000000030")
	if err != identityerrors.ErrNoOwner {
		t.Errorf("expected ErrNoOwner, got %v", err)
	}
}

func TestIsWorker(t *testing.T) {
	resolver := fixtureResolver()

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"owner", "65a000000000000000000010", false},
		{"worker", "65a000000000000000000020", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.IsWorker(context.Background(), tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsWorker = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	resolver := fixtureResolver()

	tests := []struct {
		name      string
		principal string
		tenant    string
		wantErr   bool
	}{
		{"owner on own tenant", "65a000000000000000000010", "65a000000000000000000010", false},
		{"worker on owning tenant", "65a000000000000000000020", "65a000000000000000000010", false},
		{"worker on own id", "65a000000000000000000020", "65a000000000000000000020", true},
		{"owner on foreign tenant", "65a000000000000000000010", "65a000000000000000000099", true},
		{"revoked worker", "65a000000000000000000030", "65a000000000000000000010", true},
		{"unknown principal", "65a0000000000000000000ff", "65a000000000000000000010", true},
		{"empty principal", "", "65a000000000000000000010", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Authorize(context.Background(), tt.principal, tt.tenant)
			if tt.wantErr {
				if !apperrors.IsCode(err, apperrors.CodeForbidden) {
					t.Errorf("expected Forbidden, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

package httpapi

import (
	"context"
	"testing"
	"time"

	"swiftpos/backend/internal/domain"
	"swiftpos/backend/internal/store/memory"
)

func newTestAuth(t *testing.T) *AuthManager {
	t.Helper()
	return NewAuthManager("test-secret-key", time.Hour, memory.NewSeeded())
}

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	other := NewAuthManager("another-secret-entirely", time.Hour, memory.NewSeeded())
	resp, err := other.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	auth := newTestAuth(t)
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}
}

func TestCreateCashierValidation(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.CreateCashier(context.Background(), domain.CashierCreateRequest{Username: "ab", Password: "secret1"}); err == nil {
		t.Fatalf("expected short username to be rejected")
	}
	if _, err := auth.CreateCashier(context.Background(), domain.CashierCreateRequest{Username: "newcashier", Password: "123"}); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
	if _, err := auth.CreateCashier(context.Background(), domain.CashierCreateRequest{Username: "cashier", Password: "secret1"}); err == nil {
		t.Fatalf("expected duplicate username to be rejected")
	}

	created, err := auth.CreateCashier(context.Background(), domain.CashierCreateRequest{Username: "NewCashier", Password: "secret1"})
	if err != nil {
		t.Fatalf("create cashier: %v", err)
	}
	if created.Username != "newcashier" || created.Role != "cashier" || !created.Active {
		t.Fatalf("unexpected cashier: %+v", created)
	}

	// The new cashier can log in right away.
	if _, err := auth.Login(context.Background(), domain.LoginRequest{Username: "newcashier", Password: "secret1"}); err != nil {
		t.Fatalf("new cashier login: %v", err)
	}
}

type recordingUserStore struct {
	listCtx context.Context
}

func (r *recordingUserStore) CreateUser(_ context.Context, _ domain.UserAccount) error { return nil }

func (r *recordingUserStore) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	r.listCtx = ctx
	return nil, ctx.Err()
}

func (r *recordingUserStore) UpdateUserPassword(_ context.Context, _ string, _ string) error {
	return nil
}

// The store re-read on login runs under the caller's context so a slow store
// cannot outlive the request.
func TestLoginReadsStoreUnderCallerContext(t *testing.T) {
	userStore := &recordingUserStore{}
	auth := NewAuthManager("test-secret-key", time.Hour, userStore)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = auth.Login(ctx, domain.LoginRequest{Username: "admin", Password: "admin123"})

	if userStore.listCtx == nil {
		t.Fatalf("expected login to read the user store")
	}
	if userStore.listCtx.Err() == nil {
		t.Fatalf("expected the caller's canceled context to reach the store read")
	}
}

func TestListCashiersExcludesAdmins(t *testing.T) {
	auth := newTestAuth(t)

	for _, cashier := range auth.ListCashiers(context.Background()) {
		if cashier.Role != "cashier" {
			t.Fatalf("expected only cashiers, got %+v", cashier)
		}
	}
}

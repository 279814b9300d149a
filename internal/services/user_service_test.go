package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/kvstore"
)

type stubIssuer struct {
	err    error
	issued []auth.Identity
}

func (i *stubIssuer) Issue(identity auth.Identity) (string, error) {
	i.issued = append(i.issued, identity)
	if i.err != nil {
		return "", i.err
	}
	return "token_" + identity.UserID, nil
}

func newTestUserService(t *testing.T) (UserService, *stubIssuer) {
	t.Helper()
	issuer := &stubIssuer{}
	next := 0
	svc, err := NewUserService(UserServiceDeps{
		Store:  kvstore.New(kvstore.NewMemoryBackend(), nil),
		Issuer: issuer,
		IDGenerator: func() string {
			next++
			return fmt.Sprintf("usr_%d", next)
		},
	})
	if err != nil {
		t.Fatalf("NewUserService: %v", err)
	}
	return svc, issuer
}

func TestUserLoginDemoAccounts(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "user@example.com", "password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.User.ID != "1" || session.User.Name != "John Doe" || session.User.Role != auth.RoleUser {
		t.Fatalf("unexpected demo user: %+v", session.User)
	}
	if session.Token != "token_1" {
		t.Fatalf("unexpected token %s", session.Token)
	}

	admin, err := svc.Login(ctx, "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("Login admin: %v", err)
	}
	if admin.User.ID != "2" || admin.User.Role != auth.RoleAdmin {
		t.Fatalf("unexpected admin user: %+v", admin.User)
	}
}

func TestUserLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestUserService(t)

	if _, err := svc.Login(context.Background(), "user@example.com", "wrong"); !errors.Is(err, ErrUserInvalidCredentials) {
		t.Fatalf("expected ErrUserInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "password"); !errors.Is(err, ErrUserInvalidCredentials) {
		t.Fatalf("expected ErrUserInvalidCredentials, got %v", err)
	}
}

func TestUserRegisterAndLoginBack(t *testing.T) {
	svc, issuer := newTestUserService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "New User", "New@Example.com", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.User.ID != "usr_1" || session.User.Role != auth.RoleUser {
		t.Fatalf("unexpected registered user: %+v", session.User)
	}
	if session.User.Email != "new@example.com" {
		t.Fatalf("expected normalised email, got %s", session.User.Email)
	}
	if len(issuer.issued) != 1 {
		t.Fatalf("expected one issued token, got %d", len(issuer.issued))
	}

	// The new account can log in again with normalised credentials.
	again, err := svc.Login(ctx, "new@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if again.User.ID != "usr_1" {
		t.Fatalf("unexpected user on re-login: %+v", again.User)
	}
}

func TestUserRegisterRejectsTakenEmails(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Someone", "user@example.com", "pw"); !errors.Is(err, ErrUserEmailTaken) {
		t.Fatalf("expected ErrUserEmailTaken for demo email, got %v", err)
	}

	if _, err := svc.Register(ctx, "First", "dupe@example.com", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "Second", "DUPE@example.com", "pw"); !errors.Is(err, ErrUserEmailTaken) {
		t.Fatalf("expected ErrUserEmailTaken for duplicate, got %v", err)
	}
}

func TestUserRegisterValidation(t *testing.T) {
	svc, _ := newTestUserService(t)

	if _, err := svc.Register(context.Background(), "", "a@b.c", "pw"); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected ErrUserInvalidInput, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "Name", "not-an-email", "pw"); !errors.Is(err, ErrUserInvalidInput) {
		t.Fatalf("expected ErrUserInvalidInput, got %v", err)
	}
}

func TestUserSessionLifecycle(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	if _, err := svc.CurrentUser(ctx); !errors.Is(err, ErrUserNotAuthenticated) {
		t.Fatalf("expected ErrUserNotAuthenticated, got %v", err)
	}

	if _, err := svc.Login(ctx, "user@example.com", "password"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if user.ID != "1" {
		t.Fatalf("unexpected current user: %+v", user)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.CurrentUser(ctx); !errors.Is(err, ErrUserNotAuthenticated) {
		t.Fatalf("expected ErrUserNotAuthenticated after logout, got %v", err)
	}
}

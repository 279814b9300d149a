package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/kvstore"
)

// Storage keys match what the storefront always used.
const (
	registeredUsersKey = "registeredUsers"
	currentSessionKey  = "user"
)

var (
	errUserStoreRequired  = errors.New("user service: store is required")
	errUserIssuerRequired = errors.New("user service: token issuer is required")
	errUserIDGenRequired  = errors.New("user service: id generator is required")
)

// ErrUserInvalidInput indicates the caller supplied invalid input.
var ErrUserInvalidInput = errors.New("user service: invalid input")

// ErrUserInvalidCredentials indicates the email/password pair did not match.
var ErrUserInvalidCredentials = errors.New("user service: invalid credentials")

// ErrUserEmailTaken indicates the email is already registered.
var ErrUserEmailTaken = errors.New("user service: email already registered")

// ErrUserNotAuthenticated indicates no session is active.
var ErrUserNotAuthenticated = errors.New("user service: not authenticated")

// ErrUserPersist indicates account or session state could not be written back.
var ErrUserPersist = errors.New("user service: persist failed")

// SessionIssuer signs a session token for an authenticated identity.
type SessionIssuer interface {
	Issue(identity auth.Identity) (string, error)
}

// demoAccounts are the fixed accounts every deployment answers for. They are
// not stored in the credential list and cannot be re-registered.
var demoAccounts = []domain.Credential{
	{ID: "1", Name: "John Doe", Email: "user@example.com", Password: "password", Role: auth.RoleUser},
	{ID: "2", Name: "Admin User", Email: "admin@example.com", Password: "admin", Role: auth.RoleAdmin},
}

// UserServiceDeps wires the persisted store and the session token issuer.
type UserServiceDeps struct {
	Store       *kvstore.Store
	Issuer      SessionIssuer
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type userService struct {
	store  *kvstore.Store
	issuer SessionIssuer
	newID  func() string
	logger func(context.Context, string, map[string]any)

	mu sync.Mutex
}

// NewUserService constructs a UserService enforcing dependency validation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Store == nil {
		return nil, errUserStoreRequired
	}
	if deps.Issuer == nil {
		return nil, errUserIssuerRequired
	}
	if deps.IDGenerator == nil {
		return nil, errUserIDGenRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &userService{
		store:  deps.Store,
		issuer: deps.Issuer,
		newID:  deps.IDGenerator,
		logger: logger,
	}, nil
}

// Register creates an account, rejecting demo and already-registered emails,
// then opens a session for it.
func (s *userService) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = normaliseEmail(email)
	if name == "" || email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: name, email, and password are required", ErrUserInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: malformed email", ErrUserInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, demo := range demoAccounts {
		if demo.Email == email {
			return Session{}, ErrUserEmailTaken
		}
	}
	registered := kvstore.Read(s.store, registeredUsersKey, []domain.Credential{})
	for _, cred := range registered {
		if normaliseEmail(cred.Email) == email {
			return Session{}, ErrUserEmailTaken
		}
	}

	cred := domain.Credential{
		ID:       s.newID(),
		Name:     name,
		Email:    email,
		Password: password,
		Role:     auth.RoleUser,
	}
	registered = append(registered, cred)
	if !kvstore.Write(s.store, registeredUsersKey, registered) {
		return Session{}, ErrUserPersist
	}

	session, err := s.openSession(ctx, cred)
	if err != nil {
		return Session{}, err
	}
	s.logger(ctx, "users.registered", map[string]any{"user_id": cred.ID})
	return session, nil
}

// Login authenticates against the demo accounts first, then the registered list.
func (s *userService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normaliseEmail(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrUserInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.findCredential(email, password)
	if !ok {
		return Session{}, ErrUserInvalidCredentials
	}

	session, err := s.openSession(ctx, cred)
	if err != nil {
		return Session{}, err
	}
	s.logger(ctx, "users.logged_in", map[string]any{"user_id": cred.ID, "role": cred.Role})
	return session, nil
}

// Logout drops the persisted session. Logging out without one is a no-op.
func (s *userService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Remove(currentSessionKey)
	s.logger(ctx, "users.logged_out", nil)
	return nil
}

// CurrentUser returns the user behind the persisted session.
func (s *userService) CurrentUser(ctx context.Context) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := kvstore.Read(s.store, currentSessionKey, Session{})
	if session.User.ID == "" {
		return domain.User{}, ErrUserNotAuthenticated
	}
	return session.User, nil
}

func (s *userService) findCredential(email, password string) (domain.Credential, bool) {
	for _, demo := range demoAccounts {
		if demo.Email == email && demo.Password == password {
			return demo, true
		}
	}
	for _, cred := range kvstore.Read(s.store, registeredUsersKey, []domain.Credential{}) {
		if normaliseEmail(cred.Email) == email && cred.Password == password {
			return cred, true
		}
	}
	return domain.Credential{}, false
}

func (s *userService) openSession(ctx context.Context, cred domain.Credential) (Session, error) {
	user := domain.User{ID: cred.ID, Name: cred.Name, Email: cred.Email, Role: cred.Role}
	token, err := s.issuer.Issue(auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return Session{}, fmt.Errorf("user service: issue token: %w", err)
	}

	session := Session{User: user, Token: token}
	if !kvstore.Write(s.store, currentSessionKey, session) {
		return Session{}, ErrUserPersist
	}
	return session, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

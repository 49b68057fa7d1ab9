package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
)

// User is the account profile the backend returns on login and /auth/me.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

type sessionStore interface {
	Establish(ctx context.Context, token, role string) error
	Clear(ctx context.Context) error
}

type cartSyncer interface {
	SyncOnLogin(ctx context.Context)
}

// Service signs users in and out and keeps the stored session honest
// against the backend.
type Service interface {
	Login(ctx context.Context, email, password string) (*User, error)
	Register(ctx context.Context, name, email, password string) (*User, error)
	Me(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Wait()
}

type service struct {
	api      transport
	sessions sessionStore
	carts    cartSyncer
	logg     *logger.Logger

	// syncs tracks the in-flight post-login cart merge so short-lived
	// callers can join it before exiting.
	syncs sync.WaitGroup

	// syncAsync lets tests run the post-login cart sync inline.
	syncAsync bool
}

func NewService(api transport, sessions sessionStore, carts cartSyncer, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("auth service requires an api client")
	}
	if sessions == nil {
		return nil, fmt.Errorf("auth service requires a session manager")
	}
	if carts == nil {
		return nil, fmt.Errorf("auth service requires a cart syncer")
	}
	if logg == nil {
		return nil, fmt.Errorf("auth service requires a logger")
	}
	return &service{api: api, sessions: sessions, carts: carts, logg: logg, syncAsync: true}, nil
}

type authResponse struct {
	Status   string `json:"status"`
	Token    string `json:"token"`
	Role     string `json:"role"`
	UserName string `json:"userName"`
	Data     struct {
		User *User `json:"user"`
	} `json:"data"`
}

type meEnvelope struct {
	Data struct {
		User *User `json:"user"`
	} `json:"data"`
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}
	body := map[string]string{"email": email, "password": password}
	return s.authenticate(ctx, "/auth/login", body, "")
}

func (s *service) Register(ctx context.Context, name, email, password string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	return s.authenticate(ctx, "/auth/register", body, name)
}

// authenticate posts credentials, establishes the session, and kicks off the
// guest-cart merge. The merge never blocks the login result.
func (s *service) authenticate(ctx context.Context, path string, body map[string]string, fallbackName string) (*User, error) {
	var resp authResponse
	if err := s.api.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" || resp.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication failed")
	}
	user := resp.Data.User
	if user == nil {
		name := resp.UserName
		if name == "" {
			name = fallbackName
		}
		user = &User{Name: name, Role: resp.Role}
	}
	if user.Role == "" {
		user.Role = resp.Role
	}
	if err := s.sessions.Establish(ctx, resp.Token, user.Role); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "session could not be stored")
	}
	s.logg.Info(s.logg.WithRole(ctx, user.Role), "signed in")

	if s.syncAsync {
		s.syncs.Add(1)
		go func(ctx context.Context) {
			defer s.syncs.Done()
			s.carts.SyncOnLogin(ctx)
		}(context.WithoutCancel(ctx))
	} else {
		s.carts.SyncOnLogin(ctx)
	}
	return user, nil
}

// Wait blocks until any in-flight post-login cart merge has finished.
// A process that exits right after Login must call this first, or the
// merge dies with it.
func (s *service) Wait() {
	s.syncs.Wait()
}

// Me verifies the stored token against the backend. A rejected token clears
// the local session so the app drops back to guest mode.
func (s *service) Me(ctx context.Context) (*User, error) {
	var env meEnvelope
	if err := s.api.Get(ctx, "/auth/me", &env); err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeUnauthorized {
			if clearErr := s.sessions.Clear(ctx); clearErr != nil {
				s.logg.Error(ctx, "clearing rejected session", clearErr)
			}
		}
		return nil, err
	}
	if env.Data.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile missing from response")
	}
	return env.Data.User, nil
}

func (s *service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	body := map[string]string{"email": email}
	return s.api.Post(ctx, "/auth/forgot-password", body, nil)
}

func (s *service) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reset token is required")
	}
	if password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	body := map[string]string{"password": password}
	return s.api.Post(ctx, "/auth/reset-password/"+token, body, nil)
}

func requireCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	return nil
}

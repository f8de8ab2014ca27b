// Package service holds the business rules.
//
// The services sit between the HTTP handlers and the repositories:
//
//	AuthHandler (HTTP) → AuthService (identity rules) → UserRepository
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//	TodoHandler (HTTP) → TodoService (ownership rules) → TodoRepository
//
// Nothing here reads a request or writes a cookie. Every method that acts on
// behalf of a caller takes the caller's model.Identity as an argument; there
// is no ambient "current user".
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

// dummyPassword is hashed once at startup. Logins for unknown emails are
// compared against it so they cost one bcrypt comparison, just like logins
// with a wrong password.
const dummyPassword = "todolist-timing-equalizer"

// AuthService registers users, checks credentials and resolves session tokens.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → sign/verify JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	logger      *slog.Logger
	dummyDigest string
}

// NewAuthService wires an AuthService. It hashes the timing-equalizer
// password once, so construction costs one bcrypt round.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	digest, err := passwords.Hash(dummyPassword)
	if err != nil {
		// Cannot happen for a short constant; Verify against "" still fails
		// closed.
		logger.Error("hashing dummy password", slog.String("error", err.Error()))
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		logger:      logger,
		dummyDigest: digest,
	}
}

// AuthResult bundles the signed-in user and the token the handler must put
// in the session cookie.
type AuthResult struct {
	User  *model.UserSummary
	Token string
}

// Register creates an account and returns its public summary.
//
// RULES:
//   - name, email and password are required (after trimming name/email)
//   - the password must fit bcrypt's 72-byte input limit
//   - an existing email is a Conflict; the lookup is a fast path, and the
//     store's unique index is the real guarantee under concurrent requests
//
// Email is stored exactly as given (case preserved) and compared exactly.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.UserSummary, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("user", "email")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	digest, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordDigest: digest}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user.Summary(), nil
}

// Authenticate checks email and password and issues a session token.
//
// Unknown email and wrong password both return apperror.InvalidCredentials
// with the same message, after the same amount of bcrypt work.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.Verify(s.dummyDigest, password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordDigest, password); err != nil {
		s.logger.Info("login failed", slog.String("userID", user.ID))
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user.Summary(), Token: token}, nil
}

// Resolve maps a session token to an Identity. It never fails: a bad,
// expired or forged token, a deleted user, or a store outage all give
// model.Anonymous.
//
// AuthService satisfies auth.Resolver through this method.
func (s *AuthService) Resolve(ctx context.Context, token string) model.Identity {
	if token == "" {
		return model.Anonymous
	}

	userID, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug("session token rejected", slog.String("error", err.Error()))
		return model.Anonymous
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("resolving session user", slog.String("userID", userID), slog.String("error", err.Error()))
		}
		return model.Anonymous
	}

	return model.Identity{UserID: userID}
}

// Whoami returns the caller's profile. ok is false for anonymous callers
// and whenever the lookup fails.
func (s *AuthService) Whoami(ctx context.Context, id model.Identity) (*model.UserSummary, bool) {
	if !id.Authenticated() {
		return nil, false
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, false
	}
	return user.Summary(), true
}

var _ auth.Resolver = (*AuthService)(nil)

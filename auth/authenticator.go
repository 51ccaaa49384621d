package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/coreybb/taskboard/models"
)

var (
	// ErrUnauthorized is returned when a request cannot be tied to an
	// existing user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned by Login for an unknown username or
	// a wrong password. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserLookup is the part of the credential store the authenticator needs.
// Implementations wrap sql.ErrNoRows when the username does not exist.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authenticator resolves bearer tokens and credentials into users.
type Authenticator struct {
	tokens *TokenService
	users  UserLookup
	check  func(hash, password string) error
}

// NewAuthenticator wires a token service, a user lookup and a password
// checker (normally webutil.CheckPassword).
func NewAuthenticator(tokens *TokenService, users UserLookup, check func(hash, password string) error) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, check: check}
}

// Authenticate verifies token and returns the user it names.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}

	username, err := a.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %q no longer exists", ErrUnauthorized, username)
		}
		return nil, fmt.Errorf("failed to resolve user %q: %w", username, err)
	}
	return user, nil
}

// Login checks a username/password pair and issues a token for it.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	if err := a.check(user.HashedPassword, password); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	token, err := a.tokens.Issue(user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// TokenLifetimeSeconds reports how long issued tokens stay valid.
func (a *Authenticator) TokenLifetimeSeconds() int {
	return int(a.tokens.Lifetime().Seconds())
}

// BearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

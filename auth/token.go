package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, expiry, malformed input or a missing username claim.
var ErrInvalidToken = errors.New("invalid token")

// TokenConfig is the immutable signing configuration of a TokenService.
type TokenConfig struct {
	Secret    []byte
	Algorithm string        // HS256, HS384 or HS512
	Lifetime  time.Duration // Added to the issue time to form "exp"
	Now       func() time.Time
}

// Claims carried by an access token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC-signed access tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService validates cfg and returns a TokenService bound to it.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("token secret cannot be empty")
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q: must be one of HS256, HS384, HS512", cfg.Algorithm)
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", cfg.Lifetime)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenService{
		secret:   secret,
		method:   method,
		lifetime: cfg.Lifetime,
		now:      func() time.Time { return now().UTC() },
	}, nil
}

// Lifetime returns the configured validity window of issued tokens.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue returns a signed token for username that expires after the
// configured lifetime.
func (s *TokenService) Issue(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("cannot issue token for empty username")
	}

	now := s.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the username claim.
func (s *TokenService) Verify(tokenString string) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Username == "" {
		return "", fmt.Errorf("%w: missing username claim", ErrInvalidToken)
	}
	return claims.Username, nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
)

// Errors returned when a token does not verify.
var (
	ErrMissingSecret = errors.New("signing secret is empty")
	ErrInvalidToken  = errors.New("invalid token")
)

const (
	audienceSession = "briefcast-api"
	audienceState   = "briefcast-oauth-state"

	// DefaultStateTTL bounds how long a consent flow may take.
	DefaultStateTTL = 10 * time.Minute
)

// Verify interface compliance at compile time.
var _ driven.StateCodec = (*Signer)(nil)

// Signer issues and verifies HS256 tokens with a shared secret.
type Signer struct {
	secret   []byte
	issuer   string
	stateTTL time.Duration
	now      func() time.Time
}

// NewSigner creates a signer. The secret must not be empty.
func NewSigner(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if issuer == "" {
		issuer = "briefcast"
	}
	return &Signer{
		secret:   []byte(secret),
		issuer:   issuer,
		stateTTL: DefaultStateTTL,
		now:      time.Now,
	}, nil
}

// stateClaims carries the provider alongside the registered claims.
type stateClaims struct {
	jwt.RegisteredClaims
	Provider string `json:"prv"`
}

// IssueSession returns a bearer token whose subject is userID.
func (s *Signer) IssueSession(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", domain.ErrInvalidInput)
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:   s.issuer,
		Subject:  userID,
		Audience: jwt.ClaimStrings{audienceSession},
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifySession checks a bearer token and returns its subject.
func (s *Signer) VerifySession(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(token, &claims, audienceSession); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Encode signs an expiring state for a consent flow.
func (s *Signer) Encode(userID string, provider domain.Provider) (string, error) {
	now := s.now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audienceState},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateTTL)),
		},
		Provider: string(provider),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Decode verifies a state and returns the user and provider it was issued for.
func (s *Signer) Decode(state string) (string, domain.Provider, error) {
	var claims stateClaims
	if err := s.parse(state, &claims, audienceState); err != nil {
		return "", "", err
	}
	provider := domain.Provider(claims.Provider)
	if claims.Subject == "" || !provider.Valid() {
		return "", "", fmt.Errorf("%w: incomplete state", ErrInvalidToken)
	}
	return claims.Subject, provider, nil
}

func (s *Signer) parse(token string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}

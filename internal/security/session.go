package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the absolute lifetime of a session token.
const DefaultSessionTTL = 12 * time.Hour

// SessionConfig is fixed at startup. Changing Secret invalidates every outstanding token.
type SessionConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims is the identity carried by a session token.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type sessionClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionTokenService issues and verifies HS256 session tokens.
type SessionTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  Clock
}

func NewSessionTokenService(cfg SessionConfig, clock Clock) *SessionTokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if clock == nil {
		clock = SystemClock
	}
	return &SessionTokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		clock:  clock,
	}
}

// Issue signs a token for userID and role that expires TTL after now.
func (s *SessionTokenService) Issue(ctx context.Context, userID, role string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret is empty", ErrSigning)
	}

	now := s.clock.Now()
	claims := sessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (s *SessionTokenService) Verify(ctx context.Context, token string) (Claims, error) {
	if err := ctx.Err(); err != nil {
		return Claims{}, err
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		default:
			return Claims{}, ErrTokenInvalid
		}
	}
	if !parsed.Valid || claims.UserID == "" {
		return Claims{}, ErrTokenInvalid
	}
	return Claims{UserID: claims.UserID, Role: claims.Role}, nil
}

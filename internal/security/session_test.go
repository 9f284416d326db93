package security

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(clock Clock) *SessionTokenService {
	return NewSessionTokenService(SessionConfig{Secret: "test-secret", Issuer: "account-service"}, clock)
}

func TestSessionTokenService_IssueVerifyRoundTrip(t *testing.T) {
	clock := &FixedClock{T: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTestSessions(clock)

	tok, err := svc.Issue(context.Background(), "64b7f0c2a1b2c3d4e5f60718", "seller")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := svc.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.UserID)
	assert.Equal(t, "seller", claims.Role)
}

func TestSessionTokenService_ExpiresAfterTwelveHours(t *testing.T) {
	clock := &FixedClock{T: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	svc := newTestSessions(clock)

	tok, err := svc.Issue(context.Background(), "u1", "user")
	require.NoError(t, err)

	clock.Advance(12*time.Hour - time.Second)
	_, err = svc.Verify(context.Background(), tok)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = svc.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionTokenService_DistinctFailures(t *testing.T) {
	clock := &FixedClock{T: time.Now()}
	svc := newTestSessions(clock)
	other := NewSessionTokenService(SessionConfig{Secret: "another-secret"}, clock)

	foreign, err := other.Issue(context.Background(), "u1", "user")
	require.NoError(t, err)

	valid, err := svc.Issue(context.Background(), "u1", "user")
	require.NoError(t, err)
	elevated, err := svc.Issue(context.Background(), "u1", "admin")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + strings.Split(elevated, ".")[1] + "." + parts[2]

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "u1",
		"exp":    clock.T.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "garbage", token: "not-a-jwt", want: ErrTokenMalformed},
		{name: "empty", token: "", want: ErrTokenMalformed},
		{name: "wrong secret", token: foreign, want: ErrTokenInvalid},
		{name: "swapped payload", token: tampered, want: ErrTokenInvalid},
		{name: "two segments", token: parts[0] + "." + parts[1], want: ErrTokenMalformed},
		{name: "alg none", token: noneAlg, want: ErrTokenInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSessionTokenService_EmptySecretIsSigningError(t *testing.T) {
	svc := NewSessionTokenService(SessionConfig{}, nil)

	_, err := svc.Issue(context.Background(), "u1", "user")
	assert.ErrorIs(t, err, ErrSigning)
}

func TestSessionTokenService_SecretRotationInvalidates(t *testing.T) {
	clock := &FixedClock{T: time.Now()}
	before := NewSessionTokenService(SessionConfig{Secret: "k1"}, clock)
	after := NewSessionTokenService(SessionConfig{Secret: "k2"}, clock)

	tok, err := before.Issue(context.Background(), "u1", "user")
	require.NoError(t, err)

	_, err = after.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionTokenService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSessions(nil).Issue(ctx, "u1", "user")
	assert.ErrorIs(t, err, context.Canceled)
}

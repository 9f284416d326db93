package security

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

const (
	// ResetTokenBytes is the entropy of a reset token before hex encoding.
	ResetTokenBytes = 32
	// ResetTokenTTL is how long a reset token stays valid.
	ResetTokenTTL = time.Hour
)

// ResetTokenIssuer creates and checks single-use password reset tokens.
type ResetTokenIssuer struct {
	random RandomSource
}

// NewResetTokenIssuer uses SecureRandom when random is nil.
func NewResetTokenIssuer(random RandomSource) *ResetTokenIssuer {
	if random == nil {
		random = SecureRandom
	}
	return &ResetTokenIssuer{random: random}
}

// Issue returns 64 hex characters of fresh randomness.
func (i *ResetTokenIssuer) Issue() (string, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := io.ReadFull(i.random, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandom, err)
	}
	return hex.EncodeToString(buf), nil
}

// ExpiryFrom returns the instant a token issued at now stops being valid.
func (i *ResetTokenIssuer) ExpiryFrom(now time.Time) time.Time {
	return now.Add(ResetTokenTTL)
}

// Validate is true iff a token is stored, candidate equals it, and now is before expiry.
func (i *ResetTokenIssuer) Validate(candidate string, stored *string, expiry *time.Time, now time.Time) bool {
	if stored == nil || expiry == nil {
		return false
	}
	match := subtle.ConstantTimeCompare([]byte(candidate), []byte(*stored)) == 1
	return match && now.Before(*expiry)
}

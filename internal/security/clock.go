package security

import (
	"crypto/rand"
	"io"
	"time"
)

// Clock supplies the current time for expiry computation and checks.
type Clock interface {
	Now() time.Time
}

// RandomSource is a cryptographically secure byte generator.
type RandomSource = io.Reader

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// SecureRandom is the operating system CSPRNG.
var SecureRandom RandomSource = rand.Reader

// FixedClock always reports the same instant.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

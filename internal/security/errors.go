package security

import "errors"

var (
	ErrHashFormat     = errors.New("stored password hash is malformed")
	ErrSigning        = errors.New("session token signing failed")
	ErrTokenExpired   = errors.New("session token has expired")
	ErrTokenInvalid   = errors.New("session token is invalid")
	ErrTokenMalformed = errors.New("session token is malformed")
	ErrRandom         = errors.New("random source failed")
)

package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is the umbrella verification failure. Guards only ever
// test against this one; the wrapped sentinels below exist for callers
// that need to tell an expired credential from a forged one.
var ErrInvalidToken = errors.New("auth: invalid token")

var (
	ErrTokenExpired         = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenMalformed       = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrBadSignature         = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported signing algorithm", ErrInvalidToken)
)

// ErrMissingSubject indicates issuance was attempted without a subject id.
var ErrMissingSubject = errors.New("auth: subject id is required")

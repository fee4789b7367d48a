package auth

import (
	"errors"
	"strings"
)

var (
	ErrMissingToken    = errors.New("token is missing")
	ErrMalformedHeader = errors.New("invalid token format")
)

// Principal is the authenticated identity for one operation, rebuilt from
// token claims on every request. It is never re-read from the store, so a
// role change only takes effect once the token is reissued.
type Principal struct {
	UserID   string
	Username string
	Role     string
}

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Authenticate parses an Authorization header and yields the Principal it
// proves, or a typed rejection. The header must be exactly two
// space-separated parts with a case-insensitive "bearer" scheme. Token
// errors pass through unchanged. No store lookup happens here.
func Authenticate(verifier TokenVerifier, rawHeader string) (Principal, error) {
	if rawHeader == "" {
		return Principal{}, ErrMissingToken
	}

	parts := strings.Fields(rawHeader)

	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return Principal{}, ErrMalformedHeader
	}

	claims, err := verifier.Verify(parts[1])

	if err != nil {
		return Principal{}, err
	}

	return Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IsTokenExpired reports whether a bearer token's exp claim is in the
// past. The decode is unverified: the client has no signing keys and
// only needs the expiry. Every failure mode, empty input, malformed
// segments, a missing or unreadable exp claim, reports expired. A token
// we cannot read is a token we do not trust.
func IsTokenExpired(token string) bool {
	return isTokenExpiredAt(token, time.Now())
}

func isTokenExpiredAt(token string, now time.Time) bool {
	if token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !exp.Time.After(now)
}

package authclient

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeEmailNotVerified marks the sentinel callers branch on to
	// show a verification prompt instead of a generic auth failure.
	TextCodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	// TextCodeTokenExpired marks a stale or purged session.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeResetTokenInvalid marks an invalid or expired password reset token.
	TextCodeResetTokenInvalid = "RESET_TOKEN_INVALID"
	// TextCodeRateLimited marks server-enforced throttling.
	TextCodeRateLimited = "RATE_LIMITED"
)

// ErrEmailNotVerified is returned by Login when the server rejects the
// account because the email was never verified.
var ErrEmailNotVerified = goerrors.New("please verify your email address before signing in", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrSessionExpired is surfaced whenever a stored token turns out to be stale.
var ErrSessionExpired = goerrors.New("your session has expired, please sign in again", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrKeyNotFound is returned by Storage implementations for absent keys.
var ErrKeyNotFound = goerrors.New("storage key not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// IsEmailNotVerified reports whether err carries the verification sentinel.
func IsEmailNotVerified(err error) bool {
	return hasTextCode(err, TextCodeEmailNotVerified)
}

// IsRateLimited reports whether err was a server throttle response.
func IsRateLimited(err error) bool {
	return hasTextCode(err, TextCodeRateLimited)
}

// IsKeyNotFound reports whether err means a storage key was absent.
func IsKeyNotFound(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryNotFound
	}
	return false
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// transportError wraps network-level failures into the generic
// "cannot connect" message the UI renders for unreachable servers.
func transportError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation,
		"unable to reach the server, check your connection and try again")
}

// loginStatusError maps a non-2xx login response to a user-facing error.
// The server's own message wins for 400/401/403/404 when present.
func loginStatusError(status int, serverMessage string) *goerrors.Error {
	prefer := func(def string) string {
		if serverMessage != "" {
			return serverMessage
		}
		return def
	}

	switch status {
	case 400:
		return goerrors.New(prefer("invalid email or password format"), goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	case 401:
		return goerrors.New(prefer("incorrect email or password"), goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	case 403:
		return goerrors.New(prefer("your account is not allowed to access this service"), goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden)
	case 404:
		return goerrors.New(prefer("no account found with that email"), goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	case 429:
		return goerrors.New("too many attempts, please wait a moment and try again", goerrors.CategoryRateLimit).
			WithTextCode(TextCodeRateLimited)
	case 500:
		return goerrors.New("the server encountered an error, please try again later", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	default:
		return goerrors.New("sign in failed, please try again", goerrors.CategoryAuth)
	}
}

// resetStatusError maps password reset request failures; the reset flow
// never echoes raw server text, the canned guidance is more actionable.
func resetStatusError(status int) *goerrors.Error {
	switch status {
	case 404:
		return goerrors.New("no account found with that email", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	case 429:
		return goerrors.New("too many reset requests, please wait before trying again", goerrors.CategoryRateLimit).
			WithTextCode(TextCodeRateLimited)
	case 500:
		return goerrors.New("the server encountered an error, please try again later", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	default:
		return goerrors.New("could not request a password reset, please try again", goerrors.CategoryOperation)
	}
}

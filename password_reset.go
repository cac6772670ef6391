package authclient

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// RequestPasswordReset asks the server to mail a reset token. The email
// is validated locally first; an empty or malformed address never
// reaches the network.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	c.beginOperation()
	defer c.session.setLoading(false)

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return c.failOperation(goerrors.New("please enter a valid email address", goerrors.CategoryValidation))
	}

	status, _, err := c.postJSON(ctx, sendOTPPath, map[string]string{"email": email}, "")
	if err != nil {
		return c.failOperation(transportError(err))
	}

	if status < 200 || status > 299 {
		return c.failOperation(resetStatusError(status))
	}

	return nil
}

// VerifyResetToken checks a reset token with the server before the UI
// shows the new-password form.
func (c *Client) VerifyResetToken(ctx context.Context, token string) error {
	c.beginOperation()
	defer c.session.setLoading(false)

	if token == "" {
		return c.failOperation(resetTokenInvalidError())
	}

	status, _, err := c.postJSON(ctx, verifyTokenPath, map[string]string{"token": token}, "")
	if err != nil {
		return c.failOperation(transportError(err))
	}

	if status < 200 || status > 299 {
		return c.failOperation(resetTokenInvalidError())
	}

	return nil
}

// ResetPassword completes the reset flow. Equality and minimum-length
// checks run locally; server failures are re-mapped into longer,
// user-actionable guidance because the raw server message is too terse
// for a reset form.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	c.beginOperation()
	defer c.session.setLoading(false)

	payload := ResetPasswordRequest{
		Token:           token,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	}

	if newPassword != confirmPassword {
		return c.failOperation(resetMismatchError())
	}

	if err := payload.Validate(); err != nil {
		return c.failOperation(goerrors.Wrap(err, goerrors.CategoryValidation,
			"your new password must be at least 8 characters long"))
	}

	body := map[string]string{
		"token":            token,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	}

	status, raw, err := c.postJSON(ctx, resetPasswordPath, body, "")
	if err != nil {
		return c.failOperation(transportError(err))
	}

	if status < 200 || status > 299 {
		return c.failOperation(remapResetFailure(status, decodeErrorEnvelope(raw)))
	}

	return nil
}

func resetMismatchError() *goerrors.Error {
	return goerrors.New(
		"the two passwords you entered do not match, please retype them and try again",
		goerrors.CategoryValidation)
}

func resetTokenInvalidError() *goerrors.Error {
	return goerrors.New(
		"this password reset link is invalid or has expired, please request a new one",
		goerrors.CategoryValidation).
		WithTextCode(TextCodeResetTokenInvalid)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// remapResetFailure distinguishes the three outcomes a reset form cares
// about: mismatch, invalid or expired token, and everything else.
func remapResetFailure(status int, env errorEnvelope) *goerrors.Error {
	msg := env.bestMessage()

	switch {
	case containsFold(msg, "match"):
		return resetMismatchError()
	case containsFold(msg, "token"), containsFold(msg, "expired"), status == 404, status == 410:
		return resetTokenInvalidError()
	default:
		return goerrors.New(
			"we could not update your password, please try again or request a new reset link",
			goerrors.CategoryOperation).
			WithMetadata(map[string]any{"status": status})
	}
}

package authclient

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// ResendVerificationEmail asks the server to send a fresh verification
// email. With an empty email it falls back to the current session's
// user. The client records when the last send happened but does not
// enforce the cooldown; callers gate on CanResendVerificationEmail.
func (c *Client) ResendVerificationEmail(ctx context.Context, email string) error {
	c.beginOperation()
	defer c.session.setLoading(false)

	if email == "" {
		if user := c.session.GetUser(); user != nil {
			email = user.Email
		}
	}

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return c.failOperation(goerrors.New("no email address to send the verification to", goerrors.CategoryValidation))
	}

	status, body, err := c.postJSON(ctx, sendOTPPath, map[string]string{"email": email}, "")
	if err != nil {
		return c.failOperation(transportError(err))
	}

	if status < 200 || status > 299 {
		env := decodeErrorEnvelope(body)
		if status == 429 {
			return c.failOperation(goerrors.New("please wait before requesting another verification email", goerrors.CategoryRateLimit).
				WithTextCode(TextCodeRateLimited))
		}
		if msg := env.bestMessage(); msg != "" {
			return c.failOperation(goerrors.New(msg, goerrors.CategoryOperation))
		}
		return c.failOperation(goerrors.New("could not send the verification email, please try again", goerrors.CategoryOperation))
	}

	c.resendMu.Lock()
	c.lastResendAt = c.now()
	c.resendMu.Unlock()

	return nil
}

// CanResendVerificationEmail reports whether the cooldown since the
// last send has elapsed, and if not, how long remains.
func (c *Client) CanResendVerificationEmail() (bool, time.Duration) {
	c.resendMu.Lock()
	defer c.resendMu.Unlock()

	if c.lastResendAt.IsZero() || c.resendCooldown <= 0 {
		return true, 0
	}

	elapsed := c.now().Sub(c.lastResendAt)
	if elapsed >= c.resendCooldown {
		return true, 0
	}

	return false, c.resendCooldown - elapsed
}

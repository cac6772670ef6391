// Package middleware provides role gated routing on top of the
// go-router abstraction, so the guard runs unchanged under any of its
// adapters.
package middleware

import (
	"net/http"
	"time"

	"github.com/goliatone/go-router"
	authclient "github.com/hemolink/go-auth-client"
)

// RouteGuard decides, per navigation attempt, whether a protected route
// renders or redirects. Decisions are evaluated synchronously against
// the current session state; terminal outcomes are "rendered" and
// "redirected", the guard never retries.
//
// The role-home redirect relies on a deployment contract: the home
// route of every role must itself be guarded with a set that includes
// that role, otherwise redirects can loop.
type RouteGuard struct {
	client *authclient.Client
	cfg    authclient.Config
	logger authclient.Logger
}

// GuardOption configures a RouteGuard.
type GuardOption func(*RouteGuard)

// WithGuardLogger overrides the guard logger.
func WithGuardLogger(logger authclient.Logger) GuardOption {
	return func(g *RouteGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewRouteGuard builds a guard around the client whose session it gates.
func NewRouteGuard(client *authclient.Client, cfg authclient.Config, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		client: client,
		cfg:    cfg,
		logger: authclient.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Protected returns middleware admitting only the allowed roles.
// requireVerified additionally gates unverified donors; staff and admin
// are categorically exempt from the verification gate regardless of
// their own flag. That asymmetry is deliberate.
func (g *RouteGuard) Protected(allowed []authclient.UserRole, requireVerified bool) router.MiddlewareFunc {
	allowedSet := make(map[authclient.UserRole]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			// Proactive expiry check; a stale token funnels through the
			// client's expiration chokepoint before we read state.
			g.client.CheckSession(c.Context())

			session := g.client.Session()
			user := session.GetUser()

			if user == nil || !session.IsAuthenticated() {
				g.setRedirect(c)
				return g.redirect(c, g.cfg.GetLoginRoute())
			}

			if !allowedSet[user.Role] {
				g.logger.Info("role %s not allowed on %s, redirecting home", user.Role, c.OriginalURL())
				return g.redirect(c, user.Role.HomeRoute())
			}

			if requireVerified && !user.Role.IsPrivileged() && !user.IsEmailVerified {
				g.logger.Info("unverified %s blocked on %s, forcing logout", user.Role, c.OriginalURL())
				g.client.ForceLogout(c.Context())
				return g.redirect(c, g.cfg.GetLoginRoute()+"?"+g.cfg.GetVerificationFlag()+"=required")
			}

			return c.Next()
		}
	}
}

// setRedirect preserves the originally requested location so a
// successful login can return to it.
func (g *RouteGuard) setRedirect(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     g.cfg.GetRejectedRouteKey(),
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect pops the preserved location, falling back to the
// configured default.
func (g *RouteGuard) GetRedirect(c router.Context) string {
	key := g.cfg.GetRejectedRouteKey()
	target := c.Cookies(key)
	if target == "" {
		return g.cfg.GetRejectedRouteDefault()
	}

	c.Cookie(&router.Cookie{
		Name:     key,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	return target
}

func (g *RouteGuard) redirect(c router.Context, target string) error {
	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(target, statusCode)
}

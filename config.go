package authclient

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// EnvConfig is the environment-driven Config implementation. Every
// field has a sensible default so a zero environment still works
// against a local API.
type EnvConfig struct {
	BaseURL               string `env:"HEMOLINK_API_BASE_URL" envDefault:"http://localhost:8000"`
	LoginRoute            string `env:"HEMOLINK_LOGIN_ROUTE" envDefault:"/login"`
	VerificationFlag      string `env:"HEMOLINK_VERIFICATION_FLAG" envDefault:"verification"`
	RejectedRouteKey      string `env:"HEMOLINK_REJECTED_ROUTE_KEY" envDefault:"redirect_to"`
	RejectedRouteDefault  string `env:"HEMOLINK_REJECTED_ROUTE_DEFAULT" envDefault:"/"`
	ResendCooldownSeconds int    `env:"HEMOLINK_RESEND_COOLDOWN_SECONDS" envDefault:"60"`
	HTTPTimeoutSeconds    int    `env:"HEMOLINK_HTTP_TIMEOUT_SECONDS" envDefault:"15"`
}

// NewConfigFromEnv parses configuration from process environment.
func NewConfigFromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse environment configuration")
	}
	return cfg, nil
}

func (c *EnvConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c *EnvConfig) GetLoginRoute() string {
	return c.LoginRoute
}

func (c *EnvConfig) GetVerificationFlag() string {
	return c.VerificationFlag
}

func (c *EnvConfig) GetRejectedRouteKey() string {
	return c.RejectedRouteKey
}

func (c *EnvConfig) GetRejectedRouteDefault() string {
	return c.RejectedRouteDefault
}

func (c *EnvConfig) GetResendCooldown() time.Duration {
	return time.Duration(c.ResendCooldownSeconds) * time.Second
}

func (c *EnvConfig) GetHTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

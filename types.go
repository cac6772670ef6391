package authclient

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetLoginRoute() string
	GetVerificationFlag() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
	GetResendCooldown() time.Duration
	GetHTTPTimeout() time.Duration
}

// Storage is the durable key value store session state survives in.
// Implementations must return ErrKeyNotFound for missing keys and keep
// Delete idempotent: deleting an absent key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// SessionListener receives every session state change. A newly
// registered listener is replayed the current state immediately.
type SessionListener func(user *User, authenticated bool)

// DefaultLogger returns the printf fallback logger used when no Logger
// is injected.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

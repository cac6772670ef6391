package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

const (
	loginPath         = "/api/users/login/"
	signupPath        = "/api/users/signup/"
	logoutPath        = "/api/users/logout/"
	sendOTPPath       = "/api/verify/send-otp/"
	verifyTokenPath   = "/api/verify/token/"
	resetPasswordPath = "/api/verify/reset-password/"
)

// Client performs the credential operations against the platform API
// and keeps the SessionStore and durable storage in sync. Operations do
// not retry and do not reject concurrent calls; overlapping calls race
// and the last response to settle wins.
type Client struct {
	baseURL string
	http    *http.Client
	cfg     Config
	session *SessionStore
	storage Storage
	logger  Logger
	now     func() time.Time
	debug   bool

	onSessionExpired func()

	resendMu       sync.Mutex
	lastResendAt   time.Time
	resendCooldown time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the client logger.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithSessionExpiredHandler registers the hook invoked after a stale
// token is purged. Hosts use it to navigate to the login route; the
// client itself performs no navigation.
func WithSessionExpiredHandler(fn func()) ClientOption {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// WithDebug enables payload dumps on the Debug log level.
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient wires a Client to the session store it mutates. The durable
// storage is shared with the store.
func NewClient(cfg Config, session *SessionStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.GetBaseURL(), "/"),
		http:           &http.Client{Timeout: cfg.GetHTTPTimeout()},
		cfg:            cfg,
		session:        session,
		storage:        session.storage,
		logger:         defLogger{},
		now:            time.Now,
		resendCooldown: cfg.GetResendCooldown(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Session exposes the store the client mutates.
func (c *Client) Session() *SessionStore {
	return c.session
}

// Login posts credentials and, on success, persists the token and user
// and flips the session to authenticated. The EMAIL_NOT_VERIFIED server
// response surfaces as ErrEmailNotVerified so callers can branch to a
// verification prompt.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	c.beginOperation()
	defer c.session.setLoading(false)

	payload := LoginRequest{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return nil, c.failOperation(goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login credentials"))
	}

	status, body, err := c.postJSON(ctx, loginPath, payload, "")
	if err != nil {
		return nil, c.failOperation(transportError(err))
	}

	if status < 200 || status > 299 {
		env := decodeErrorEnvelope(body)
		if env.hasCode(TextCodeEmailNotVerified) {
			return nil, c.failOperation(ErrEmailNotVerified)
		}
		return nil, c.failOperation(loginStatusError(status, env.bestMessage()))
	}

	var result struct {
		Token        string   `json:"token"`
		RefreshToken string   `json:"refresh_token"`
		User         wireUser `json:"user"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.Token == "" {
		return nil, c.failOperation(goerrors.New("unexpected response from server, please try again", goerrors.CategoryInternal))
	}

	user, err := userFromWire(result.User)
	if err != nil {
		return nil, c.failOperation(err)
	}

	if c.debug {
		c.logger.Debug("login accepted for %s: %s", user.Email, print.MaybePrettyJSON(user))
	}

	c.persistSession(ctx, result.Token, result.RefreshToken, user)
	c.session.setUser(user)
	c.session.setAuthenticated(true)

	return user, nil
}

// Register posts the signup payload. A successful registration does not
// authenticate the caller, verification has to happen first.
func (c *Client) Register(ctx context.Context, payload RegisterRequest) error {
	c.beginOperation()
	defer c.session.setLoading(false)

	if err := payload.Validate(); err != nil {
		return c.failOperation(goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration data"))
	}

	status, body, err := c.postJSON(ctx, signupPath, payload, "")
	if err != nil {
		return c.failOperation(transportError(err))
	}

	if status < 200 || status > 299 {
		return c.failOperation(registrationError(status, decodeErrorEnvelope(body)))
	}

	return nil
}

// Logout best-effort notifies the server, then clears local state and
// storage no matter what the network did. Logout is a local guarantee.
func (c *Client) Logout(ctx context.Context) error {
	c.beginOperation()
	defer c.session.setLoading(false)

	token, err := readAliased(ctx, c.storage, StorageKeyToken, legacyKeyToken)
	if err == nil && token != "" {
		refresh, _ := c.storage.Get(ctx, StorageKeyRefreshToken)
		body := map[string]string{"refresh_token": refresh}
		if _, _, err := c.postJSON(ctx, logoutPath, body, token); err != nil {
			c.logger.Warn("server logout notification failed: %v", err)
		}
	}

	if err := purgeSession(ctx, c.storage); err != nil {
		c.logger.Warn("logout purge failed: %v", err)
	}
	c.session.clearAuth()

	return nil
}

// CheckSession is the proactive half of the expiration chokepoint: it
// inspects the stored token and funnels a stale one through
// HandleTokenExpiration. Returns true when a usable session exists.
func (c *Client) CheckSession(ctx context.Context) bool {
	token, err := readAliased(ctx, c.storage, StorageKeyToken, legacyKeyToken)
	if err != nil {
		if c.session.IsAuthenticated() {
			// Storage lost the token under us, self-heal.
			c.HandleTokenExpiration(ctx)
		}
		return false
	}

	if isTokenExpiredAt(token, c.now()) {
		c.HandleTokenExpiration(ctx)
		return false
	}

	return true
}

// HandleTokenExpiration is the single chokepoint every stale-token
// discovery funnels through: purge all stored session keys, reset the
// session store, surface a user visible message, and hand navigation to
// the host via the session-expired hook.
func (c *Client) HandleTokenExpiration(ctx context.Context) {
	c.ForceLogout(ctx)
	c.session.setError(ErrSessionExpired.Message)

	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// ForceLogout clears local session state without notifying the server.
func (c *Client) ForceLogout(ctx context.Context) {
	if err := purgeSession(ctx, c.storage); err != nil {
		c.logger.Warn("forced logout purge failed: %v", err)
	}
	c.session.clearAuth()
}

func (c *Client) beginOperation() {
	c.session.setLoading(true)
	c.session.ClearError()
}

// failOperation records the failure on the session store and passes the
// error through to the caller.
func (c *Client) failOperation(err error) error {
	message := err.Error()
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		message = rich.Message
	}

	c.session.setError(message)
	return err
}

func (c *Client) persistSession(ctx context.Context, token, refresh string, user *User) {
	raw, err := json.Marshal(user)
	if err != nil {
		c.logger.Error("failed to serialize user for storage: %v", err)
		return
	}

	writes := map[string]string{
		StorageKeyToken:         token,
		StorageKeyUser:          string(raw),
		StorageKeySchemaVersion: storageSchemaVersion,
	}
	if refresh != "" {
		writes[StorageKeyRefreshToken] = refresh
	}

	for key, value := range writes {
		if err := c.storage.Set(ctx, key, value); err != nil {
			c.logger.Warn("failed to persist %s: %v", key, err)
		}
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, bearer string) (int, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	if c.debug {
		c.logger.Debug("POST %s request_id=%s", path, requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, body, nil
}

// errorEnvelope is the loose error shape the API returns. Every field
// is optional, decoding never fails the operation.
type errorEnvelope struct {
	Message  string            `json:"message"`
	ErrorMsg string            `json:"error"`
	Code     string            `json:"code"`
	Errors   map[string]string `json:"errors"`
}

func decodeErrorEnvelope(body []byte) errorEnvelope {
	env := errorEnvelope{}
	if len(body) == 0 {
		return env
	}
	// Best effort, an unparseable body leaves the envelope empty and
	// the status-code mapping supplies the message.
	_ = json.Unmarshal(body, &env)
	return env
}

func (e errorEnvelope) bestMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorMsg
}

func (e errorEnvelope) hasCode(code string) bool {
	return e.Code == code ||
		strings.Contains(e.Message, code) ||
		strings.Contains(e.ErrorMsg, code)
}

// registrationError prefers the first field error in the structured
// errors map, then the flat message fields, then a generic fallback.
func registrationError(status int, env errorEnvelope) *goerrors.Error {
	if len(env.Errors) > 0 {
		fields := make([]string, 0, len(env.Errors))
		for field := range env.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		return goerrors.New(env.Errors[fields[0]], goerrors.CategoryValidation).
			WithMetadata(map[string]any{"field": fields[0]})
	}

	if msg := env.bestMessage(); msg != "" {
		return goerrors.New(msg, goerrors.CategoryBadInput)
	}

	return goerrors.New("registration failed, please try again", goerrors.CategoryOperation).
		WithMetadata(map[string]any{"status": status})
}

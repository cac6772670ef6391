package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/hemolink/go-auth-client"
	"github.com/hemolink/go-auth-client/middleware"
)

// stubContext is a minimal router.Context for exercising the guard.
// Only the methods the guard touches record anything; the rest exist
// to satisfy the interface.
type stubContext struct {
	method      string
	originalURL string
	cookies     map[string]string

	nextCalled     bool
	setCookies     []*router.Cookie
	redirectedTo   string
	redirectStatus int
}

func newStubContext(method, url string) *stubContext {
	return &stubContext{
		method:      method,
		originalURL: url,
		cookies:     map[string]string{},
	}
}

func (s *stubContext) Next() error {
	s.nextCalled = true
	return nil
}

func (s *stubContext) Context() context.Context     { return context.Background() }
func (s *stubContext) SetContext(_ context.Context) {}
func (s *stubContext) Path() string                 { return s.originalURL }
func (s *stubContext) Method() string               { return s.method }
func (s *stubContext) Body() []byte                 { return nil }
func (s *stubContext) Status(_ int) router.Context  { return s }
func (s *stubContext) SendString(_ string) error    { return nil }
func (s *stubContext) Send(_ []byte) error          { return nil }
func (s *stubContext) JSON(_ int, _ any) error      { return nil }
func (s *stubContext) NoContent(_ int) error        { return nil }

func (s *stubContext) Render(_ string, _ any, _ ...string) error { return nil }

func (s *stubContext) Redirect(path string, status ...int) error {
	s.redirectedTo = path
	if len(status) > 0 {
		s.redirectStatus = status[0]
	}
	return nil
}

func (s *stubContext) RedirectToRoute(_ string, _ router.ViewContext, _ ...int) error { return nil }
func (s *stubContext) RedirectBack(_ string, _ ...int) error                          { return nil }

func (s *stubContext) SetHeader(_, _ string) router.Context { return s }
func (s *stubContext) Header(_ string) string               { return "" }

func (s *stubContext) Get(_ string, def any) any             { return def }
func (s *stubContext) GetBool(_ string, def bool) bool       { return def }
func (s *stubContext) GetInt(_ string, def int) int          { return def }
func (s *stubContext) GetString(_ string, def string) string { return def }
func (s *stubContext) Set(_ string, _ any)                   {}
func (s *stubContext) Bind(_ any) error                      { return nil }
func (s *stubContext) BindJSON(_ any) error                  { return nil }
func (s *stubContext) BindXML(_ any) error                   { return nil }
func (s *stubContext) BindQuery(_ any) error                 { return nil }
func (s *stubContext) CookieParser(_ any) error              { return nil }

func (s *stubContext) Cookie(cookie *router.Cookie) {
	s.setCookies = append(s.setCookies, cookie)
	s.cookies[cookie.Name] = cookie.Value
}

func (s *stubContext) Cookies(key string, def ...string) string {
	if val, ok := s.cookies[key]; ok && val != "" {
		return val
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

func (s *stubContext) Param(_ string, def ...string) string {
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

func (s *stubContext) ParamsInt(_ string, def int) int { return def }
func (s *stubContext) Query(_ string, def ...string) string {
	if len(def) > 0 {
		return def[0]
	}
	return ""
}
func (s *stubContext) QueryInt(_ string, def int) int                     { return def }
func (s *stubContext) QueryValues(_ string) []string                      { return nil }
func (s *stubContext) Queries() map[string]string                         { return nil }
func (s *stubContext) Locals(_ any, _ ...any) any                         { return nil }
func (s *stubContext) LocalsMerge(_ any, _ map[string]any) map[string]any { return nil }
func (s *stubContext) OriginalURL() string                                { return s.originalURL }
func (s *stubContext) OnNext(_ func() error)                              {}
func (s *stubContext) Referer() string                                    { return "" }
func (s *stubContext) FormFile(_ string) (*multipart.FileHeader, error)   { return nil, nil }
func (s *stubContext) FormValue(_ string, def ...string) string {
	if len(def) > 0 {
		return def[0]
	}
	return ""
}
func (s *stubContext) IP() string                     { return "" }
func (s *stubContext) SendStatus(_ int) error         { return nil }
func (s *stubContext) SendStream(_ io.Reader) error   { return nil }
func (s *stubContext) RouteName() string              { return "" }
func (s *stubContext) RouteParams() map[string]string { return nil }

func guardConfig() *authclient.EnvConfig {
	return &authclient.EnvConfig{
		BaseURL:               "http://127.0.0.1:1",
		LoginRoute:            "/login",
		VerificationFlag:      "verification",
		RejectedRouteKey:      "redirect_to",
		RejectedRouteDefault:  "/",
		ResendCooldownSeconds: 60,
		HTTPTimeoutSeconds:    1,
	}
}

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// seedGuardClient builds a client over storage pre-loaded with an
// authenticated session for the given user.
func seedGuardClient(t *testing.T, user authclient.User, tokenExp time.Time, clock func() time.Time) (*authclient.Client, *authclient.MemoryStorage) {
	t.Helper()
	ctx := context.Background()
	storage := authclient.NewMemoryStorage()

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	require.NoError(t, storage.Set(ctx, authclient.StorageKeyToken, mintToken(t, tokenExp)))
	require.NoError(t, storage.Set(ctx, authclient.StorageKeyUser, string(raw)))

	session := authclient.NewSessionStore(storage, authclient.WithSessionClock(clock))
	client := authclient.NewClient(guardConfig(), session, authclient.WithClock(clock))
	return client, storage
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	session := authclient.NewSessionStore(authclient.NewMemoryStorage())
	client := authclient.NewClient(guardConfig(), session)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodGet, "/dashboard/donations")
	handler := guard.Protected([]authclient.UserRole{authclient.RoleDonor}, false)(func(router.Context) error {
		return nil
	})

	require.NoError(t, handler(c))

	assert.False(t, c.nextCalled)
	assert.Equal(t, "/login", c.redirectedTo)
	assert.Equal(t, http.StatusFound, c.redirectStatus)

	// The rejected location is preserved for the post-login return trip.
	require.Len(t, c.setCookies, 1)
	assert.Equal(t, "redirect_to", c.setCookies[0].Name)
	assert.Equal(t, "/dashboard/donations", c.setCookies[0].Value)
	assert.True(t, c.setCookies[0].HTTPOnly)
}

func TestGuardUsesSeeOtherForNonGET(t *testing.T) {
	session := authclient.NewSessionStore(authclient.NewMemoryStorage())
	client := authclient.NewClient(guardConfig(), session)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodPost, "/dashboard")
	handler := guard.Protected([]authclient.UserRole{authclient.RoleDonor}, false)(func(router.Context) error {
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusSeeOther, c.redirectStatus)
}

func TestGuardAdmitsAllowedRole(t *testing.T) {
	now := time.Now()
	client, _ := seedGuardClient(t, authclient.User{
		ID:              "7",
		Email:           "donor@example.com",
		Role:            authclient.RoleDonor,
		IsEmailVerified: true,
	}, now.Add(time.Hour), time.Now)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodGet, "/dashboard")
	handler := guard.Protected([]authclient.UserRole{authclient.RoleDonor}, true)(func(router.Context) error {
		return nil
	})

	require.NoError(t, handler(c))
	assert.True(t, c.nextCalled)
	assert.Empty(t, c.redirectedTo)
}

func TestGuardSendsWrongRoleHome(t *testing.T) {
	now := time.Now()
	client, _ := seedGuardClient(t, authclient.User{
		ID:              "7",
		Email:           "donor@example.com",
		Role:            authclient.RoleDonor,
		IsEmailVerified: true,
	}, now.Add(time.Hour), time.Now)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodGet, "/admin/users")
	handler := guard.Protected([]authclient.UserRole{authclient.RoleStaff, authclient.RoleAdmin}, false)(func(router.Context) error {
		return nil
	})

	require.NoError(t, handler(c))

	assert.False(t, c.nextCalled)
	assert.Equal(t, "/dashboard", c.redirectedTo)
	// Wrong role is not a login problem, no redirect cookie.
	assert.Empty(t, c.setCookies)
}

func TestGuardForcesLogoutForUnverifiedDonor(t *testing.T) {
	now := time.Now()
	client, storage := seedGuardClient(t, authclient.User{
		ID:              "7",
		Email:           "donor@example.com",
		Role:            authclient.RoleDonor,
		IsEmailVerified: false,
	}, now.Add(time.Hour), time.Now)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodGet, "/dashboard")
	handler := guard.Protected([]authclient.UserRole{authclient.RoleDonor}, true)(func(router.Context) error {
		return nil
	})

	require.NoError(t, handler(c))

	assert.False(t, c.nextCalled)
	assert.Equal(t, "/login?verification=required", c.redirectedTo)
	assert.False(t, client.Session().IsAuthenticated())

	_, err := storage.Get(context.Background(), authclient.StorageKeyToken)
	assert.True(t, authclient.IsKeyNotFound(err))
}

func TestGuardVerificationGateExemptsStaff(t *testing.T) {
	now := time.Now()
	client, _ := seedGuardClient(t, authclient.User{
		ID:              "9",
		Email:           "staff@example.com",
		Role:            authclient.RoleStaff,
		IsEmailVerified: false,
	}, now.Add(time.Hour), time.Now)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodGet, "/staff")
	handler := guard.Protected([]authclient.UserRole{authclient.RoleStaff}, true)(func(router.Context) error {
		return nil
	})

	require.NoError(t, handler(c))
	assert.True(t, c.nextCalled)
}

func TestGuardEvictsExpiredSession(t *testing.T) {
	base := time.Now()
	// The session rehydrates while the token is still valid, then the
	// clock moves past the expiry before the next navigation.
	clock := base
	client, storage := seedGuardClient(t, authclient.User{
		ID:              "7",
		Email:           "donor@example.com",
		Role:            authclient.RoleDonor,
		IsEmailVerified: true,
	}, base.Add(30*time.Minute), func() time.Time { return clock })

	require.True(t, client.Session().IsAuthenticated())
	clock = base.Add(time.Hour)

	guard := middleware.NewRouteGuard(client, guardConfig())
	c := newStubContext(http.MethodGet, "/dashboard")
	handler := guard.Protected([]authclient.UserRole{authclient.RoleDonor}, false)(func(router.Context) error {
		return nil
	})

	require.NoError(t, handler(c))

	assert.False(t, c.nextCalled)
	assert.Equal(t, "/login", c.redirectedTo)
	assert.False(t, client.Session().IsAuthenticated())

	_, err := storage.Get(context.Background(), authclient.StorageKeyToken)
	assert.True(t, authclient.IsKeyNotFound(err))
}

func TestGetRedirectPopsCookie(t *testing.T) {
	session := authclient.NewSessionStore(authclient.NewMemoryStorage())
	client := authclient.NewClient(guardConfig(), session)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodGet, "/login")
	c.cookies["redirect_to"] = "/dashboard/donations"

	assert.Equal(t, "/dashboard/donations", guard.GetRedirect(c))

	// The pop rewrites the cookie expired and empty.
	require.NotEmpty(t, c.setCookies)
	cleared := c.setCookies[len(c.setCookies)-1]
	assert.Equal(t, "redirect_to", cleared.Name)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))
}

func TestGetRedirectFallsBackToDefault(t *testing.T) {
	session := authclient.NewSessionStore(authclient.NewMemoryStorage())
	client := authclient.NewClient(guardConfig(), session)
	guard := middleware.NewRouteGuard(client, guardConfig())

	c := newStubContext(http.MethodGet, "/login")
	assert.Equal(t, "/", guard.GetRedirect(c))
}

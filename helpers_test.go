package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authclient "github.com/hemolink/go-auth-client"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, expiry time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": jwt.NewNumericDate(expiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	return signed
}

func makeTokenWithoutExpiry(t *testing.T) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	return signed
}

func seedSession(t *testing.T, storage authclient.Storage, user authclient.User, expiry time.Time) {
	t.Helper()

	ctx := context.Background()
	raw, err := json.Marshal(user)
	require.NoError(t, err)

	require.NoError(t, storage.Set(ctx, authclient.StorageKeyToken, makeToken(t, expiry)))
	require.NoError(t, storage.Set(ctx, authclient.StorageKeyUser, string(raw)))
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func testConfig(baseURL string) *authclient.EnvConfig {
	return &authclient.EnvConfig{
		BaseURL:               baseURL,
		LoginRoute:            "/login",
		VerificationFlag:      "verification",
		RejectedRouteKey:      "redirect_to",
		RejectedRouteDefault:  "/",
		ResendCooldownSeconds: 60,
		HTTPTimeoutSeconds:    5,
	}
}

func donorUser() authclient.User {
	return authclient.User{
		ID:              "42",
		Email:           "donor@example.com",
		Name:            "Linh Nguyen",
		FirstName:       "Linh",
		LastName:        "Nguyen",
		Role:            authclient.RoleDonor,
		IsEmailVerified: true,
	}
}

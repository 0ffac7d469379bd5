// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

type fakeResolver struct {
	identities map[string]*Identity
	errs       map[string]error
}

func (f *fakeResolver) Resolve(
	_ context.Context,
	secret string,
) (*Identity, error) {
	if err, ok := f.errs[secret]; ok {
		return nil, err
	}
	if identity, ok := f.identities[secret]; ok {
		return identity, nil
	}
	return nil, fmt.Errorf("resolve: %w", core.ErrTokenInvalid)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthenticator_MissingToken(t *testing.T) {
	handler := Authenticator(&fakeResolver{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestAuthenticator_MalformedHeader(t *testing.T) {
	handler := Authenticator(&fakeResolver{})(okHandler())

	for _, header := range []string{
		"sometoken",
		"Basic dXNlcjpwYXNz",
	} {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthenticator_ValidToken(t *testing.T) {
	resolver := &fakeResolver{
		identities: map[string]*Identity{
			"good-secret": {
				UserID:  "user-1",
				Email:   "jane@example.com",
				Role:    "user",
				TokenID: "token-1",
			},
		},
	}

	var captured *Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetIdentity(r.Context())
		assert.Equal(t, "user-1", GetUserID(r.Context()))
		assert.Equal(t, "user", GetUserRole(r.Context()))
		assert.True(t, IsAuthenticated(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	handler := Authenticator(resolver)(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "token-1", captured.TokenID)
}

func TestAuthenticator_CaseInsensitiveScheme(t *testing.T) {
	resolver := &fakeResolver{
		identities: map[string]*Identity{
			"good-secret": {UserID: "user-1", Role: "user"},
		},
	}
	handler := Authenticator(resolver)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "bearer good-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticator_TokenErrors(t *testing.T) {
	resolver := &fakeResolver{
		errs: map[string]error{
			"expired": fmt.Errorf("resolve: %w", core.ErrTokenExpired),
			"revoked": fmt.Errorf("resolve: %w", core.ErrTokenRevoked),
			"invalid": fmt.Errorf("resolve: %w", core.ErrTokenInvalid),
		},
	}
	handler := Authenticator(resolver)(okHandler())

	cases := map[string]string{
		"expired": "TOKEN_EXPIRED",
		"revoked": "TOKEN_REVOKED",
		"invalid": "TOKEN_INVALID",
	}

	for secret, wantCode := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+secret)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, secret)
		assert.Equal(t, wantCode, errorCode(t, rec), secret)
	}
}

func TestRequireAdmin_ForbiddenForUserRole(t *testing.T) {
	resolver := &fakeResolver{
		identities: map[string]*Identity{
			"user-secret":  {UserID: "user-1", Role: "user"},
			"admin-secret": {UserID: "admin-1", Role: "admin"},
		},
	}
	handler := Authenticator(resolver)(RequireAdmin(okHandler()))

	// Authenticated but not admin: 403, not 401.
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer user-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	// RequireRole without an authenticator in front: no role in context.
	handler := RequireRole("admin")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(req))

	req.Header.Set("Authorization", "BEARER abc123")
	assert.Equal(t, "abc123", ExtractToken(req))

	req.Header.Set("Authorization", "Token abc123")
	assert.Empty(t, ExtractToken(req))
}

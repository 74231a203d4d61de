package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func scopedRequest(scopes []string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(context.WithValue(req.Context(), CtxKeyScopes, scopes))
}

func TestRequireAnyScope(t *testing.T) {
	handler := RequireAnyScope("admin:read", "admin:write")(okHandler())

	t.Run("one matching scope passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, scopedRequest([]string{"profile:read", "admin:read"}))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no matching scope is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, scopedRequest([]string{"profile:read"}))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
	})

	t.Run("unauthenticated context is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequireAllScopes(t *testing.T) {
	handler := RequireAllScopes("admin:read", "admin:write")(okHandler())

	t.Run("full grant passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, scopedRequest([]string{"profile:read", "admin:read", "admin:write"}))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("partial grant is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, scopedRequest([]string{"admin:write"}))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "admin:read admin:write")
	})
}

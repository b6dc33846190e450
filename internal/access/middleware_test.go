package access_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/access"
	"github.com/stockroom-app/stockroom/internal/shared"
	_ "github.com/stockroom-app/stockroom/testing"
)

func newGuards(t *testing.T) (*access.Middleware, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return access.NewMiddleware(logger), sm
}

func requestWithUser(t *testing.T, sm *shared.SessionManager, target string, user *shared.SessionUser) (*http.Request, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	if user != nil {
		sess.SetUser(*user)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	return req.WithContext(ctx), sess
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthenticatedRedirectsGuest(t *testing.T) {
	guards, sm := newGuards(t)
	req, sess := requestWithUser(t, sm, "/products?page=2", nil)

	var called bool
	res := httptest.NewRecorder()
	guards.RequireAuthenticated(okHandler(&called)).ServeHTTP(res, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("Location"))
	assert.Equal(t, "/products?page=2", sess.Get(shared.ReturnToKey), "deep link stored for post-login redirect")
}

func TestRequireAuthenticatedJSONEnvelope(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/api/products", nil)

	var called bool
	res := httptest.NewRecorder()
	guards.RequireAuthenticated(okHandler(&called)).ServeHTTP(res, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "Authentication required")
}

func TestRequireAuthenticatedPassesUser(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/products", &shared.SessionUser{ID: 1, Username: "staff", Role: shared.RoleUser})

	var called bool
	guards.RequireAuthenticated(okHandler(&called)).ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestRequireAdminRejectsUserRole(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/suppliers", &shared.SessionUser{ID: 1, Username: "staff", Role: shared.RoleUser})

	var called bool
	res := httptest.NewRecorder()
	guards.RequireAdmin(okHandler(&called)).ServeHTTP(res, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/products", res.Header().Get("Location"))
}

func TestRequireAdminJSONEnvelope(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/api/suppliers", &shared.SessionUser{ID: 1, Username: "staff", Role: shared.RoleUser})

	var called bool
	res := httptest.NewRecorder()
	guards.RequireAdmin(okHandler(&called)).ServeHTTP(res, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "Admin access required")
}

func TestRequireAdminPassesAdmin(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/suppliers", &shared.SessionUser{ID: 1, Username: "boss", Role: shared.RoleAdmin})

	var called bool
	guards.RequireAdmin(okHandler(&called)).ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestRequireGuestRedirectsAuthenticated(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/auth/login", &shared.SessionUser{ID: 1, Username: "staff", Role: shared.RoleUser})

	var called bool
	res := httptest.NewRecorder()
	guards.RequireGuest(okHandler(&called)).ServeHTTP(res, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/products", res.Header().Get("Location"))
}

func TestRequireGuestBlocksAuthenticatedPost(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/auth/register", &shared.SessionUser{ID: 1, Username: "staff", Role: shared.RoleUser})
	req.Method = http.MethodPost

	var called bool
	res := httptest.NewRecorder()
	guards.RequireGuest(okHandler(&called)).ServeHTTP(res, req)

	assert.False(t, called, "authenticated users cannot re-enter the guest flows")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/products", res.Header().Get("Location"))
}

func TestRequireGuestPassesAnonymousPost(t *testing.T) {
	guards, sm := newGuards(t)
	req, _ := requestWithUser(t, sm, "/auth/login", nil)
	req.Method = http.MethodPost

	var called bool
	guards.RequireGuest(okHandler(&called)).ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

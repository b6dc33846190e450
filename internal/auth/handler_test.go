package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-app/stockroom/internal/auth"
	"github.com/stockroom-app/stockroom/internal/shared"
	"github.com/stockroom-app/stockroom/internal/view"
	_ "github.com/stockroom-app/stockroom/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindActiveByLogin(ctx context.Context, login string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindActiveByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) Create(ctx context.Context, user auth.User) (*auth.User, error) {
	user.ID = 1
	return &user, nil
}

func (s *stubRepo) FindActiveByResetToken(ctx context.Context, token string) (*auth.User, error) {
	if s.user == nil || s.user.ResetToken == nil || *s.user.ResetToken != token {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	return nil
}

func (s *stubRepo) ResetPassword(ctx context.Context, userID int64, passwordHash string) error {
	if s.user == nil {
		return shared.ErrNotFound
	}
	s.user.PasswordHash = passwordHash
	s.user.ResetToken = nil
	s.user.ResetTokenExpires = nil
	return nil
}

type noopMailer struct{}

func (noopMailer) SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := auth.NewService(logger, repo, noopMailer{})
	handler := auth.NewHandler(logger, service, templates, sessionManager, csrfManager)
	return handler, sessionManager
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	return req.WithContext(ctx), sess
}

func TestLoginPage(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req, sess := withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	if err := sessionManager.Commit(req.Context(), res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID:           1,
		Username:     "someone",
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		Role:         shared.RoleUser,
		IsActive:     true,
	}})

	form := url.Values{"username": {"someone"}, "password": {"wrongpass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, _ = withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid username or password") {
		t.Fatalf("expected credential error in body")
	}
}

func TestLoginSuccessRedirectsToReturnTo(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler, sessionManager := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID:           1,
		Username:     "someone",
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		Role:         shared.RoleAdmin,
		IsActive:     true,
	}})

	form := url.Values{"username": {"someone"}, "password": {"correctpass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, sess := withSession(t, sessionManager, req)
	sess.Set(shared.ReturnToKey, "/suppliers?page=2")

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/suppliers?page=2" {
		t.Fatalf("expected stored deep link, got %q", loc)
	}
	if user := sess.User(); user == nil || !user.IsAdmin() {
		t.Fatalf("expected admin identity on session")
	}
	if sess.Get(shared.ReturnToKey) != "" {
		t.Fatalf("expected return_to to be consumed")
	}
}

func TestLoginJSONEnvelope(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})

	form := url.Values{"username": {"ghost"}, "password": {"whatever"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req, _ = withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON response, got %q", ct)
	}
	if !strings.Contains(res.Body.String(), `"success":false`) {
		t.Fatalf("expected failure envelope, got %s", res.Body.String())
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})

	form := url.Values{
		"username":         {"ab"},
		"email":            {"not-an-email"},
		"phone":            {"123"},
		"password":         {"secret123"},
		"confirm_password": {"different"},
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, _ = withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.HandleRegisterForTest(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "Passwords do not match") {
		t.Fatalf("expected confirm password error in body")
	}
	if !strings.Contains(body, "Enter a valid email address") {
		t.Fatalf("expected email error in body")
	}
}

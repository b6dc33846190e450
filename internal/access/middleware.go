// Package access provides the role gates applied to protected routes.
package access

import (
	"log/slog"
	"net/http"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Middleware bundles the authentication and role guards.
type Middleware struct {
	logger *slog.Logger
}

// NewMiddleware constructs the guard set.
func NewMiddleware(logger *slog.Logger) *Middleware {
	return &Middleware{logger: logger}
}

// RequireAuthenticated rejects guests. Browser requests are sent to the
// login page with the original URL remembered for the post-login redirect;
// API callers receive the 401 envelope.
func (m *Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess.User() != nil {
			next.ServeHTTP(w, r)
			return
		}
		if shared.WantsJSON(r) {
			httpx.Unauthorized(w)
			return
		}
		if sess != nil {
			sess.Set(shared.ReturnToKey, r.URL.RequestURI())
			sess.AddFlash("error", "Please log in to continue")
		}
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
	})
}

// RequireAdmin rejects non-admin users. Assumes RequireAuthenticated ran
// earlier in the chain.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		user := sess.User()
		if user.IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}
		if user != nil {
			m.logger.Warn("admin route denied",
				slog.String("path", r.URL.Path),
				slog.String("username", user.Username))
		}
		if shared.WantsJSON(r) {
			httpx.Forbidden(w)
			return
		}
		if sess != nil {
			sess.AddFlash("error", "Admin access required")
		}
		http.Redirect(w, r, "/products", http.StatusSeeOther)
	})
}

// RequireGuest passes only when no user is on the session. Authenticated
// visitors are sent away from the login, registration and password-reset
// flows regardless of method.
func (m *Middleware) RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess.User() == nil {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "/products", http.StatusSeeOther)
	})
}

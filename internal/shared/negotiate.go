package shared

import (
	"net/http"
	"strings"
)

// ReturnToKey is the session key holding the deep link a guard stored
// before redirecting an unauthenticated browser to the login page.
const ReturnToKey = "return_to"

// WantsJSON reports whether the caller expects a JSON envelope instead
// of an HTML page. Checked per request from the Accept header, the
// XMLHttpRequest marker, and the /api path prefix. This drives response
// shape only, never authorization.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "json")
}

package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockroom-app/stockroom/internal/access"
	"github.com/stockroom-app/stockroom/internal/auth"
	"github.com/stockroom-app/stockroom/internal/catalog/products"
	"github.com/stockroom-app/stockroom/internal/catalog/suppliers"
	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
	"github.com/stockroom-app/stockroom/internal/view"
	"github.com/stockroom-app/stockroom/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Templates       *view.Engine
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	Access          *access.Middleware
	AuthHandler     *auth.Handler
	ProductHandler  *products.Handler
	SupplierHandler *suppliers.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountSessionRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.Access.RequireGuest)
			params.AuthHandler.MountRoutes(r)
		})
	})

	// The catalog itself is public; management views sit behind the
	// admin gate.
	r.Route("/products", func(r chi.Router) {
		r.Get("/", params.ProductHandler.List)
		r.Group(func(r chi.Router) {
			r.Use(params.Access.RequireAuthenticated, params.Access.RequireAdmin)
			params.ProductHandler.MountAdminRoutes(r)
		})
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Use(params.Access.RequireAuthenticated, params.Access.RequireAdmin)
		params.SupplierHandler.MountRoutes(r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			params.ProductHandler.MountAPIRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(params.Access.RequireAuthenticated, params.Access.RequireAdmin)
				params.ProductHandler.MountAPIAdminRoutes(r)
			})
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Use(params.Access.RequireAuthenticated, params.Access.RequireAdmin)
			params.SupplierHandler.MountAPIRoutes(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if shared.WantsJSON(r) {
			httpx.JSON(w, http.StatusNotFound, httpx.Envelope{Success: false, Message: "Route not found"})
			return
		}
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		w.WriteHeader(http.StatusNotFound)
		data := view.TemplateData{
			Title:       "Not found",
			CSRFToken:   csrfToken,
			CurrentPath: r.URL.Path,
			CurrentUser: sess.User(),
			Data: map[string]any{
				"Status":  http.StatusNotFound,
				"Message": "The page you are looking for does not exist",
			},
		}
		if err := params.Templates.Render(w, "pages/error.html", data); err != nil {
			params.Logger.Error("render not found", slog.Any("error", err))
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

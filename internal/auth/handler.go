package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
	"github.com/stockroom-app/stockroom/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers the guest-only auth flows on the provided
// router. Logout lives in MountSessionRoutes since it needs an
// authenticated caller.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Get("/forgot", h.showForgot)
	r.Post("/forgot", h.handleForgot)
	r.Get("/reset/{token}", h.showReset)
	r.Post("/reset/{token}", h.handleReset)
}

// MountSessionRoutes registers the auth routes that operate on an
// existing session.
func (h *Handler) MountSessionRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type registerForm struct {
	Username        string `validate:"required,min=3,max=30"`
	Email           string `validate:"required,email"`
	Phone           string `validate:"required,numeric,min=10,max=11"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required"`
}

type resetForm struct {
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required"`
}

type authPageData struct {
	Form   any
	Errors map[string]string
	Token  string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/login.html", "Login", authPageData{Form: loginForm{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)

	if len(errs) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Username, form.Password)
		if err != nil {
			if shared.WantsJSON(r) {
				httpx.RespondError(w, err)
				return
			}
			errs["general"] = shared.UserSafeMessage(err)
		} else {
			if sess == nil {
				h.logger.Error("session missing during login")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.SetUser(shared.SessionUser{
				ID:       user.ID,
				Username: user.Username,
				Role:     user.Role,
				Email:    user.Email,
			})
			if shared.WantsJSON(r) {
				httpx.OK(w, "Login successful", user)
				return
			}
			sess.AddFlash("success", "Welcome back, "+user.Username)
			target := sess.Pop(shared.ReturnToKey)
			if target == "" {
				target = "/products"
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
	}

	if shared.WantsJSON(r) {
		httpx.RespondError(w, shared.NewValidationError(errs))
		return
	}
	h.render(w, r, "pages/login.html", "Login", authPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/register.html", "Register", authPageData{Form: registerForm{}}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := registerForm{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Phone:           r.PostFormValue("phone"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	errs := h.validate(form)
	if form.ConfirmPassword != "" && form.Password != form.ConfirmPassword {
		errs["confirm_password"] = "Passwords do not match"
	}

	if len(errs) == 0 {
		user, err := h.service.Register(r.Context(), RegisterInput{
			Username:        form.Username,
			Email:           form.Email,
			Phone:           form.Phone,
			Password:        form.Password,
			ConfirmPassword: form.ConfirmPassword,
		})
		if err == nil {
			if shared.WantsJSON(r) {
				httpx.Created(w, "Registration successful", user)
				return
			}
			if sess != nil {
				sess.AddFlash("success", "Registration successful, please log in")
			}
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		if shared.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		for field, msg := range shared.FieldErrors(err) {
			errs[field] = msg
		}
	}

	if shared.WantsJSON(r) {
		httpx.RespondError(w, shared.NewValidationError(errs))
		return
	}
	h.render(w, r, "pages/register.html", "Register", authPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) showForgot(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/forgot.html", "Forgot password", authPageData{}, http.StatusOK)
}

func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	email := r.PostFormValue("email")

	err := h.service.ForgotPassword(r.Context(), email)
	if err != nil {
		if shared.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		errs := map[string]string{"general": "No account found with that email address"}
		h.render(w, r, "pages/forgot.html", "Forgot password", authPageData{Errors: errs}, http.StatusNotFound)
		return
	}

	if shared.WantsJSON(r) {
		httpx.OK(w, "Password reset instructions have been sent", nil)
		return
	}
	if sess != nil {
		sess.AddFlash("success", "Password reset instructions have been sent to your email")
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) showReset(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/reset.html", "Reset password", authPageData{Token: chi.URLParam(r, "token")}, http.StatusOK)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	token := chi.URLParam(r, "token")

	form := resetForm{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	errs := h.validate(form)
	if form.ConfirmPassword != "" && form.Password != form.ConfirmPassword {
		errs["confirm_password"] = "Passwords do not match"
	}

	status := http.StatusBadRequest
	if len(errs) == 0 {
		err := h.service.ResetPassword(r.Context(), token, form.Password, form.ConfirmPassword)
		if err == nil {
			if shared.WantsJSON(r) {
				httpx.OK(w, "Password has been reset", nil)
				return
			}
			if sess != nil {
				sess.AddFlash("success", "Password updated, please log in")
			}
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		if shared.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		for field, msg := range shared.FieldErrors(err) {
			errs[field] = msg
		}
		status = httpx.StatusFor(err)
	}

	if shared.WantsJSON(r) {
		httpx.RespondError(w, shared.NewValidationError(errs))
		return
	}
	h.render(w, r, "pages/reset.html", "Reset password", authPageData{Errors: errs, Token: token}, status)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessionManager.Destroy(sess)
	}
	if shared.WantsJSON(r) {
		httpx.OK(w, "Logged out", nil)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleRegisterForTest exposes the POST handler for tests.
func (h *Handler) HandleRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.handleRegister(w, r)
}

func (h *Handler) validate(form any) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs["general"] = "Invalid input"
			return errs
		}
		for _, fieldErr := range verrs {
			errs[formKey(fieldErr.Field())] = messageFor(fieldErr)
		}
	}
	return errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data authPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		CurrentUser: sess.User(),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render "+page, slog.Any("error", err))
		if status == http.StatusOK {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func formKey(field string) string {
	switch field {
	case "Username":
		return "username"
	case "Email":
		return "email"
	case "Phone":
		return "phone"
	case "Password":
		return "password"
	case "ConfirmPassword":
		return "confirm_password"
	default:
		return "general"
	}
}

func messageFor(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "numeric":
		return "Must contain digits only"
	case "min":
		return "Too short"
	case "max":
		return "Too long"
	default:
		return "Invalid value"
	}
}

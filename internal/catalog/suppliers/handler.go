package suppliers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-app/stockroom/internal/catalog/shared"
	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	internalShared "github.com/stockroom-app/stockroom/internal/shared"
	"github.com/stockroom-app/stockroom/internal/view"
)

// Handler wires HTTP endpoints for supplier management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *internalShared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *internalShared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers the HTML routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/create", h.ShowCreate)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.ShowEdit)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// MountAPIRoutes registers the JSON routes on the provided router.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.APIList)
	r.Post("/", h.Create)
	r.Get("/{id}", h.APIGet)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List renders the supplier management page.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list suppliers", slog.Any("error", err))
		http.Error(w, "Failed to load suppliers", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/suppliers_list.html", "Suppliers", map[string]any{
		"Suppliers":  list,
		"Search":     filters.Search,
		"Pagination": internalShared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

// APIList returns the supplier collection as a JSON envelope.
func (h *Handler) APIList(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Supplier{}
	}
	httpx.List(w, list, internalShared.NewPagination(filters.Page, filters.Limit, total))
}

// APIGet returns a single supplier as a JSON envelope.
func (h *Handler) APIGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", supplier)
}

// ShowCreate renders the empty supplier form.
func (h *Handler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/supplier_form.html", "Add supplier", map[string]any{
		"IsEdit":   false,
		"Supplier": Supplier{},
	}, http.StatusOK)
}

// ShowEdit renders the supplier form pre-filled with an existing record.
func (h *Handler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/supplier_form.html", "Edit supplier", map[string]any{
		"IsEdit":   true,
		"Supplier": supplier,
	}, http.StatusOK)
}

// Create stores a new supplier from a form post or JSON body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := parseSupplierInput(r)
	if err != nil {
		h.respondMutationError(w, r, err, "pages/supplier_form.html", "Add supplier", map[string]any{
			"IsEdit":   false,
			"Supplier": input,
		})
		return
	}
	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondMutationError(w, r, err, "pages/supplier_form.html", "Add supplier", map[string]any{
			"IsEdit":   false,
			"Supplier": input,
		})
		return
	}
	if internalShared.WantsJSON(r) {
		httpx.Created(w, "Supplier created successfully", created)
		return
	}
	h.redirectWithFlash(w, r, "/suppliers", "success", "Supplier created successfully")
}

// Update applies changes to an existing supplier.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	input, err := parseSupplierInput(r)
	if err == nil {
		input.ID = id
		var updated Supplier
		updated, err = h.service.Update(r.Context(), id, input)
		if err == nil {
			if internalShared.WantsJSON(r) {
				httpx.OK(w, "Supplier updated successfully", updated)
				return
			}
			h.redirectWithFlash(w, r, "/suppliers", "success", "Supplier updated successfully")
			return
		}
	}
	h.respondMutationError(w, r, err, "pages/supplier_form.html", "Edit supplier", map[string]any{
		"IsEdit":   true,
		"Supplier": input,
	})
}

// Delete deactivates a supplier.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if internalShared.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		h.redirectWithFlash(w, r, "/suppliers", "error", internalShared.UserSafeMessage(err))
		return
	}
	if internalShared.WantsJSON(r) {
		httpx.OK(w, "Supplier deleted successfully", nil)
		return
	}
	h.redirectWithFlash(w, r, "/suppliers", "success", "Supplier deleted successfully")
}

type supplierDTO struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

func parseSupplierInput(r *http.Request) (Supplier, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var dto supplierDTO
		if err := httpx.DecodeJSON(r, &dto); err != nil {
			return Supplier{}, internalShared.NewValidationError(map[string]string{"general": "Invalid JSON body"})
		}
		return Supplier{
			Name:        dto.Name,
			Address:     dto.Address,
			Phone:       dto.Phone,
			Email:       dto.Email,
			Description: dto.Description,
		}, nil
	}
	if err := r.ParseForm(); err != nil {
		return Supplier{}, internalShared.NewValidationError(map[string]string{"general": "Invalid form submission"})
	}
	return Supplier{
		Name:        r.PostFormValue("name"),
		Address:     r.PostFormValue("address"),
		Phone:       r.PostFormValue("phone"),
		Email:       r.PostFormValue("email"),
		Description: r.PostFormValue("description"),
	}, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, internalShared.NotFound("Supplier not found")
	}
	return id, nil
}

func (h *Handler) respondMutationError(w http.ResponseWriter, r *http.Request, err error, page, title string, data map[string]any) {
	if internalShared.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	data["Errors"] = internalShared.FieldErrors(err)
	h.render(w, r, page, title, data, httpx.StatusFor(err))
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if internalShared.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	status := httpx.StatusFor(err)
	h.render(w, r, "pages/error.html", "Error", map[string]any{
		"Status":  status,
		"Message": internalShared.UserSafeMessage(err),
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data map[string]any, status int) {
	sess := internalShared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *internalShared.FlashMessage
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
	}
}

package products

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-app/stockroom/internal/catalog/shared"
	"github.com/stockroom-app/stockroom/internal/catalog/suppliers"
	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	internalShared "github.com/stockroom-app/stockroom/internal/shared"
	"github.com/stockroom-app/stockroom/internal/view"
)

// Handler wires HTTP endpoints for product browsing and management.
type Handler struct {
	logger          *slog.Logger
	service         *Service
	supplierService *suppliers.Service
	templates       *view.Engine
	csrf            *internalShared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, supplierService *suppliers.Service, templates *view.Engine, csrf *internalShared.CSRFManager) *Handler {
	return &Handler{
		logger:          logger,
		service:         service,
		supplierService: supplierService,
		templates:       templates,
		csrf:            csrf,
	}
}

// MountAdminRoutes registers the management routes. The caller applies
// the admin guard.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/admin", h.Admin)
	r.Get("/create", h.ShowCreate)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.ShowEdit)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// MountAPIRoutes registers the JSON routes on the provided router.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/", h.APIList)
	r.Get("/{id}", h.APIGet)
}

// MountAPIAdminRoutes registers the JSON mutation routes.
func (h *Handler) MountAPIAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List renders the read-only product catalog page.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.renderListing(w, r, "pages/products_list.html", "Products")
}

// Admin renders the product management page.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	h.renderListing(w, r, "pages/products_admin.html", "Manage products")
}

func (h *Handler) renderListing(w http.ResponseWriter, r *http.Request, page, title string) {
	filters := shared.ParseListFilters(r.URL.Query())
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	refs, err := h.supplierService.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list suppliers for filter", slog.Any("error", err))
	}
	var selected int64
	if filters.SupplierID != nil {
		selected = *filters.SupplierID
	}
	h.render(w, r, page, title, map[string]any{
		"Products":         list,
		"Suppliers":        refs,
		"Search":           filters.Search,
		"SelectedSupplier": selected,
		"Pagination":       internalShared.NewPagination(filters.Page, filters.Limit, total),
	}, http.StatusOK)
}

// APIList returns the product collection as a JSON envelope.
func (h *Handler) APIList(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Product{}
	}
	httpx.List(w, list, internalShared.NewPagination(filters.Page, filters.Limit, total))
}

// APIGet returns a single product as a JSON envelope.
func (h *Handler) APIGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", product)
}

// ShowCreate renders the empty product form.
func (h *Handler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "Add product", Product{}, false, nil, http.StatusOK)
}

// ShowEdit renders the product form pre-filled with an existing record.
func (h *Handler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderForm(w, r, "Edit product", product, true, nil, http.StatusOK)
}

// Create stores a new product from a form post or JSON body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := parseProductInput(r)
	if err == nil {
		var created Product
		created, err = h.service.Create(r.Context(), input)
		if err == nil {
			if internalShared.WantsJSON(r) {
				httpx.Created(w, "Product created successfully", created)
				return
			}
			h.redirectWithFlash(w, r, "/products/admin", "success", "Product created successfully")
			return
		}
	}
	if internalShared.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	h.renderForm(w, r, "Add product", input, false, internalShared.FieldErrors(err), httpx.StatusFor(err))
}

// Update applies changes to an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	input, err := parseProductInput(r)
	if err == nil {
		input.ID = id
		var updated Product
		updated, err = h.service.Update(r.Context(), id, input)
		if err == nil {
			if internalShared.WantsJSON(r) {
				httpx.OK(w, "Product updated successfully", updated)
				return
			}
			h.redirectWithFlash(w, r, "/products/admin", "success", "Product updated successfully")
			return
		}
	}
	if internalShared.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	input.ID = id
	h.renderForm(w, r, "Edit product", input, true, internalShared.FieldErrors(err), httpx.StatusFor(err))
}

// Delete deactivates a product.
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
		h.redirectWithFlash(w, r, "/products/admin", "error", internalShared.UserSafeMessage(err))
		return
	}
	if internalShared.WantsJSON(r) {
		httpx.OK(w, "Product deleted successfully", nil)
		return
	}
	h.redirectWithFlash(w, r, "/products/admin", "success", "Product deleted successfully")
}

type productDTO struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	SupplierID  int64   `json:"supplierId"`
	Category    string  `json:"category"`
	SKU         string  `json:"sku"`
	Description string  `json:"description"`
}

func parseProductInput(r *http.Request) (Product, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var dto productDTO
		if err := httpx.DecodeJSON(r, &dto); err != nil {
			return Product{}, internalShared.NewValidationError(map[string]string{"general": "Invalid JSON body"})
		}
		return Product{
			Name:        dto.Name,
			Price:       dto.Price,
			Quantity:    dto.Quantity,
			SupplierID:  dto.SupplierID,
			Category:    dto.Category,
			SKU:         dto.SKU,
			Description: dto.Description,
		}, nil
	}
	if err := r.ParseForm(); err != nil {
		return Product{}, internalShared.NewValidationError(map[string]string{"general": "Invalid form submission"})
	}
	errs := make(map[string]string)
	price, err := strconv.ParseFloat(r.PostFormValue("price"), 64)
	if err != nil {
		errs["price"] = "Enter a valid price"
	}
	quantity, err := strconv.Atoi(r.PostFormValue("quantity"))
	if err != nil {
		errs["quantity"] = "Enter a valid quantity"
	}
	supplierID, err := strconv.ParseInt(r.PostFormValue("supplier"), 10, 64)
	if err != nil {
		errs["supplier"] = "Supplier is required"
	}
	product := Product{
		Name:        r.PostFormValue("name"),
		Price:       price,
		Quantity:    quantity,
		SupplierID:  supplierID,
		Category:    r.PostFormValue("category"),
		SKU:         r.PostFormValue("sku"),
		Description: r.PostFormValue("description"),
	}
	if len(errs) > 0 {
		return product, internalShared.NewValidationError(errs)
	}
	return product, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, internalShared.NotFound("Product not found")
	}
	return id, nil
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, title string, product Product, isEdit bool, errs map[string]string, status int) {
	refs, err := h.supplierService.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list suppliers for form", slog.Any("error", err))
	}
	h.render(w, r, "pages/product_form.html", title, map[string]any{
		"IsEdit":    isEdit,
		"Product":   product,
		"Suppliers": refs,
		"Errors":    errs,
	}, status)
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

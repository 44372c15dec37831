package department

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for department operations
type Handlers struct {
	service API
	logger  *logger.Logger
}

// NewHandlers creates new department HTTP handlers
func NewHandlers(service API, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers department routes. Reads are public; writes are
// admin only.
func (h *Handlers) RegisterRoutes(public, authed *mux.Router) {
	public.HandleFunc("/departments", h.List).Methods(http.MethodGet)
	public.HandleFunc("/departments/code/{code}", h.GetByCode).Methods(http.MethodGet)
	public.HandleFunc("/departments/{id}", h.Get).Methods(http.MethodGet)

	adminOnly := identity.RequireRole(types.RoleAdmin)
	authed.Handle("/departments", adminOnly(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	authed.Handle("/departments/{id}", adminOnly(http.HandlerFunc(h.Update))).Methods(http.MethodPut)
	authed.Handle("/departments/{id}", adminOnly(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
}

// Create handles department creation
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateDepartmentRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	dep, err := h.service.Create(r.Context(), &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "department created", dep)
}

// Get handles single department reads
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	dep, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "department retrieved", dep)
}

// GetByCode handles department lookup by unique code
func (h *Handlers) GetByCode(w http.ResponseWriter, r *http.Request) {
	dep, err := h.service.GetByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "department retrieved", dep)
}

// Update handles department updates
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var updates types.DepartmentUpdates
	if err := api.Decode(r, &updates); err != nil {
		api.Error(w, err)
		return
	}

	dep, err := h.service.Update(r.Context(), mux.Vars(r)["id"], &updates)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "department updated", dep)
}

// Delete handles department removal
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "department deleted", nil)
}

// List handles the public paginated department listing
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page := api.ParsePagination(r)

	departments, total, err := h.service.List(r.Context(), page.Page, page.PerPage)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "departments retrieved", map[string]interface{}{
		"departments": departments,
		"total":       total,
		"page":        page.Page,
		"per_page":    page.PerPage,
	})
}

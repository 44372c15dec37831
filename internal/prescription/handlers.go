package prescription

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for prescription operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new prescription HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers prescription routes on the authenticated router.
func (h *Handlers) RegisterRoutes(authed *mux.Router) {
	authed.Handle("/prescriptions", identity.RequireRole(types.RoleDoctor)(http.HandlerFunc(h.Issue))).Methods(http.MethodPost)
	authed.HandleFunc("/prescriptions", h.List).Methods(http.MethodGet)
	authed.HandleFunc("/prescriptions/code/{code}", h.GetByCode).Methods(http.MethodGet)
	authed.HandleFunc("/prescriptions/{id}", h.Get).Methods(http.MethodGet)
}

// Issue handles prescription creation by a clinician
func (h *Handlers) Issue(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var req types.CreatePrescriptionRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	p, err := h.service.Issue(r.Context(), principal, &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "prescription issued", p)
}

// Get handles single prescription reads
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	p, err := h.service.Get(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "prescription retrieved", p)
}

// GetByCode handles prescription lookup by pickup code
func (h *Handlers) GetByCode(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	p, err := h.service.GetByCode(r.Context(), principal, mux.Vars(r)["code"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "prescription retrieved", p)
}

// List handles role-scoped prescription listings
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	page := api.ParsePagination(r)

	prescriptions, total, err := h.service.List(r.Context(), principal, &types.PrescriptionFilters{}, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "prescriptions retrieved", map[string]interface{}{
		"prescriptions": prescriptions,
		"total":         total,
		"page":          page.Page,
		"per_page":      page.PerPage,
	})
}

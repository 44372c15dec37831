package doctor

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for clinician profile operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new doctor HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers doctor routes. Reads are public; writes require
// admin or the owning clinician.
func (h *Handlers) RegisterRoutes(public, authed *mux.Router) {
	public.HandleFunc("/doctors", h.List).Methods(http.MethodGet)
	public.HandleFunc("/doctors/{id}", h.Get).Methods(http.MethodGet)

	authed.Handle("/doctors", identity.RequireRole(types.RoleAdmin)(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	authed.Handle("/doctors/{id}", identity.RequireRole(types.RoleAdmin, types.RoleDoctor)(http.HandlerFunc(h.Update))).Methods(http.MethodPut)
	authed.Handle("/doctors/{id}/photos", identity.RequireRole(types.RoleAdmin, types.RoleDoctor)(http.HandlerFunc(h.UpdatePhotos))).Methods(http.MethodPut)
	authed.Handle("/doctors/{id}", identity.RequireRole(types.RoleAdmin)(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
}

// Create handles clinician profile creation
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateDoctorRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	doc, err := h.service.Create(r.Context(), &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "doctor profile created", doc)
}

// Get handles single profile reads
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.GetDoctor(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "doctor retrieved", doc)
}

// Update handles profile updates
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var updates types.DoctorUpdates
	if err := api.Decode(r, &updates); err != nil {
		api.Error(w, err)
		return
	}

	doc, err := h.service.Update(r.Context(), principal, mux.Vars(r)["id"], &updates)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "doctor updated", doc)
}

// UpdatePhotos handles profile photo list replacement
func (h *Handlers) UpdatePhotos(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var req struct {
		Photos []string `json:"photos"`
	}
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	doc, err := h.service.UpdatePhotos(r.Context(), principal, mux.Vars(r)["id"], req.Photos)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "photos updated", doc)
}

// Delete handles profile removal
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "doctor deleted", nil)
}

// List handles the public doctor directory
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page := api.ParsePagination(r)
	filters := &types.DoctorFilters{
		Department: r.URL.Query().Get("department"),
	}

	doctors, total, err := h.service.List(r.Context(), filters, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "doctors retrieved", map[string]interface{}{
		"doctors":  doctors,
		"total":    total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

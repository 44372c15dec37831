package patientprofile

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for contact card operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new patient profile HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers contact card routes. Patient only; every
// operation is scoped to the caller.
func (h *Handlers) RegisterRoutes(authed *mux.Router) {
	patientOnly := identity.RequireRole(types.RolePatient)
	authed.Handle("/patient-profiles", patientOnly(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	authed.Handle("/patient-profiles", patientOnly(http.HandlerFunc(h.List))).Methods(http.MethodGet)
	authed.Handle("/patient-profiles/{id}", patientOnly(http.HandlerFunc(h.Get))).Methods(http.MethodGet)
	authed.Handle("/patient-profiles/{id}", patientOnly(http.HandlerFunc(h.Update))).Methods(http.MethodPut)
	authed.Handle("/patient-profiles/{id}", patientOnly(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
}

// Create handles contact card creation
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var req types.CreatePatientProfileRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	p, err := h.service.Create(r.Context(), principal.UserID, &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "patient profile created", p)
}

// List handles the caller's card listing
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	profiles, err := h.service.List(r.Context(), principal.UserID)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "patient profiles retrieved", profiles)
}

// Get handles single card reads
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	p, err := h.service.Get(r.Context(), principal.UserID, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "patient profile retrieved", p)
}

// Update handles card updates
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var updates types.PatientProfileUpdates
	if err := api.Decode(r, &updates); err != nil {
		api.Error(w, err)
		return
	}

	p, err := h.service.Update(r.Context(), principal.UserID, mux.Vars(r)["id"], &updates)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "patient profile updated", p)
}

// Delete handles card removal
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	if err := h.service.Delete(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "patient profile deleted", nil)
}

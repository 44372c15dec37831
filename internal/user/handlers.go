package user

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for user operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new user HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers user routes on the authenticated router.
func (h *Handlers) RegisterRoutes(authed *mux.Router) {
	adminOnly := identity.RequireRole(types.RoleAdmin)
	authed.Handle("/users", adminOnly(http.HandlerFunc(h.List))).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", h.Me).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", h.Get).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", h.Update).Methods(http.MethodPut)
	authed.Handle("/users/{id}", adminOnly(http.HandlerFunc(h.Deactivate))).Methods(http.MethodDelete)
}

// Me returns the caller's own account.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	user, err := h.service.Get(r.Context(), principal, principal.UserID)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "user retrieved", user)
}

// Get handles single user reads
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	user, err := h.service.Get(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "user retrieved", user)
}

// Update handles profile updates
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var updates types.UserUpdates
	if err := api.Decode(r, &updates); err != nil {
		api.Error(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), principal, mux.Vars(r)["id"], &updates)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "user updated", user)
}

// Deactivate handles account deactivation
func (h *Handlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), mux.Vars(r)["id"]); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "user deactivated", nil)
}

// List handles the admin user listing
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page := api.ParsePagination(r)
	filters := &types.UserFilters{
		Role:   types.UserRole(r.URL.Query().Get("role")),
		Status: types.UserStatus(r.URL.Query().Get("status")),
	}

	users, total, err := h.service.List(r.Context(), filters, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "users retrieved", map[string]interface{}{
		"users":    users,
		"total":    total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

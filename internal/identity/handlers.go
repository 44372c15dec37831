package identity

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for authentication operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new authentication HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers authentication routes on the public router.
func (h *Handlers) RegisterRoutes(public *mux.Router) {
	public.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	public.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
}

// Register handles account creation
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	// Elevated roles are only provisioned through the admin user API.
	if req.Role != "" && req.Role != types.RolePatient {
		api.Error(w, types.NewForbiddenError("self-registration is limited to patient accounts"))
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "registration successful", user)
}

// Login handles credential verification and token issuance
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "login successful", resp)
}

// Logout revokes the presented bearer token.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := BearerToken(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	if err := h.service.Revoke(r.Context(), token); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "logout successful", nil)
}

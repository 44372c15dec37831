package livestream

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for live stream operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new live stream HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers stream routes. Reads are public; lifecycle is
// clinician/admin; join/leave require any authenticated caller.
func (h *Handlers) RegisterRoutes(public, authed *mux.Router) {
	public.HandleFunc("/live-streams", h.List).Methods(http.MethodGet)
	public.HandleFunc("/live-streams/{id}", h.Get).Methods(http.MethodGet)

	hostOnly := identity.RequireRole(types.RoleDoctor, types.RoleAdmin)
	authed.Handle("/live-streams", hostOnly(http.HandlerFunc(h.Schedule))).Methods(http.MethodPost)
	authed.Handle("/live-streams/{id}/start", hostOnly(http.HandlerFunc(h.Start))).Methods(http.MethodPost)
	authed.Handle("/live-streams/{id}/end", hostOnly(http.HandlerFunc(h.End))).Methods(http.MethodPost)
	authed.HandleFunc("/live-streams/{id}/join", h.Join).Methods(http.MethodPost)
	authed.HandleFunc("/live-streams/{id}/leave", h.Leave).Methods(http.MethodPost)
}

// Schedule handles stream scheduling
func (h *Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var req types.CreateLiveStreamRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	stream, err := h.service.Schedule(r.Context(), principal.UserID, &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "live stream scheduled", stream)
}

// Start handles going live
func (h *Handlers) Start(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	stream, err := h.service.Start(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "live stream started", stream)
}

// End handles ending a live stream
func (h *Handlers) End(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	stream, err := h.service.End(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "live stream ended", stream)
}

// Get handles single stream reads
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	stream, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "live stream retrieved", stream)
}

// List handles the public stream listing
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page := api.ParsePagination(r)
	status := types.LiveStreamStatus(r.URL.Query().Get("status"))

	streams, total, err := h.service.List(r.Context(), status, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "live streams retrieved", map[string]interface{}{
		"live_streams": streams,
		"total":        total,
		"page":         page.Page,
		"per_page":     page.PerPage,
	})
}

// Join handles a viewer joining a live stream
func (h *Handlers) Join(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Join(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "joined live stream", map[string]interface{}{"viewer_count": count})
}

// Leave handles a viewer leaving a live stream
func (h *Handlers) Leave(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Leave(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "left live stream", map[string]interface{}{"viewer_count": count})
}

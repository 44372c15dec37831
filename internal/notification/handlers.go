package notification

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for inbox operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new notification HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers inbox routes. Every operation is scoped to the
// caller's own inbox; announcements are admin only.
func (h *Handlers) RegisterRoutes(authed *mux.Router) {
	authed.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/unread-count", h.UnreadCount).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/read-all", h.MarkAllRead).Methods(http.MethodPut)
	authed.HandleFunc("/notifications/{id}/read", h.MarkRead).Methods(http.MethodPut)
	authed.HandleFunc("/notifications/{id}", h.Delete).Methods(http.MethodDelete)
	authed.Handle("/notifications/announce", identity.RequireRole(types.RoleAdmin)(http.HandlerFunc(h.Announce))).Methods(http.MethodPost)
}

// List handles inbox listings
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	page := api.ParsePagination(r)
	filters := &types.NotificationFilters{
		Status: types.NotificationStatus(r.URL.Query().Get("status")),
	}

	notifications, total, err := h.service.List(r.Context(), principal.UserID, filters, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "notifications retrieved", map[string]interface{}{
		"notifications": notifications,
		"total":         total,
		"page":          page.Page,
		"per_page":      page.PerPage,
	})
}

// UnreadCount handles the unread badge count
func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	count, err := h.service.UnreadCount(r.Context(), principal.UserID)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "unread count retrieved", map[string]interface{}{"count": count})
}

// MarkRead handles marking one notification read
func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	if err := h.service.MarkRead(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "notification marked read", nil)
}

// MarkAllRead handles marking the whole inbox read
func (h *Handlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	updated, err := h.service.MarkAllRead(r.Context(), principal.UserID)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "notifications marked read", map[string]interface{}{"updated": updated})
}

// Delete handles inbox entry removal
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	if err := h.service.Delete(r.Context(), principal.UserID, mux.Vars(r)["id"]); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "notification deleted", nil)
}

// Announce handles admin system announcements
func (h *Handlers) Announce(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}
	if req.Title == "" {
		api.Error(w, types.NewValidationError("title is required"))
		return
	}

	reached := h.service.Announce(req.Title, req.Content)
	api.OK(w, "announcement sent", map[string]interface{}{"reached": reached})
}

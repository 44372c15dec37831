package upload

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for file upload operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new upload HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers upload routes. All require authentication.
func (h *Handlers) RegisterRoutes(authed *mux.Router) {
	authed.HandleFunc("/uploads", h.Upload).Methods(http.MethodPost)
	authed.HandleFunc("/uploads", h.List).Methods(http.MethodGet)
	authed.HandleFunc("/uploads/{id}", h.Download).Methods(http.MethodGet)
	authed.HandleFunc("/uploads/{id}", h.Delete).Methods(http.MethodDelete)
}

// Upload handles multipart file uploads
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		api.Error(w, types.NewValidationError("invalid multipart request"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, types.NewValidationError("file field is required"))
		return
	}
	defer file.Close()

	upload, err := h.service.Upload(r.Context(),
		principal.UserID,
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
		r.FormValue("related_type"),
		r.FormValue("related_id"),
	)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "file uploaded", upload)
}

// Download streams the stored bytes back to the caller
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	file, body, err := h.service.Download(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WithError(err).WithField("file_id", file.ID).Warn("Download interrupted")
	}
}

// Delete handles file deletion
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	if err := h.service.Delete(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "file deleted", nil)
}

// List handles the caller's upload listing
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	page := api.ParsePagination(r)

	uploads, err := h.service.ListMine(r.Context(), principal, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "uploads retrieved", map[string]interface{}{
		"uploads":  uploads,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

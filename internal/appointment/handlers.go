package appointment

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/api"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Handlers contains HTTP handlers for appointment operations
type Handlers struct {
	service *Service
	logger  *logger.Logger
}

// NewHandlers creates new appointment HTTP handlers
func NewHandlers(service *Service, log *logger.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  log,
	}
}

// RegisterRoutes registers appointment routes on the authenticated router.
func (h *Handlers) RegisterRoutes(authed *mux.Router) {
	authed.HandleFunc("/appointments/available-slots", h.AvailableSlots).Methods(http.MethodGet)
	authed.Handle("/appointments", identity.RequireRole(types.RolePatient)(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	authed.Handle("/appointments", identity.RequireRole(types.RoleAdmin)(http.HandlerFunc(h.List))).Methods(http.MethodGet)
	authed.HandleFunc("/appointments/{id}", h.Get).Methods(http.MethodGet)
	authed.HandleFunc("/appointments/{id}", h.Update).Methods(http.MethodPut)
	authed.HandleFunc("/appointments/{id}/cancel", h.Cancel).Methods(http.MethodPut)
	authed.HandleFunc("/appointments/doctor/{id}", h.ListByDoctor).Methods(http.MethodGet)
	authed.HandleFunc("/appointments/patient/{id}", h.ListByPatient).Methods(http.MethodGet)
}

// Create handles slot booking
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	var req types.CreateAppointmentRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, err)
		return
	}

	apt, err := h.service.Create(r.Context(), principal.UserID, &req)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.Created(w, "appointment created", apt)
}

// Get handles single appointment reads
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	apt, err := h.service.Get(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "appointment retrieved", apt)
}

// Update dispatches a status transition or a reschedule of a pending
// appointment.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var updates types.AppointmentUpdates
	if err := api.Decode(r, &updates); err != nil {
		api.Error(w, err)
		return
	}

	var apt *types.Appointment
	var err error
	switch {
	case updates.Status != nil:
		switch *updates.Status {
		case types.AppointmentConfirmed:
			apt, err = h.service.Confirm(r.Context(), principal, id)
		case types.AppointmentCompleted:
			apt, err = h.service.Complete(r.Context(), principal, id)
		case types.AppointmentCancelled:
			apt, err = h.service.Cancel(r.Context(), principal, id)
		default:
			err = types.NewValidationError("unknown target status")
		}
	case updates.AppointmentDate != nil || updates.TimeSlot != nil:
		apt, err = h.service.Reschedule(r.Context(), principal, id, &updates)
	default:
		err = types.NewValidationError("no fields to update")
	}
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "appointment updated", apt)
}

// Cancel handles appointment cancellation
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())

	apt, err := h.service.Cancel(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "appointment cancelled", apt)
}

// AvailableSlots handles the availability view
func (h *Handlers) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctor_id")
	dateParam := r.URL.Query().Get("date")
	if doctorID == "" || dateParam == "" {
		api.Error(w, types.NewValidationError("doctor_id and date are required"))
		return
	}

	date, err := time.Parse("2006-01-02", dateParam)
	if err != nil {
		api.Error(w, types.NewValidationError("date must be yyyy-mm-dd"))
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "available slots retrieved", map[string]interface{}{
		"doctor_id": doctorID,
		"date":      dateParam,
		"slots":     slots,
	})
}

// List handles the admin-wide appointment listing
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	filters, page := parseFilters(r)

	appointments, total, err := h.service.List(r.Context(), filters, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "appointments retrieved", listPayload(appointments, total, page))
}

// ListByDoctor handles a clinician's schedule listing
func (h *Handlers) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	filters, page := parseFilters(r)

	appointments, total, err := h.service.ListByDoctor(r.Context(), principal, mux.Vars(r)["id"], filters, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "appointments retrieved", listPayload(appointments, total, page))
}

// ListByPatient handles a patient's appointment history
func (h *Handlers) ListByPatient(w http.ResponseWriter, r *http.Request) {
	principal, _ := identity.PrincipalFromContext(r.Context())
	filters, page := parseFilters(r)

	appointments, total, err := h.service.ListByPatient(r.Context(), principal, mux.Vars(r)["id"], filters, page.PerPage, page.Offset())
	if err != nil {
		api.Error(w, err)
		return
	}

	api.OK(w, "appointments retrieved", listPayload(appointments, total, page))
}

func parseFilters(r *http.Request) (*types.AppointmentFilters, api.Pagination) {
	page := api.ParsePagination(r)
	filters := &types.AppointmentFilters{
		Status: types.AppointmentStatus(r.URL.Query().Get("status")),
	}
	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filters.DateFrom = t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filters.DateTo = t
		}
	}
	return filters, page
}

func listPayload(appointments []*types.Appointment, total int, page api.Pagination) map[string]interface{} {
	return map[string]interface{}{
		"appointments": appointments,
		"total":        total,
		"page":         page.Page,
		"per_page":     page.PerPage,
	}
}

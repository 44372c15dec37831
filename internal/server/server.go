package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tcmclinic/telemed/internal/appointment"
	"github.com/tcmclinic/telemed/internal/department"
	"github.com/tcmclinic/telemed/internal/doctor"
	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/internal/livestream"
	"github.com/tcmclinic/telemed/internal/notification"
	"github.com/tcmclinic/telemed/internal/patientprofile"
	"github.com/tcmclinic/telemed/internal/prescription"
	"github.com/tcmclinic/telemed/internal/upload"
	"github.com/tcmclinic/telemed/internal/user"
	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/monitoring"
)

// Deps collects everything the HTTP surface is composed from.
type Deps struct {
	Logger   *logger.Logger
	DB       *database.DB
	Cache    *cache.Cache
	Identity *identity.Service

	IdentityHandlers       *identity.Handlers
	UserHandlers           *user.Handlers
	DoctorHandlers         *doctor.Handlers
	DepartmentHandlers     *department.Handlers
	AppointmentHandlers    *appointment.Handlers
	PrescriptionHandlers   *prescription.Handlers
	NotificationHandlers   *notification.Handlers
	PatientProfileHandlers *patientprofile.Handlers
	LiveStreamHandlers     *livestream.Handlers
	UploadHandlers         *upload.Handlers
	WS                     http.Handler
}

// NewRouter assembles the full route tree. /api/v1 splits into a public
// subrouter and an authenticated one behind the bearer middleware; /ws,
// /health and /metrics sit outside the API prefix.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery(deps.Logger))
	r.Use(cors)
	r.Use(requestLogging(deps.Logger))

	r.Handle("/metrics", monitoring.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler(deps.DB, deps.Cache)).Methods(http.MethodGet)
	r.Handle("/ws", deps.WS)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	public := apiRouter.NewRoute().Subrouter()
	authed := apiRouter.NewRoute().Subrouter()
	authed.Use(deps.Identity.Authenticate)

	public.HandleFunc("/stats/summary", statsHandler(deps.DB)).Methods(http.MethodGet)

	deps.IdentityHandlers.RegisterRoutes(public)
	deps.UserHandlers.RegisterRoutes(authed)
	deps.DoctorHandlers.RegisterRoutes(public, authed)
	deps.DepartmentHandlers.RegisterRoutes(public, authed)
	deps.AppointmentHandlers.RegisterRoutes(authed)
	deps.PrescriptionHandlers.RegisterRoutes(authed)
	deps.NotificationHandlers.RegisterRoutes(authed)
	deps.PatientProfileHandlers.RegisterRoutes(authed)
	deps.LiveStreamHandlers.RegisterRoutes(public, authed)
	deps.UploadHandlers.RegisterRoutes(authed)

	return r
}

// New builds the http.Server around the assembled router.
func New(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
}

func healthHandler(db *database.DB, c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "healthy"
		if err := db.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unhealthy"
		}

		cacheStatus := "disabled"
		if c.Enabled() {
			cacheStatus = "healthy"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"status":%q,"database":%q,"cache":%q,"timestamp":%q}`,
			healthWord(status), dbStatus, cacheStatus, time.Now().UTC().Format(time.RFC3339))
	}
}

func healthWord(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "unhealthy"
}

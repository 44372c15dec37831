package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tcmclinic/telemed/internal/appointment"
	"github.com/tcmclinic/telemed/internal/department"
	"github.com/tcmclinic/telemed/internal/doctor"
	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/internal/livestream"
	"github.com/tcmclinic/telemed/internal/notification"
	"github.com/tcmclinic/telemed/internal/patientprofile"
	"github.com/tcmclinic/telemed/internal/prescription"
	"github.com/tcmclinic/telemed/internal/realtime"
	"github.com/tcmclinic/telemed/internal/server"
	"github.com/tcmclinic/telemed/internal/upload"
	"github.com/tcmclinic/telemed/internal/user"
	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/objstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting telemed server")

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateSchema(ctx); err != nil {
		cancel()
		log.WithError(err).Error("Failed to create database schema")
		os.Exit(1)
	}
	cancel()

	c, err := cache.New(cfg.Redis.URL, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to cache backend")
		os.Exit(1)
	}

	store, err := objstore.New(&cfg.Storage, log)
	if err != nil {
		log.WithError(err).Error("Failed to initialize object storage")
		os.Exit(1)
	}

	// Identity and session layer
	users := identity.NewUserRepository(db, log)
	identitySvc := identity.NewService(log, users,
		identity.NewPasswordManager(),
		identity.NewTokenManager(&cfg.JWT),
		identity.NewSessionStore(c, log))

	// Real-time hub and push-backed notification inbox
	hub := realtime.NewHub(log)
	notificationSvc := notification.NewService(log, notification.NewRepository(db, log), hub)

	// Domain services
	doctorSvc := doctor.NewService(log, doctor.NewRepository(db, log), c)
	departmentSvc := department.NewCachedService(
		department.NewService(log, department.NewRepository(db, log)), c, log)
	appointmentSvc := appointment.NewService(log, appointment.NewRepository(db, log),
		c, doctorSvc, notificationSvc)
	prescriptionSvc := prescription.NewService(log, prescription.NewRepository(db, log),
		doctorSvc, notificationSvc)
	livestreamSvc := livestream.NewService(log, livestream.NewRepository(db, log), c, hub, users)
	uploadSvc := upload.NewService(log, upload.NewRepository(db, log), store)
	userSvc := user.NewService(log, users, c)
	profileSvc := patientprofile.NewService(log, patientprofile.NewRepository(db, log))

	router := server.NewRouter(server.Deps{
		Logger:                 log,
		DB:                     db,
		Cache:                  c,
		Identity:               identitySvc,
		IdentityHandlers:       identity.NewHandlers(identitySvc, log),
		UserHandlers:           user.NewHandlers(userSvc, log),
		DoctorHandlers:         doctor.NewHandlers(doctorSvc, log),
		DepartmentHandlers:     department.NewHandlers(departmentSvc, log),
		AppointmentHandlers:    appointment.NewHandlers(appointmentSvc, log),
		PrescriptionHandlers:   prescription.NewHandlers(prescriptionSvc, log),
		NotificationHandlers:   notification.NewHandlers(notificationSvc, log),
		PatientProfileHandlers: patientprofile.NewHandlers(profileSvc, log),
		LiveStreamHandlers:     livestream.NewHandlers(livestreamSvc, log),
		UploadHandlers:         upload.NewHandlers(uploadSvc, log),
		WS:                     realtime.NewHandler(hub, identitySvc, log),
	})

	srv := server.New(&cfg.Server, router)

	go func() {
		log.WithField("address", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down telemed server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info("Telemed server stopped")
}

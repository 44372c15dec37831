package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tcmclinic/telemed/internal/department"
	"github.com/tcmclinic/telemed/internal/doctor"
	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Seeds the schema plus a demo data set: an admin account, the standard
// departments, and a pair of clinicians with profiles. Safe to re-run;
// existing accounts and departments are left alone.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := db.CreateSchema(ctx); err != nil {
		log.WithError(err).Error("Failed to create database schema")
		os.Exit(1)
	}

	disabled, err := cache.New("", log)
	if err != nil {
		log.WithError(err).Error("Failed to initialize cache")
		os.Exit(1)
	}

	users := identity.NewUserRepository(db, log)
	identitySvc := identity.NewService(log, users,
		identity.NewPasswordManager(),
		identity.NewTokenManager(&cfg.JWT),
		identity.NewSessionStore(disabled, log))
	departments := department.NewService(log, department.NewRepository(db, log))
	doctors := doctor.NewService(log, doctor.NewRepository(db, log), disabled)

	seedUser(ctx, log, identitySvc, &types.RegisterRequest{
		Account:  "admin",
		Name:     "Administrator",
		Password: envOr("SEED_ADMIN_PASSWORD", "admin123"),
		Phone:    "13800000000",
		Role:     types.RoleAdmin,
	})

	for _, req := range []*types.CreateDepartmentRequest{
		{Code: "internal", Name: "Internal Medicine", Description: "Herbal treatment of internal conditions"},
		{Code: "acupuncture", Name: "Acupuncture & Moxibustion", Description: "Needling and moxibustion therapy"},
		{Code: "tuina", Name: "Tuina Massage", Description: "Therapeutic massage and manipulation"},
		{Code: "gynecology", Name: "Gynecology", Description: "Women's health"},
		{Code: "pediatrics", Name: "Pediatrics", Description: "Children's health"},
	} {
		if _, err := departments.Create(ctx, req); err != nil {
			if appErr := types.AsAppError(err); appErr != nil && appErr.Kind == types.ErrorKindConflict {
				continue
			}
			log.WithError(err).WithField("code", req.Code).Error("Failed to seed department")
			os.Exit(1)
		}
		log.WithField("code", req.Code).Info("Seeded department")
	}

	for _, d := range []struct {
		account    string
		name       string
		department string
		title      string
	}{
		{"dr.chen", "Chen Wei", "internal", "Chief Physician"},
		{"dr.liu", "Liu Mei", "acupuncture", "Attending Physician"},
	} {
		userID := seedUser(ctx, log, identitySvc, &types.RegisterRequest{
			Account:  d.account,
			Name:     d.name,
			Password: envOr("SEED_DOCTOR_PASSWORD", "doctor123"),
			Phone:    "13900000000",
			Role:     types.RoleDoctor,
		})
		if userID == "" {
			continue
		}
		if _, err := doctors.Create(ctx, &types.CreateDoctorRequest{
			UserID:     userID,
			Hospital:   "Harmony TCM Clinic",
			Department: d.department,
			Title:      d.title,
		}); err != nil {
			log.WithError(err).WithField("account", d.account).Error("Failed to seed clinician profile")
			os.Exit(1)
		}
		log.WithField("account", d.account).Info("Seeded clinician")
	}

	log.Info("Seed complete")
}

// seedUser creates an account, returning its ID or "" when the account
// already exists.
func seedUser(ctx context.Context, log *logger.Logger, identitySvc *identity.Service, req *types.RegisterRequest) string {
	user, err := identitySvc.Register(ctx, req)
	if err != nil {
		if appErr := types.AsAppError(err); appErr != nil && appErr.Kind == types.ErrorKindConflict {
			log.WithField("account", req.Account).Info("Account already seeded")
			return ""
		}
		log.WithError(err).WithField("account", req.Account).Error("Failed to seed account")
		os.Exit(1)
	}

	log.WithField("account", req.Account).Info("Seeded account")
	return user.ID
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

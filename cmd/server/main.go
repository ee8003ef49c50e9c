package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/movequote/internal/config"
	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/estimates"
	"github.com/Simplici0/movequote/internal/export"
	"github.com/Simplici0/movequote/internal/migrations"
	"github.com/Simplici0/movequote/internal/rates"
	"github.com/Simplici0/movequote/internal/seed"
	"github.com/Simplici0/movequote/internal/settings"
)

type server struct {
	auth      *authService
	db        *sql.DB
	estimates *estimates.Service
	export    export.Options
}

func newServer(database *sql.DB, cfg config.Config) *server {
	return &server{
		auth:      newAuthService(database, cfg.SessionSecret),
		db:        database,
		estimates: estimates.NewService(database),
		export:    export.Options{CompanyName: cfg.CompanyName, FontPath: cfg.PDFFontPath},
	}
}

// resolver reads rates outside any transaction. Writes that persist derived
// amounts resolve rates inside their own transaction instead.
func (s *server) resolver() *rates.Resolver {
	return rates.NewResolver(settings.NewStore(s.db))
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(ctx, database); err != nil {
			log.Fatalf("failed to run database migrations: %v", err)
		}
	}

	stats, err := seed.Run(ctx, database, seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	if err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
	log.Printf("seed: %d inserted, %d already present", stats.Inserts, stats.Skipped)

	srv := newServer(database, cfg)

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"success": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/staff-rates", s.handleStaffRates)
			r.Get("/service-rates", s.handleServiceRates)
			r.Get("/vehicle-pricing", s.handleVehiclePricing)
			r.Post("/master-staff-rates", s.handleMasterStaffRates)
			r.Get("/master-settings", s.handleListSettings)
			r.Put("/master-settings", s.handlePutSetting)
			r.Get("/rate-fallbacks", s.handleRateFallbacks)
			r.Get("/settings/backup", s.handleSettingsBackup)
			r.Post("/settings/restore", s.handleSettingsRestore)

			r.Post("/drafts", s.handleNewDraft)
			r.Post("/drafts/steps/{step}", s.handleDraftStep)

			r.Get("/estimates", s.handleListEstimates)
			r.Post("/estimates", s.handleSubmitEstimate)
			r.Get("/estimates/{id}", s.handleGetEstimate)
			r.Put("/estimates/{id}", s.handleUpdateEstimate)
			r.Delete("/estimates/{id}", s.handleDeleteEstimate)
			r.Put("/estimates/{id}/status", s.handleEstimateStatus)
			r.Get("/estimates/{id}/pdf", s.handleEstimatePDF)
			r.Get("/estimates/{id}/mail", s.handleEstimateMail)

			r.Get("/customers", s.handleListCustomers)
			r.Post("/customers", s.handleCreateCustomer)
			r.Get("/customers/{id}", s.handleGetCustomer)
			r.Put("/customers/{id}", s.handleUpdateCustomer)
			r.Delete("/customers/{id}", s.handleDeleteCustomer)

			r.Get("/projects", s.handleListProjects)
			r.Post("/projects", s.handleCreateProject)
			r.Get("/projects/{id}", s.handleGetProject)
			r.Put("/projects/{id}", s.handleUpdateProject)
			r.Delete("/projects/{id}", s.handleDeleteProject)
			r.Put("/projects/{id}/status", s.handleProjectStatus)
			r.Get("/projects/{id}/status-history", s.handleStatusHistory)
		})
	})

	return r
}

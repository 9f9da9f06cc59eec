package api

import (
	"fmt"

	"github.com/gorilla/mux"

	"github.com/garnizeh/jobtrack/internal/applications"
	"github.com/garnizeh/jobtrack/internal/attachment"
	"github.com/garnizeh/jobtrack/internal/config"
	"github.com/garnizeh/jobtrack/internal/credentials"
	"github.com/garnizeh/jobtrack/internal/db"
	"github.com/garnizeh/jobtrack/internal/repository/sqlite"
	"github.com/garnizeh/jobtrack/internal/schema"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository and services
	repo := sqlite.New(db, logger)
	creds := credentials.NewService(repo, cfg.BcryptCost, logger)
	apps := applications.NewService(repo, logger)

	schemas, err := schema.NewLoader(nil)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	storage, err := attachment.NewDirStorage(cfg.Uploads.Dir)
	if err != nil {
		return nil, err
	}
	ingestor := attachment.NewIngestor(storage, cfg.Uploads.URLPrefix, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(creds, cfg.JWTSecret, cfg.TokenDuration)
	profileHandler := NewProfileHandler(creds)
	applicationsHandler := NewApplicationsHandler(apps, schemas)
	uploadsHandler := NewUploadsHandler(ingestor)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")
	r.HandleFunc(ingestor.URLPrefix()+"/{name}", uploadsHandler.Serve).Methods("GET")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Profile and users
	apiV1.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	apiV1.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")
	apiV1.HandleFunc("/users", profileHandler.ListUsers).Methods("GET")

	// Applications endpoints
	apiV1.HandleFunc("/applications", applicationsHandler.CreateApplication).Methods("POST")
	apiV1.HandleFunc("/applications", applicationsHandler.ListApplications).Methods("GET")
	apiV1.HandleFunc("/applications/{id}", applicationsHandler.GetApplication).Methods("GET")
	apiV1.HandleFunc("/applications/{id}", applicationsHandler.UpdateApplication).Methods("PUT")
	apiV1.HandleFunc("/applications/{id}", applicationsHandler.DeleteApplication).Methods("DELETE")

	// Attachments
	apiV1.HandleFunc("/uploads", uploadsHandler.Upload).Methods("POST")

	return r, nil
}

package main

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/db"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/logger"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/services"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/storage"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/work"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/continuous"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/keywords"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/orchestrator"
	"github.com/LexiconIndonesia/prospect-discovery-service/handler"
	"github.com/LexiconIndonesia/prospect-discovery-service/middlewares"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type AppHttpServer struct {
	router       *chi.Mux
	cfg          config.Config
	server       *http.Server
	db           *db.DB
	orchestrator *orchestrator.Orchestrator
	planner      *keywords.Planner
	searches     *continuous.Manager
	contacts     *services.ContactRepository
	archiver     *storage.BatchArchiver
	logService   *logger.LogService
	jobs         *services.JobRepository
	workManager  *work.WorkManager
	scraper      *sources.PageScraper
}

func NewAppHttpServer(cfg config.Config) (*AppHttpServer, error) {
	r := chi.NewRouter()

	// Basic CORS
	// for more ideas, see: https://developer.github.com/v3/#cross-origin-resource-sharing
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middlewares.ApiKeyHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// A discovery walks several backends with delays in between, so the
	// request budget is generous.
	r.Use(middleware.Timeout(3 * time.Minute))

	server := &AppHttpServer{
		router: r,
		cfg:    cfg,
	}
	return server, nil
}

// SetDB sets the database dependency
func (s *AppHttpServer) SetDB(db *db.DB) {
	s.db = db
}

// SetDiscovery sets the one-shot discovery dependencies
func (s *AppHttpServer) SetDiscovery(o *orchestrator.Orchestrator, planner *keywords.Planner) {
	s.orchestrator = o
	s.planner = planner
}

// SetSearchManager sets the continuous search manager
func (s *AppHttpServer) SetSearchManager(m *continuous.Manager) {
	s.searches = m
}

// SetContacts sets the contact repository
func (s *AppHttpServer) SetContacts(contacts *services.ContactRepository) {
	s.contacts = contacts
}

// SetArchiver sets the batch archive; nil when GCS is not configured
func (s *AppHttpServer) SetArchiver(archiver *storage.BatchArchiver) {
	s.archiver = archiver
}

// SetLogService sets the lifecycle event logger
func (s *AppHttpServer) SetLogService(ls *logger.LogService) {
	s.logService = ls
}

// SetWorks sets the search job history and the running flags
func (s *AppHttpServer) SetWorks(jobs *services.JobRepository, wm *work.WorkManager) {
	s.jobs = jobs
	s.workManager = wm
}

// SetScraper sets the direct page scraper
func (s *AppHttpServer) SetScraper(scraper *sources.PageScraper) {
	s.scraper = scraper
}

func (s *AppHttpServer) healthDeps() map[string]handler.Pinger {
	deps := map[string]handler.Pinger{}
	if s.db == nil {
		log.Warn().Msg("DB dependency not set")
		return deps
	}
	deps["postgres"] = s.db
	if s.db.Redis != nil {
		deps["redis"] = s.db.Redis
	}
	return deps
}

func (s *AppHttpServer) setupRoute() {
	r := s.router

	if s.orchestrator == nil || s.searches == nil {
		log.Fatal().Msg("Discovery dependencies not set")
	}

	// API Documentation with Swagger
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // The URL pointing to API definition
	))

	healthHandler := handler.NewHealthHandler(s.healthDeps(), s.orchestrator.Adapters())

	// Public health endpoint (no authentication required)
	r.Mount("/health", healthHandler.Router())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middlewares.ApiKey(s.cfg.Security.BackendApiKey))

		var contacts interface {
			handler.ContactSaver
			handler.ContactLister
		}
		if s.contacts != nil {
			contacts = s.contacts
		}
		var batches handler.BatchURLSigner
		if s.archiver != nil {
			batches = s.archiver
		}
		var events handler.DiscoveryLogger
		if s.logService != nil {
			events = s.logService
		}

		// Handlers
		discoveryHandler := handler.NewDiscoveryHandler(s.orchestrator, contacts, events, s.cfg.Discovery)
		keywordHandler := handler.NewKeywordHandler(s.planner)
		campaignHandler := handler.NewCampaignHandler(s.searches, contacts, batches)
		sourceHandler := handler.NewDataSourceHandler(slices.Sorted(maps.Keys(source.GetRegistry())), s.orchestrator.Adapters())

		r.Mount("/discover", discoveryHandler.Router())
		r.Mount("/keywords", keywordHandler.Router())
		r.Mount("/campaigns", campaignHandler.Router())
		r.Mount("/sources", sourceHandler.Router())
		if s.scraper != nil {
			r.Mount("/scrape", handler.NewScraperHandler(s.scraper).Router())
		}
		if s.jobs != nil && s.workManager != nil {
			r.Mount("/works", handler.NewWorkManagerHandler(s.jobs, s.workManager, s.searches).Router())
		}
		r.Mount("/health", healthHandler.Router())
	})

	log.Info().Str("service", common.AppName).Strs("adapters", s.orchestrator.Adapters()).Msg("Routes registered")
}

func (s *AppHttpServer) start() error {
	r := s.router
	cfg := s.cfg
	log.Info().Msg("Starting up server...")

	s.server = &http.Server{
		Addr:         cfg.Listen.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 4 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// This starts the server in a goroutine from main
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// stop gracefully shuts down the server
func (s *AppHttpServer) stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

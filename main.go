package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/constants"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/db"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/logger"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/messaging"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/services"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/storage"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/work"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/continuous"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/dedup"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/keywords"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/orchestrator"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources"

	"github.com/rs/zerolog/log"

	"github.com/joho/godotenv"

	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/duckduckgo"
	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/ollama"
	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/scrapingdog"
	_ "github.com/LexiconIndonesia/prospect-discovery-service/sources/searxng"
)

// seenTTL is how long a campaign remembers the addresses it already returned
const seenTTL = 30 * 24 * time.Hour

// @title          Prospect Discovery Service API
// @version        1.0
// @description    Finds contact addresses for marketing campaigns across search backends
// @termsOfService http://swagger.io/terms/

// @contact.name  API Support
// @contact.url   http://www.example.com/support
// @contact.email support@example.com

// @license.name Apache 2.0
// @license.url  http://www.apache.org/licenses/LICENSE-2.0.html

// @host     localhost:8080
// @BasePath /v1
// @schemes  http https

// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       X-API-KEY

func main() {
	// INITIATE CONFIGURATION
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	// Create a base context with cancel for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// INITIATE DATABASES
	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup database")
	}
	defer dbConn.Close()

	// Initialize zerolog database hooks
	logger.InitializeLogging(dbConn.Pool)
	log.Info().Msg("Zerolog database hooks initialized")

	// INITIATE NATS CLIENT
	natsClient, err := messaging.SetupNatsBroker(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup NATS client")
	}
	defer natsClient.Close()

	if _, err := messaging.EnsureStream(ctx, natsClient, constants.BatchStream, []string{constants.BatchSubjectWildcard}); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup batch stream")
	}

	// gcs
	var archiver *storage.BatchArchiver
	if cfg.GCS.Enabled() {
		gcsStorage, err := storage.NewGCSStorage(ctx, cfg.GCS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to setup GCS storage")
		}
		defer gcsStorage.Close()
		archiver = storage.NewBatchArchiver(gcsStorage, cfg.GCS.Bucket, common.BatchArchivePrefix)
	} else {
		log.Warn().Msg("GCS not configured, batches will not be archived")
	}

	// SEARCH ADAPTERS
	deps := source.Dependencies{
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Cache: source.NewRedisCache(dbConn.Redis),
	}
	if cfg.Search.BrowserFallback {
		browser, err := source.NewBrowserFetcher(cfg.Search.BrowserControlURL, int(cfg.Search.PageFetchWorkers), cfg.Search.HTTPTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("Headless browser unavailable, page fallback disabled")
		} else {
			defer browser.Close()
			deps.Browser = browser
		}
	}

	adapters, err := source.Build(cfg.Search, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build search adapters")
	}

	scraper := sources.NewPageScraper(cfg.Search, deps)

	planner := keywords.NewPlanner()
	discovery := orchestrator.New(adapters, cfg.Discovery, orchestrator.WithPlanner(planner))
	log.Info().Strs("adapters", discovery.Adapters()).Msg("Search adapters registered successfully")

	// PERSISTENCE AND CONTINUOUS SEARCH
	contacts := services.NewContactRepository(dbConn.Pool)
	jobs := services.NewJobRepository(dbConn.Pool)
	workManager := work.NewWorkManager(dbConn.Redis, jobs)
	logService := logger.NewLogService(dbConn.Pool)

	sinks := []continuous.BatchSink{messaging.NewBatchPublisher(natsClient)}
	if archiver != nil {
		sinks = append(sinks, archiver)
	}

	searches := continuous.NewManager(discovery, planner, cfg.Continuous,
		continuous.WithSinks(sinks...),
		continuous.WithRunTracker(workManager),
		continuous.WithEventLogger(logService),
		continuous.WithTrackerFactory(func(campaignID string) dedup.Tracker {
			return dedup.NewRedisTracker(dbConn.Redis, campaignID, seenTTL)
		}),
	)

	// Searches marked running belong to a process that is gone
	if stale, err := workManager.ListRunningWorks(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to list running searches")
	} else {
		for _, id := range stale {
			log.Warn().Str("campaignID", id).Msg("Releasing search left running by a previous process")
			if err := workManager.Cancel(ctx, id); err != nil {
				log.Warn().Err(err).Str("campaignID", id).Msg("Failed to release search")
			}
		}
	}

	consumer, err := messaging.StartContactConsumer(natsClient, contacts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start contact consumer")
	}
	defer consumer.Stop()

	if err := messaging.SubscribeSearchControl(natsClient, searches); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe to search control")
	}
	log.Info().Msg("Message subscriptions registered successfully")

	// INITIATE SERVER
	server, err := NewAppHttpServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create the server")
	}

	// Inject dependencies
	server.SetDB(dbConn)
	server.SetDiscovery(discovery, planner)
	server.SetSearchManager(searches)
	server.SetContacts(contacts)
	server.SetArchiver(archiver)
	server.SetLogService(logService)
	server.SetWorks(jobs, workManager)
	server.SetScraper(scraper)

	// Setup routes
	server.setupRoute()

	// Start server in a goroutine
	go func() {
		if err := server.start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			cancel()
		}
	}()

	log.Info().Str("address", cfg.Listen.Addr()).Msg("Server started successfully")
	log.Info().Str("swagger", fmt.Sprintf("http://%s/swagger/index.html", cfg.Listen.Addr())).Msg("Swagger documentation available at")

	// Wait for shutdown signal
	select {
	case <-shutdown:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
	}

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := searches.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Continuous searches did not stop in time")
	}

	if err := server.stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server gracefully stopped")
}

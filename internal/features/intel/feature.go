package intel

import (
	"context"
	"fmt"
	"os"
	"time"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/handlers"
	"ctifeed/internal/features/intel/migrations"
	"ctifeed/internal/features/intel/services"
)

// Feature wires the threat-intel ingestion pipeline: migrations, stores,
// search index, orchestrator, scheduler, and the HTTP query boundary.
type Feature struct {
	config         *Config
	logger         *core.Logger
	migrationMgr   *migrations.Manager
	sourceService  *services.SourceService
	articleService *services.ArticleService
	searchIndex    *services.SearchIndex
	queryService   *services.QueryService
	fetcherService *services.FetcherService
	ingestService  *services.IngestService
	scheduler      *services.SchedulerService
	handlers       *handlers.Handlers
}

// NewFeature creates the intel feature
func NewFeature(logger *core.Logger, db *core.Database, config *Config) *Feature {
	featureLogger := logger.ForFeature("intel")

	migrationMgr := migrations.NewManager(db, featureLogger)
	sourceService := services.NewSourceService(db, featureLogger)
	articleService := services.NewArticleService(db, featureLogger)
	searchIndex := services.NewSearchIndex(db, featureLogger)
	queryService := services.NewQueryService(db, searchIndex, featureLogger)

	fetcherService := services.NewFetcherService(featureLogger, &services.FetcherConfig{
		UserAgent: config.UserAgent,
		Timeout:   30 * time.Second,
	})

	var translator services.Translator = services.NoopTranslator{}
	if config.TranslateURL != "" {
		translator = services.NewHTTPTranslator(config.TranslateURL, config.TranslateAPIKey, config.TargetLanguage)
	}

	ingestService := services.NewIngestService(
		fetcherService,
		articleService,
		sourceService,
		translator,
		featureLogger,
		&services.IngestConfig{
			MaxArticlesPerSource: config.MaxArticlesPerSource,
			TranslatePause:       config.TranslatePause,
		},
	)

	scheduler := services.NewSchedulerService(ingestService, featureLogger, time.Duration(config.FetchInterval)*time.Second)

	return &Feature{
		config:         config,
		logger:         featureLogger,
		migrationMgr:   migrationMgr,
		sourceService:  sourceService,
		articleService: articleService,
		searchIndex:    searchIndex,
		queryService:   queryService,
		fetcherService: fetcherService,
		ingestService:  ingestService,
		scheduler:      scheduler,
		handlers:       handlers.New(featureLogger, queryService, sourceService, ingestService, config.UpdateToken),
	}
}

// Init prepares storage and warms the pipeline. When the feature is enabled
// the periodic scheduler starts as well.
func (f *Feature) Init(ctx context.Context) error {
	if err := f.config.Validate(); err != nil {
		return err
	}

	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return err
	}

	if err := f.searchIndex.Setup(ctx); err != nil {
		return err
	}

	if err := f.seedSources(ctx); err != nil {
		return err
	}

	if err := f.ingestService.WarmSeen(ctx); err != nil {
		return err
	}

	if f.config.Enabled {
		if err := f.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start intel scheduler: %w", err)
		}
	}

	f.logger.Info("Intel feature initialized", "scheduler", f.config.Enabled, "fts", f.searchIndex.Available())
	return nil
}

// seedSources loads the catalog file when present. A missing file is fine:
// sources can be registered through the API instead.
func (f *Feature) seedSources(ctx context.Context) error {
	if _, err := os.Stat(f.config.SourcesFile); os.IsNotExist(err) {
		f.logger.Info("No source catalog file, skipping seed", "path", f.config.SourcesFile)
		return nil
	}

	catalog, err := services.LoadSourceCatalog(f.config.SourcesFile)
	if err != nil {
		return err
	}

	_, err = f.sourceService.Seed(ctx, catalog.Sources)
	return err
}

// Shutdown gracefully stops the feature
func (f *Feature) Shutdown(ctx context.Context) error {
	if f.config.Enabled && f.scheduler != nil {
		if err := f.scheduler.Stop(ctx); err != nil {
			f.logger.Error("Failed to stop intel scheduler", "error", err)
		}
	}
	return nil
}

// Handlers returns the HTTP boundary for mounting
func (f *Feature) Handlers() *handlers.Handlers {
	return f.handlers
}

// IngestService returns the ingestion orchestrator
func (f *Feature) IngestService() *services.IngestService {
	return f.ingestService
}

// QueryService returns the query service
func (f *Feature) QueryService() *services.QueryService {
	return f.queryService
}

// Command feedupdate runs a single scan of every enabled source and exits.
// It is meant for cron-style scheduling where the long-running server's
// internal timer is not wanted.
package main

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel"
	"ctifeed/internal/features/intel/migrations"
	"ctifeed/internal/features/intel/services"
)

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: feedupdate <update-token>")
		os.Exit(1)
	}

	expected := os.Getenv("CTI_UPDATE_TOKEN")
	if expected == "" || subtle.ConstantTimeCompare([]byte(os.Args[1]), []byte(expected)) != 1 {
		fmt.Fprintln(os.Stderr, "feedupdate: invalid update token")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("Scan failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	config, err := core.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	intelConfig := intel.NewConfig(config)
	if err := intelConfig.Validate(); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	coreLogger := core.NewLogger()
	coreDB := core.NewDatabase(db, coreLogger)
	featureLogger := coreLogger.ForFeature("intel")

	ctx := context.Background()

	if err := migrations.NewManager(coreDB, featureLogger).Migrate(ctx); err != nil {
		return err
	}

	index := services.NewSearchIndex(coreDB, featureLogger)
	if err := index.Setup(ctx); err != nil {
		return err
	}

	sourceService := services.NewSourceService(coreDB, featureLogger)
	articleService := services.NewArticleService(coreDB, featureLogger)

	if _, err := os.Stat(intelConfig.SourcesFile); err == nil {
		catalog, err := services.LoadSourceCatalog(intelConfig.SourcesFile)
		if err != nil {
			return err
		}
		if _, err := sourceService.Seed(ctx, catalog.Sources); err != nil {
			return err
		}
	}

	fetcher := services.NewFetcherService(featureLogger, &services.FetcherConfig{
		UserAgent: intelConfig.UserAgent,
		Timeout:   30 * time.Second,
	})

	var translator services.Translator = services.NoopTranslator{}
	if intelConfig.TranslateURL != "" {
		translator = services.NewHTTPTranslator(intelConfig.TranslateURL, intelConfig.TranslateAPIKey, intelConfig.TargetLanguage)
	}

	ingest := services.NewIngestService(fetcher, articleService, sourceService, translator, featureLogger, &services.IngestConfig{
		MaxArticlesPerSource: intelConfig.MaxArticlesPerSource,
		TranslatePause:       intelConfig.TranslatePause,
	})

	if err := ingest.WarmSeen(ctx); err != nil {
		return err
	}

	summary, err := ingest.UpdateAll(ctx)
	if err != nil {
		return err
	}

	for _, report := range summary.Sources {
		if report.Error != "" {
			fmt.Printf("%-30s error: %s\n", report.Name, report.Error)
			continue
		}
		fmt.Printf("%-30s new=%d duplicates=%d rejected=%d errors=%d\n",
			report.Name, report.NewArticles, report.Duplicates, report.Rejected, report.Errors)
	}
	fmt.Printf("sources=%d new_articles=%d\n", summary.SourcesProcessed, summary.NewArticles)

	return nil
}

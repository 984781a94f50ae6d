package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"invosight/internal/config"
	"invosight/internal/extractor"
	extractornvidia "invosight/internal/extractor/nvidia"
	extractoropenai "invosight/internal/extractor/openai"
	"invosight/internal/guard"
	"invosight/internal/handler"
	"invosight/internal/port"
	"invosight/internal/repository/postgres"
	"invosight/internal/router"
	"invosight/internal/schema"
	"invosight/internal/service"
	"invosight/internal/storage/noop"
	s3storage "invosight/internal/storage/s3"
	"invosight/internal/translator"
	translatornvidia "invosight/internal/translator/nvidia"
	translatoropenai "invosight/internal/translator/openai"
	"invosight/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func registerProviders() {
	extractor.RegisterProvider("nvidia", func(cfg *config.ProviderConfig) (port.VisionExtractor, error) {
		return extractornvidia.NewExtractor(cfg), nil
	})
	extractor.RegisterProvider("openai", func(cfg *config.ProviderConfig) (port.VisionExtractor, error) {
		return extractoropenai.NewExtractor(cfg), nil
	})
	translator.RegisterProvider("nvidia", func(cfg *config.ProviderConfig) (port.QueryTranslator, error) {
		return translatornvidia.NewTranslator(cfg), nil
	})
	translator.RegisterProvider("openai", func(cfg *config.ProviderConfig) (port.QueryTranslator, error) {
		return translatoropenai.NewTranslator(cfg), nil
	})
}

func run() error {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registerProviders()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	registry, err := schema.NewRegistry(cfg.Validation.RequiredFields, nil)
	if err != nil {
		return fmt.Errorf("failed to build schema registry: %w", err)
	}

	// Repositories
	invoiceRepo := postgres.NewInvoiceRepo(db)
	failureRepo := postgres.NewFailureRepo(db)
	recordStore := postgres.NewRecordStore(db, registry, cfg.Query.ExecTimeout)

	// Storage
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		storage = noop.NewStorage()
		log.Println("no S3 bucket configured; source images will not be retained")
	}

	// Extraction with optional fallback
	visionExtractor, err := extractor.NewExtractor(&cfg.Extractor.Primary)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	if secondary := cfg.Extractor.SecondaryConfig(); secondary != nil {
		fallback, ferr := extractor.NewExtractor(secondary)
		if ferr != nil {
			return fmt.Errorf("failed to create secondary extractor: %w", ferr)
		}
		visionExtractor = extractor.NewFallbackExtractor([]port.VisionExtractor{visionExtractor, fallback})
	}

	queryTranslator, err := translator.NewTranslator(&cfg.Translator.Provider)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	// Services
	v := validator.New(registry, cfg.Validation.ConfidenceThreshold, cfg.Validation.ToleranceMinor)
	ingestionSvc := service.NewIngestionService(
		visionExtractor, v, invoiceRepo, failureRepo, storage,
		service.DefaultRetryPolicy(cfg.Extractor.MaxRetries), cfg.Ingest.MaxImageSizeMB)
	querySvc := service.NewQueryService(
		queryTranslator, recordStore, guard.New(cfg.Query.MaxRows),
		service.DefaultRetryPolicy(2), cfg.Translator.MinConfidence, cfg.Query.MaxRows)

	// Handlers
	ingestH := handler.NewIngestHandler(ingestionSvc)
	queryH := handler.NewQueryHandler(querySvc)
	schemaH := handler.NewSchemaHandler(recordStore)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(ingestH, queryH, schemaH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"docverify-backend/internal/accounts"
	"docverify-backend/internal/documents"
	"docverify-backend/internal/extraction"
	"docverify-backend/internal/extraction/groq"
	"docverify-backend/internal/extraction/vision"
	"docverify-backend/internal/shared/config"
	"docverify-backend/internal/shared/server"
	"docverify-backend/internal/shared/storage/db"
	"docverify-backend/internal/shared/storage/object"
	localstore "docverify-backend/internal/shared/storage/object/local"
	s3store "docverify-backend/internal/shared/storage/object/s3"
	"docverify-backend/internal/verifications"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	AccountsRepo      accounts.Repo
	DocumentsRepo     documents.Repo
	VerificationsRepo verifications.Repo

	Extractor extraction.Service

	AccountsService      *accounts.Service
	VerificationsService *verifications.Service

	AccountHandler      *accounts.Handler
	VerificationHandler *verifications.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Extractor: extractor,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		VerificationHandler: app.VerificationHandler,
		AccountHandler:      app.AccountHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildExtractor(cfg config.Config) (extraction.Service, error) {
	if strings.TrimSpace(cfg.GroqAPIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: GROQ_API_KEY empty; extraction is not configured")
			return extraction.Placeholder{}, nil
		}
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}
	switch cfg.ExtractionBackend {
	case "vision":
		return vision.NewClient(cfg.GroqAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	default:
		return groq.NewClient(cfg.GroqAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.AccountsRepo = &accounts.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.VerificationsRepo = &verifications.PGRepo{DB: app.DB}
	} else {
		app.AccountsRepo = accounts.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.VerificationsRepo = verifications.NewMemoryRepo()
	}

	app.AccountsService = accounts.NewService(app.AccountsRepo)
	app.VerificationsService = &verifications.Service{
		Repo:      app.VerificationsRepo,
		Docs:      app.DocumentsRepo,
		Accounts:  app.AccountsService,
		Store:     app.Store,
		Extractor: app.Extractor,
		Threshold: app.Config.MatchThreshold,
	}

	app.AccountHandler = accounts.NewHandler(app.AccountsService)
	app.VerificationHandler = verifications.NewHandler(app.VerificationsService)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

//	@title			ImageVault API
//	@version		1.0
//	@description	Multi-tenant image upload service: normalizes uploads, derives thumbnails and stores both through a swappable blob backend.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/imagevault/service/internal/auth"
	"github.com/imagevault/service/internal/blob"
	"github.com/imagevault/service/internal/config"
	"github.com/imagevault/service/internal/db"
	"github.com/imagevault/service/internal/image"
	appMiddleware "github.com/imagevault/service/internal/middleware"
	"github.com/imagevault/service/internal/tenant"

	_ "github.com/imagevault/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	if !cfg.IsProduction() {
		if err := db.SeedDemoData(context.Background(), pool); err != nil {
			log.Fatal().Err(err).Msg("demo data seeding failed")
		}
	}

	store, err := newBlobStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("blob storage init failed")
	}
	log.Info().Str("backend", cfg.StorageBackend).Msg("blob storage ready")

	// Wire dependencies: repository → service → handler
	tenantRepo := tenant.NewRepository(pool)

	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, tenantRepo, cfg.JWTSecret)
	authHandler := auth.NewHandler(authSvc)

	imageRepo := image.NewPostgresRepository(pool)
	imageSvc := image.NewService(imageRepo, store, tenantRepo, image.Limits{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		ThumbnailMaxEdge: cfg.ThumbnailMaxEdge,
	})
	imageHandler := image.NewHandler(imageSvc, store)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Get("/images/blob/{container}/{key}", imageHandler.ServeBlob)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Get("/users/me", authHandler.GetMe)
			r.Route("/images", func(r chi.Router) {
				r.Post("/upload", imageHandler.Upload)
				r.Get("/", imageHandler.List)
				r.Get("/{id}", imageHandler.Get)
				r.Delete("/{id}", imageHandler.Delete)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

// newBlobStore selects the blob backend at wiring time. Everything
// downstream depends only on the blob.Store interface.
func newBlobStore(cfg *config.Config) (blob.Store, error) {
	switch cfg.StorageBackend {
	case "filesystem":
		return blob.NewFilesystemStore(cfg.StorageBasePath, cfg.PublicBaseURL)
	case "minio":
		return blob.NewMinioStore(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StoragePublicBase,
			cfg.StorageUseSSL,
		)
	default:
		return blob.NewMemoryStore(cfg.PublicBaseURL), nil
	}
}

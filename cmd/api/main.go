package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileintake/internal/config"
	"fileintake/internal/database"
	"fileintake/internal/domain/upload"
	"fileintake/internal/logger"
	"fileintake/internal/middleware"
	"fileintake/internal/pathstore"
	jwtsvc "fileintake/internal/pkg/jwt"
	"fileintake/internal/s3mirror"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}
	log := logger.Init(cfg.AppEnv)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&upload.Upload{}); err != nil {
		return err
	}

	staging, err := upload.NewStagingArea(cfg.Upload.StagingDir)
	if err != nil {
		return err
	}

	store := pathstore.New(nil, pathstore.Ownership{User: cfg.Upload.WebUser, Group: cfg.Upload.WebGroup}, log)
	repo := upload.NewRepository(db)
	recorder := upload.NewRecorder(repo, cfg.Upload.BasePath, cfg.Upload.StaticURL, log)

	hooks := []upload.PostMoveFunc{recorder.Record}
	var mirror *s3mirror.Mirror
	if cfg.S3.Enabled() {
		mirror, err = s3mirror.New(ctx, s3mirror.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			Prefix:          cfg.S3.Prefix,
			UploadTimeout:   time.Minute,
		}, upload.RelativeFunc(cfg.Upload.BasePath), s3mirror.WithLogger(log))
		if err != nil {
			return err
		}
		hooks = append(hooks, mirror.Hook)
	}

	pipeline := upload.NewPipeline(store, upload.Options{
		BasePath:          cfg.Upload.BasePath,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		Verifier:          staging,
		PostMove:          upload.Chain(hooks...),
		Logger:            log,
	})
	service := upload.NewService(repo, pipeline, staging, cfg.Upload.MaxFileSize)
	if mirror != nil {
		service.OnRemove(mirror.OnRemove)
	}
	handler := upload.NewHandler(service)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Static(cfg.Upload.StaticURL, cfg.Upload.BasePath)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(j))
	upload.RegisterRoutes(protected, handler)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnly())
	upload.RegisterAdminRoutes(admin, handler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "addr", cfg.HTTPAddr, "base_path", pipeline.BasePath(), "s3_mirror", mirror != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

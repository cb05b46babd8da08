package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/cropscan/internal/application"
	appdiag "github.com/bryanwahyu/cropscan/internal/application/diagnosis"
	"github.com/bryanwahyu/cropscan/internal/config"
	domain "github.com/bryanwahyu/cropscan/internal/domain/diagnosis"
	"github.com/bryanwahyu/cropscan/internal/infra/analyzer"
	"github.com/bryanwahyu/cropscan/internal/infra/httpserver"
	"github.com/bryanwahyu/cropscan/internal/infra/storage"
	"github.com/bryanwahyu/cropscan/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// pick storage driver
	var (
		images    domain.ImageStore
		uploadDir string
		checkers  = map[string]middleware.HealthChecker{}
	)
	switch cfg.Storage.Driver {
	case "minio":
		store, err := storage.NewMinio(ctx,
			cfg.Storage.Minio.Endpoint,
			cfg.Storage.Minio.Region,
			cfg.Storage.Minio.BucketName,
			cfg.Storage.Minio.AccessKey,
			cfg.Storage.Minio.SecretKey,
			cfg.Storage.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		images = store
		checkers["storage"] = middleware.MinioChecker{Client: store.Client(), Bucket: store.Bucket()}
	default:
		store := storage.NewLocal(cfg.Storage.UploadDir)
		images = store
		uploadDir = store.Dir()
		checkers["storage"] = middleware.UploadDirChecker{Dir: store.Dir()}
	}

	az := analyzer.New(application.SystemRand{})

	svc := &appdiag.Service{
		Analyzer: az,
		Colors:   az,
		Images:   images,
		Clock:    application.SystemClock{},
		Rand:     application.SystemRand{},
		Delay:    cfg.Delay(),
		Strict:   cfg.Analysis.Strict,
	}

	handler, err := httpserver.NewRouter(httpserver.Deps{
		Service:        svc,
		Flash:          middleware.NewFlash([]byte(cfg.App.SecretKey)),
		MaxUploadBytes: cfg.App.MaxUploadBytes,
		UploadDir:      uploadDir,
		Health:         checkers,
	})
	if err != nil {
		log.Fatalf("router init error: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("cropscan listening on %s", cfg.Addr())
		log.Printf("storage driver=%s upload_dir=%s max_upload=%d", cfg.Storage.Driver, uploadDir, cfg.App.MaxUploadBytes)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

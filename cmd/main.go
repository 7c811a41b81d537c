package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpctx "github.com/postpilot/postpilot-server/internal/api/http/context"
	"github.com/postpilot/postpilot-server/internal/api/http/router"
	"github.com/postpilot/postpilot-server/internal/config"
	"github.com/postpilot/postpilot-server/internal/httpauth"
	"github.com/postpilot/postpilot-server/internal/identity"
	"github.com/postpilot/postpilot-server/internal/logger"
	"github.com/postpilot/postpilot-server/internal/model"
	"github.com/postpilot/postpilot-server/internal/relay"
	"github.com/postpilot/postpilot-server/internal/repository/postgres"
	"github.com/postpilot/postpilot-server/internal/scheduler"
	"github.com/postpilot/postpilot-server/internal/server"
	"github.com/postpilot/postpilot-server/internal/service"
	storage "github.com/postpilot/postpilot-server/internal/storage/minio"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	postRepo := postgres.NewPostRepository(db)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	dispatcher := buildDispatcher(ctx, cfg, logger)

	postService := service.NewPost(postRepo, dispatcher, logger)
	mediaService := service.NewMedia(storageClient, cfg.HTTP.BaseURL, logger)

	validator := httpauth.NewValidator(cfg.Auth.WindowSeconds)
	ctxMgr := httpctx.NewManager()

	r := router.New(postService, mediaService, validator, ctxMgr, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// buildDispatcher wires the scheduling path when a server identity and a
// delegate are configured; otherwise scheduling endpoints report the delegate
// as unavailable.
func buildDispatcher(ctx context.Context, cfg *config.Config, logger *logger.Logger) service.Dispatcher {
	if cfg.Nostr.SecretKey == "" || cfg.Nostr.DelegatePubkey == "" {
		logger.Info("scheduling disabled: no server identity or delegate configured")
		return nil
	}

	keyer, err := identity.NewKeySigner(cfg.Nostr.SecretKey)
	if err != nil {
		logger.Fatal("failed to load server identity", "error", err)
	}

	pool := relay.NewPool(ctx, cfg.Nostr.Relays, logger.Component("relay"))

	return scheduler.NewDispatcher(keyer, cfg.Nostr.DelegatePubkey, pool, logger.Component("scheduler"))
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

// Command server runs both grant handlers behind a local stand-in for the
// API gateway, for development against MinIO or LocalStack.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/file-grants/internal/api"
	"alcyxob/file-grants/internal/bootstrap"
	"alcyxob/file-grants/internal/config"
	"alcyxob/file-grants/internal/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fallback, _ := logger.New(logger.Config{})
		fallback.Fatal("could not load config", logger.Error(err))
	}

	log, err := bootstrap.Logger(cfg.Log)
	if err != nil {
		panic(err)
	}
	log = log.WithField("function", "server")
	defer log.Sync()

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is required by the local gateway")
	}

	grants, cleanup, err := bootstrap.NewGrantService(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("could not initialize grant service", logger.Error(err))
	}
	defer cleanup()

	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, log,
		api.NewDownloadGrantHandler(grants),
		api.NewUploadGrantHandler(grants))

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", logger.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", logger.Error(err))
	}
	log.Info("server exiting")
}

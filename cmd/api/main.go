package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Kalpithaac/enitity/internal/config"
	"github.com/Kalpithaac/enitity/internal/gateway"
	"github.com/Kalpithaac/enitity/internal/logger"
	"github.com/Kalpithaac/enitity/internal/processor"
	"github.com/Kalpithaac/enitity/internal/server"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	cfg := config.Load()
	log.WithField("service", "enitity").WithField("provider", cfg.Gateway.Provider).Info("starting service")

	if missing := cfg.Gateway.Missing(); len(missing) > 0 {
		log.WithField("missing", missing).Warn("gateway settings incomplete; extraction calls will fail until set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.New(ctx, cfg.Gateway, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build model gateway")
	}
	proc := processor.New(gw, cfg.MaxDocumentChars, log)
	srv := server.New(cfg, proc, log).NewHTTPServer()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown did not complete cleanly")
		}
	}()

	log.WithField("addr", srv.Addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}

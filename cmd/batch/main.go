package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Kalpithaac/enitity/internal/config"
	"github.com/Kalpithaac/enitity/internal/dataset"
	"github.com/Kalpithaac/enitity/internal/gateway"
	"github.com/Kalpithaac/enitity/internal/logger"
	"github.com/Kalpithaac/enitity/internal/processor"
)

func main() {
	var (
		manifest    = flag.String("manifest", "", "XLSX manifest with file and fields columns (required)")
		out         = flag.String("out", "", "output XLSX path (defaults to <manifest dir>/extraction_results.xlsx)")
		timeout     = flag.Duration("timeout", 2*time.Minute, "per-document timeout")
		concurrency = flag.Int("concurrency", 4, "documents processed in parallel")
	)
	flag.Parse()

	if *manifest == "" {
		fmt.Fprintln(os.Stderr, "Error: -manifest is required")
		flag.Usage()
		os.Exit(2)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*manifest), "extraction_results.xlsx")
	}

	_ = godotenv.Load()
	log := logger.New()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := dataset.Load(*manifest, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load manifest")
	}

	gw, err := gateway.New(ctx, cfg.Gateway, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build model gateway")
	}
	proc := processor.New(gw, cfg.MaxDocumentChars, log)

	log.WithField("documents", len(entries)).WithField("provider", gw.Name()).Info("batch started")
	start := time.Now()
	results, err := dataset.Run(ctx, proc, entries, dataset.RunOptions{Timeout: *timeout, Concurrency: *concurrency}, log)
	if err != nil {
		log.WithError(err).Warn("batch interrupted, writing partial results")
	}

	summary, werr := dataset.WriteResults(*out, results)
	if werr != nil {
		log.WithError(werr).Fatal("failed to write results")
	}
	log.WithField("out", *out).
		WithField("documents", summary.Documents).
		WithField("failed", summary.Failed).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("batch finished")

	if err != nil || summary.Failed > 0 {
		os.Exit(1)
	}
}

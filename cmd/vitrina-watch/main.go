package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitrina/internal/config"
	"vitrina/internal/exporter"
	"vitrina/internal/listener"
	"vitrina/internal/observability"
	"vitrina/internal/pipeline"
	"vitrina/internal/render"
	"vitrina/internal/share"
	gmaildrafts "vitrina/internal/share/gmail"
	imapdrafts "vitrina/internal/share/imap"
	"vitrina/internal/storage"
)

// vitrina-watch republishes the SQLite catalog whenever a new version is saved.
func main() {
	cfg, err := config.Load()
	must(err)

	logger, err := observability.NewLogger(cfg.LogLevel)
	must(err)
	defer logger.Sync()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := listener.Options{
		Interval: time.Duration(cfg.WatchIntervalSec) * time.Second,
		Logger:   logger.Named("listener"),
		Message:  share.Message{From: cfg.MailFrom, To: cfg.MailTo},
	}
	if cfg.WatchShare {
		must(cfg.Require("MAIL_FROM", cfg.MailFrom))
		switch cfg.ShareProvider {
		case "gmail":
			opts.Drafts, err = gmaildrafts.NewConnector(ctx, cfg)
		case "imap":
			opts.Drafts, err = imapdrafts.NewConnector(cfg)
		default:
			err = fmt.Errorf("unsupported share provider: %s", cfg.ShareProvider)
		}
		must(err)
	}

	prices := render.NewPriceFormatter(cfg.PriceLocale, cfg.CurrencyCode, cfg.CurrencySymbol)
	svc := listener.NewService(pipeline.NewSession(db, logger), exporter.New(cfg.OutputDir, prices, db), opts)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

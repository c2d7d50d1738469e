package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/translationhelps/helps-proxy/internal/audit"
	"github.com/translationhelps/helps-proxy/internal/catalog"
	"github.com/translationhelps/helps-proxy/internal/config"
	"github.com/translationhelps/helps-proxy/internal/gateway"
	"github.com/translationhelps/helps-proxy/internal/store/sqlite"
	"github.com/translationhelps/helps-proxy/internal/upstream"
)

func cmdServe(args []string) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}

	// Stdout carries the MCP stream; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	client := upstream.New(cfg.UpstreamURL, !cfg.Insecure)
	defer client.Close()

	// Best-effort connectivity probe. Failure is logged, not fatal: the
	// upstream may come back before the first real request.
	if err := client.Ping(ctx); err != nil {
		slog.Warn("upstream connectivity check failed",
			"url", cfg.UpstreamURL, "error", err)
	} else {
		slog.Info("connected to upstream", "url", cfg.UpstreamURL)
	}

	cat := catalog.New(client, cfg.EnabledTools, cfg.HiddenParams)

	// An allow-list naming unknown tools is an operator error; surface it
	// before serving when the upstream catalog is reachable.
	if cfg.EnabledTools != nil {
		if _, err := cat.List(ctx); err != nil {
			if errors.Is(err, catalog.ErrUnknownTools) {
				return err
			}
			slog.Warn("deferring enabled-tools validation to first catalog fetch",
				"error", err)
		} else {
			slog.Info("tool filtering active", "enabled", cfg.EnabledTools)
		}
	}

	var opts []gateway.ServerOption
	if cfg.FilterBookNotes {
		opts = append(opts, gateway.WithBookChapterNoteFilter())
	}

	if cfg.AuditDB != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.AuditDB), 0o755); err != nil {
			slog.Warn("audit disabled: cannot create data dir", "error", err)
		} else if db, err := sqlite.New(ctx, cfg.AuditDB); err != nil {
			slog.Warn("audit disabled: cannot open database",
				"path", cfg.AuditDB, "error", err)
		} else {
			defer db.Close()
			opts = append(opts, gateway.WithAudit(db, audit.NewLogger(db)))
		}
	}

	slog.Info("starting MCP proxy server", "upstream", cfg.UpstreamURL)
	gw := gateway.NewServer(cat, client, opts...)
	if err := gw.RunStdio(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("shutting down")
			return nil
		}
		return err
	}
	return nil
}

// resolveConfig merges env defaults, the optional YAML file, and flags, in
// ascending precedence.
func resolveConfig(args []string) (*Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Flags are parsed twice so --config= can point at the file whose
	// values the remaining flags then override.
	applyFlags(cfg, args)
	if cfg.ConfigFile != "" {
		if _, err := os.Stat(cfg.ConfigFile); err == nil {
			fileCfg, err := config.LoadFile(cfg.ConfigFile)
			if err != nil {
				return nil, err
			}
			applyFile(cfg, fileCfg)
			applyFlags(cfg, args)
		}
	}
	return cfg, nil
}

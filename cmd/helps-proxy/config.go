package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/translationhelps/helps-proxy/internal/config"
)

const defaultUpstreamURL = "https://translation-helps-mcp.pages.dev/api/mcp"

// Config holds the resolved process configuration. Precedence: flags over
// config file over environment defaults. Immutable once serve starts.
type Config struct {
	UpstreamURL     string
	Insecure        bool       // disable TLS certificate verification
	EnabledTools    []string   // nil = all tools enabled, empty = none
	HiddenParams    []string   // schema properties hidden from clients
	FilterBookNotes bool       // drop book/chapter intro notes
	LogLevel        slog.Level
	ConfigFile      string     // path to helps-proxy.yaml
	AuditDB         string     // sqlite path; empty disables auditing
}

// defaultDataPath returns ~/.helps-proxy/<filename>, falling back to a
// CWD-relative path if the home directory can't be resolved.
func defaultDataPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filename
	}
	return filepath.Join(home, ".helps-proxy", filename)
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		UpstreamURL:     envOr("HELPS_PROXY_UPSTREAM_URL", defaultUpstreamURL),
		Insecure:        envBool("HELPS_PROXY_INSECURE"),
		EnabledTools:    splitListEnv("HELPS_PROXY_ENABLED_TOOLS"),
		HiddenParams:    splitListEnv("HELPS_PROXY_HIDDEN_PARAMS"),
		FilterBookNotes: envBool("HELPS_PROXY_FILTER_BOOK_NOTES"),
		LogLevel:        parseLogLevel(envOr("HELPS_PROXY_LOG_LEVEL", "info")),
		ConfigFile:      envOr("HELPS_PROXY_CONFIG", defaultDataPath("helps-proxy.yaml")),
		AuditDB:         envOr("HELPS_PROXY_AUDIT_DB", defaultDataPath("helps-proxy.db")),
	}
	return cfg, nil
}

// applyFile overlays values from an optional YAML config file.
func applyFile(cfg *Config, fc *config.FileConfig) {
	if fc.UpstreamURL != "" {
		cfg.UpstreamURL = fc.UpstreamURL
	}
	if fc.Insecure {
		cfg.Insecure = true
	}
	if fc.EnabledTools != nil {
		cfg.EnabledTools = fc.EnabledTools
	}
	if fc.HiddenParams != nil {
		cfg.HiddenParams = fc.HiddenParams
	}
	if fc.FilterBookNotes {
		cfg.FilterBookNotes = true
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.AuditDB != "" {
		cfg.AuditDB = fc.AuditDB
	}
}

// applyFlags parses --flag=value style arguments.
func applyFlags(cfg *Config, args []string) {
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--upstream-url="):
			cfg.UpstreamURL = strings.TrimPrefix(arg, "--upstream-url=")
		case strings.HasPrefix(arg, "--enabled-tools="):
			cfg.EnabledTools = splitList(strings.TrimPrefix(arg, "--enabled-tools="))
		case strings.HasPrefix(arg, "--hidden-params="):
			cfg.HiddenParams = splitList(strings.TrimPrefix(arg, "--hidden-params="))
		case strings.HasPrefix(arg, "--config="):
			cfg.ConfigFile = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--audit-db="):
			cfg.AuditDB = strings.TrimPrefix(arg, "--audit-db=")
		case arg == "--debug":
			cfg.LogLevel = slog.LevelDebug
		case arg == "--insecure":
			cfg.Insecure = true
		case arg == "--filter-book-notes":
			cfg.FilterBookNotes = true
		case arg == "--no-audit":
			cfg.AuditDB = ""
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// splitListEnv returns nil when the variable is unset, preserving the
// "no allow-list" state. A set-but-empty variable yields an empty list.
func splitListEnv(key string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	return splitList(v)
}

// splitList splits a comma-separated list, trimming whitespace. An empty
// input yields an empty (non-nil) list: explicitly nothing enabled.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

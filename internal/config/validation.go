package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"": true, "debug": true, "info": true, "warn": true, "error": true,
}

func validate(cfg *FileConfig) error {
	if cfg.UpstreamURL != "" {
		u, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return fmt.Errorf("invalid upstream_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid upstream_url: scheme must be http or https, got %q", u.Scheme)
		}
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn, or error", cfg.LogLevel)
	}

	for _, name := range cfg.EnabledTools {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("enabled_tools contains an empty name")
		}
	}
	for _, name := range cfg.HiddenParams {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("hidden_params contains an empty name")
		}
	}
	return nil
}

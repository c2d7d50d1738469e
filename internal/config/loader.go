// Package config loads the optional helps-proxy.yaml configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the top-level helps-proxy.yaml structure. Absent
// keys keep their zero values; an absent enabled_tools list (nil) means all
// tools are enabled, while an explicitly empty list disables every tool.
type FileConfig struct {
	UpstreamURL     string   `yaml:"upstream_url"`
	Insecure        bool     `yaml:"insecure"`
	EnabledTools    []string `yaml:"enabled_tools"`
	HiddenParams    []string `yaml:"hidden_params"`
	FilterBookNotes bool     `yaml:"filter_book_notes"`
	LogLevel        string   `yaml:"log_level"`
	AuditDB         string   `yaml:"audit_db"`
}

// LoadFile reads, parses, and validates a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML config data.
func Parse(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

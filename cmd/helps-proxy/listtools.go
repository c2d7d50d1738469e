package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/translationhelps/helps-proxy/internal/upstream"
)

// cmdListTools prints the live upstream tool catalog and exits. An
// unreachable upstream is a fatal error (exit 1).
func cmdListTools(args []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	client := upstream.New(cfg.UpstreamURL, !cfg.Insecure)
	defer client.Close()

	fmt.Println("Discovering available tools from upstream server...")
	raw, err := client.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("discover tools: %w", err)
	}

	var parsed struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse upstream catalog: %w", err)
	}
	if len(parsed.Tools) == 0 {
		return fmt.Errorf("no tools advertised by upstream server")
	}

	fmt.Printf("\nFound %d available tools:\n\n", len(parsed.Tools))
	for i, t := range parsed.Tools {
		fmt.Printf("%2d. %-25s - %s\n", i+1, t.Name, t.Description)
	}
	fmt.Println("\nUsage: --enabled-tools=\"tool1,tool2,tool3\"")
	fmt.Println("  Example: --enabled-tools=\"fetch_scripture,fetch_translation_notes\"")
	return nil
}

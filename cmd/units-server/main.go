// Command units-server serves the reconciliation pipeline over HTTP.
// POST /v1/reports with a multipart "database" (SQLite) and optional
// "costs" (CSV) returns the full report as JSON.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"unitdash/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Optional yaml config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	srv := server.New(cfg, logger)
	logger.Info("listening", "addr", cfg.Addr)
	if err := srv.Router().Run(cfg.Addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

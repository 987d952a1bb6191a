// # cmd/nuxtscan/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"nuxtscan/internal/config"
	"nuxtscan/internal/observability"
	"nuxtscan/internal/output"
)

var (
	configPath = flag.String("config", "", "Path to config file (optional)")
	mode       = flag.String("mode", "clean", "Run mode: clean (dead code) or vuln (risky patterns + advisories)")
	once       = flag.Bool("once", true, "Run a single scan and exit")
	watch      = flag.Bool("watch", false, "Watch the project tree and rescan on change")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode (implies --watch)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("nuxtscan v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	logOutput := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
			logOutput = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if flag.NArg() > 0 {
		cfg.Root = flag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(2)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			slog.Warn("trace flush failed", "error", err)
		}
	}()

	app, err := NewApp(cfg, *mode)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(2)
	}
	defer app.Close()

	result, err := app.Run(ctx)
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(2)
	}

	if !*ui {
		app.PrintSummary(result)
	}

	watching := *watch || *ui
	if *once && !watching {
		if output.ShouldFail(result.Findings, cfg.FailOn) {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewServer(cfg.Observability.MetricsAddr)
		if err := srv.Start(); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(2)
		}
		defer srv.Stop(ctx)
	}

	if err := app.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(2)
	}

	if *ui {
		if err := app.RunUI(result); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(2)
		}
	} else {
		select {}
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "nuxtscan", "nuxtscan.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "nuxtscan", "nuxtscan.log")
	}

	return "nuxtscan.log"
}

// Command termfix corrects philosophical terminology in transcribed text
// files, optionally followed by an LLM rewrite.
//
// Usage:
//
//	termfix [-config termfix.yaml] [-input dir] [-output dir] [file.txt ...]
//
// Without file arguments every *.txt file in the input directory is
// processed. Corrected files are written to the output directory as
// refined_<name>.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/termfix/internal/config"
	"github.com/MrWong99/termfix/internal/health"
	"github.com/MrWong99/termfix/internal/observe"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one batch with the given command-line arguments and returns
// the process exit code.
func run(args []string) int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	fs := flag.NewFlagSet("termfix", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file (defaults apply when empty)")
	inputDir := fs.String("input", "", "directory scanned for *.txt files when no files are given")
	outputDir := fs.String("output", "", "directory receiving the corrected files")
	workers := fs.Int("workers", 0, "number of files processed in parallel")
	dictPath := fs.String("dictionary", "", "path to a dictionary YAML file (embedded default when empty)")
	noLLM := fs.Bool("no-llm", false, "skip the LLM refine stage")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termfix: %v\n", err)
		return 1
	}
	applyFlags(cfg, overrides{
		inputDir:   *inputDir,
		outputDir:  *outputDir,
		workers:    *workers,
		dictionary: *dictPath,
		noLLM:      *noLLM,
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "termfix: invalid configuration:\n%v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))
	slog.Info("termfix starting",
		"version", version,
		"config", *configPath,
		"backend", cfg.Engine.Backend,
		"llm", cfg.LLM.Name,
		"workers", cfg.Batch.Workers,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Components ────────────────────────────────────────────────────────────
	comps, err := build(ctx, cfg, metrics)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}
	defer comps.Close()

	progress := &health.Progress{}
	if cfg.Metrics.ListenAddr != "" {
		srv := startServer(cfg.Metrics.ListenAddr, tel, metrics, health.New(progress, comps.checkers()...))
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	files, err := collectFiles(cfg.Batch.InputDir, fs.Args())
	if err != nil {
		slog.Error("failed to collect input files", "err", err)
		return 1
	}
	if len(files) == 0 {
		slog.Warn("no input files found", "input_dir", cfg.Batch.InputDir)
		return 0
	}

	// ── Batch ─────────────────────────────────────────────────────────────────
	b := &batch{
		correct:   comps.correct,
		outputDir: cfg.Batch.OutputDir,
		prefix:    cfg.Batch.Prefix,
		workers:   cfg.Batch.Workers,
		report:    cfg.Batch.Report,
		metrics:   metrics,
		progress:  progress,
	}
	start := time.Now()
	sum, err := b.run(ctx, files)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted", "processed", sum.Processed)
		} else {
			slog.Error("batch failed", "err", err)
		}
		return 1
	}

	stats := comps.cache.Stats(ctx)
	slog.Info("batch complete",
		"files", len(files),
		"processed", sum.Processed,
		"failed", sum.Failed,
		"corrections", sum.Corrections,
		"cache_hits", stats.Hits,
		"cache_misses", stats.Misses,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	if sum.Failed > 0 {
		return 1
	}
	return 0
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q not found", path)
		}
		return nil, err
	}
	return cfg, nil
}

// overrides carries command-line values that take precedence over the
// configuration file. Zero values leave the configuration unchanged.
type overrides struct {
	inputDir   string
	outputDir  string
	workers    int
	dictionary string
	noLLM      bool
}

func applyFlags(cfg *config.Config, o overrides) {
	if o.inputDir != "" {
		cfg.Batch.InputDir = o.inputDir
	}
	if o.outputDir != "" {
		cfg.Batch.OutputDir = o.outputDir
	}
	if o.workers > 0 {
		cfg.Batch.Workers = o.workers
	}
	if o.dictionary != "" {
		cfg.Engine.Dictionary = o.dictionary
	}
	if o.noLLM {
		cfg.LLM.Name = ""
	}
}

// newLogger constructs a [slog.Logger] writing to stderr at the given level.
func newLogger(level config.LogLevel, format config.LogFormat) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// startServer serves /metrics, /healthz and /readyz on addr in the
// background.
func startServer(addr string, tel *observe.Telemetry, m *observe.Metrics, h *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", tel.Handler())
	h.Register(mux)
	srv := &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(m)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}

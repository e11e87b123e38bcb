package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/termfix/internal/health"
	"github.com/MrWong99/termfix/internal/observe"
	"github.com/MrWong99/termfix/pkg/types"
)

// Document outcomes recorded in [observe.Metrics.Documents].
const (
	docOK     = "ok"
	docFailed = "failed"
)

// batch corrects a set of files with a bounded worker pool.
type batch struct {
	correct   correctFunc
	outputDir string
	prefix    string
	workers   int
	report    bool
	metrics   *observe.Metrics
	progress  *health.Progress
}

// summary aggregates the outcome of a batch run.
type summary struct {
	Processed   int
	Failed      int
	Corrections int
}

// report is the JSON document written next to an output file.
type report struct {
	Source      string             `json:"source"`
	Output      string             `json:"output"`
	Corrections []types.Correction `json:"corrections"`
}

// run processes files and returns once all are done. A failing file is
// logged and counted; the returned error is non-nil only when the output
// directory cannot be created or ctx is cancelled.
func (b *batch) run(ctx context.Context, files []string) (summary, error) {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return summary{}, fmt.Errorf("create output dir: %w", err)
	}

	var (
		mu  sync.Mutex
		sum summary
	)
	if b.progress != nil {
		b.progress.SetTotal(len(files))
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.workers))
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := b.processFile(gctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				sum.Failed++
				b.record(gctx, docFailed)
				slog.Error("file failed", "path", path, "err", err)
				return nil
			}
			sum.Processed++
			sum.Corrections += n
			b.record(gctx, docOK)
			return nil
		})
	}
	err := g.Wait()
	return sum, err
}

// processFile corrects one file and returns the number of corrections.
func (b *batch) processFile(ctx context.Context, path string) (n int, err error) {
	ctx, span := observe.StartDocument(ctx, path)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}

	text, corrections, err := b.correct(ctx, string(raw))
	if err != nil {
		return 0, err
	}

	out := b.outputPath(path)
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	if b.report {
		if err := writeReport(out+".corrections.json", report{
			Source:      path,
			Output:      out,
			Corrections: corrections,
		}); err != nil {
			return 0, err
		}
	}

	observe.Logger(ctx).Info("file corrected",
		"output", out,
		"corrections", len(corrections),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return len(corrections), nil
}

// outputPath maps an input file to its corrected counterpart.
func (b *batch) outputPath(path string) string {
	return filepath.Join(b.outputDir, b.prefix+filepath.Base(path))
}

func (b *batch) record(ctx context.Context, status string) {
	if b.progress != nil {
		b.progress.Done(status == docFailed)
	}
	if b.metrics != nil {
		b.metrics.RecordDocument(context.WithoutCancel(ctx), status)
	}
}

func writeReport(path string, r report) error {
	if r.Corrections == nil {
		r.Corrections = []types.Correction{}
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// collectFiles returns args when given, otherwise the *.txt files of dir in
// name order.
func collectFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", dir, err)
	}
	slices.Sort(matches)
	return matches, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/termfix/internal/config"
	"github.com/MrWong99/termfix/internal/dictionary"
	"github.com/MrWong99/termfix/internal/health"
	"github.com/MrWong99/termfix/internal/observe"
	"github.com/MrWong99/termfix/internal/terminology"
	"github.com/MrWong99/termfix/pkg/types"
)

func testEngine(t *testing.T) *terminology.Engine {
	t.Helper()
	dict, err := dictionary.Build(dictionary.Table{
		Categories: []dictionary.Category{{
			Name: "concepts",
			Entries: []dictionary.Entry{
				{Canonical: "epistemologia", Variants: []string{"epstemologia"}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e, err := terminology.New(dict, terminology.WithoutFuzzy())
	if err != nil {
		t.Fatalf("terminology.New: %v", err)
	}
	return e
}

func engineCorrect(e *terminology.Engine) correctFunc {
	return func(ctx context.Context, text string) (string, []types.Correction, error) {
		res := e.CorrectContext(ctx, text)
		return res.Text, res.Corrections, nil
	}
}

func writeInputs(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestBatch_WritesOutputs(t *testing.T) {
	t.Parallel()

	in, out := t.TempDir(), filepath.Join(t.TempDir(), "out")
	files := writeInputs(t, in, map[string]string{
		"a.txt": "A epstemologia de Kant.",
		"b.txt": "Nada a corrigir.",
		"c.txt": "epstemologia e epstemologia",
	})

	b := &batch{correct: engineCorrect(testEngine(t)), outputDir: out, prefix: "refined_", workers: 2, report: true}
	sum, err := b.run(context.Background(), files)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Processed != 3 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want 3 processed, 0 failed", sum)
	}
	if sum.Corrections != 3 {
		t.Errorf("Corrections = %d, want 3", sum.Corrections)
	}

	got, err := os.ReadFile(filepath.Join(out, "refined_a.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "A epistemologia de Kant." {
		t.Errorf("output = %q", got)
	}

	raw, err := os.ReadFile(filepath.Join(out, "refined_c.txt.corrections.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var r report
	if err := json.Unmarshal(raw, &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(r.Corrections) != 2 {
		t.Fatalf("report corrections = %d, want 2", len(r.Corrections))
	}
	if r.Corrections[1].Position != 15 {
		t.Errorf("second position = %d, want 15", r.Corrections[1].Position)
	}
}

func TestBatch_FailureIsCounted(t *testing.T) {
	t.Parallel()

	in, out := t.TempDir(), t.TempDir()
	files := writeInputs(t, in, map[string]string{"a.txt": "ok", "bad.txt": "bad"})
	files = append(files, filepath.Join(in, "missing.txt"))

	correct := func(_ context.Context, text string) (string, []types.Correction, error) {
		if text == "bad" {
			return "", nil, errors.New("boom")
		}
		return text, nil, nil
	}
	progress := &health.Progress{}
	b := &batch{correct: correct, outputDir: out, prefix: "refined_", workers: 4, progress: progress}
	sum, err := b.run(context.Background(), files)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Processed != 1 || sum.Failed != 2 {
		t.Errorf("summary = %+v, want 1 processed, 2 failed", sum)
	}
	if _, err := os.Stat(filepath.Join(out, "refined_bad.txt")); !os.IsNotExist(err) {
		t.Errorf("failed file produced output: %v", err)
	}

	rec := httptest.NewRecorder()
	health.New(progress).Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))
	if !strings.Contains(rec.Body.String(), `"failed":2`) {
		t.Errorf("healthz body = %s, want failed count", rec.Body.String())
	}
}

func TestBatch_Cancelled(t *testing.T) {
	t.Parallel()

	in, out := t.TempDir(), t.TempDir()
	files := writeInputs(t, in, map[string]string{"a.txt": "x", "b.txt": "y"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &batch{correct: engineCorrect(testEngine(t)), outputDir: out, workers: 1}
	if _, err := b.run(ctx, files); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCollectFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeInputs(t, dir, map[string]string{"b.txt": "", "a.txt": "", "notes.md": ""})

	got, err := collectFiles(dir, nil)
	if err != nil {
		t.Fatalf("collectFiles: %v", err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}

	args := []string{"x.txt"}
	if got, _ := collectFiles(dir, args); len(got) != 1 || got[0] != "x.txt" {
		t.Errorf("explicit args not returned: %v", got)
	}
}

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LLM.Name = "ollama"
	applyFlags(cfg, overrides{outputDir: "o", workers: 9, dictionary: "d.yaml", noLLM: true})

	if cfg.Batch.OutputDir != "o" || cfg.Batch.Workers != 9 || cfg.Engine.Dictionary != "d.yaml" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Batch, cfg.Engine)
	}
	if cfg.LLM.Name != "" {
		t.Errorf("LLM.Name = %q, want empty with -no-llm", cfg.LLM.Name)
	}
	if cfg.Batch.InputDir != "input" {
		t.Errorf("InputDir = %q, want default kept", cfg.Batch.InputDir)
	}
}

func TestBuild_EngineOnly(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	comps, err := build(context.Background(), cfg, observe.DefaultMetrics())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer comps.Close()
	if comps.refiner != nil {
		t.Error("refiner built without llm.name")
	}

	text, corrections, err := comps.correct(context.Background(), "a epistimologia")
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if len(corrections) == 0 {
		t.Errorf("no corrections for %q -> %q", "a epistimologia", text)
	}
}

func TestBuildProvider_OpenAICompatible(t *testing.T) {
	t.Parallel()

	p, err := buildProvider(config.LLMConfig{
		Name:    config.ProviderOpenAICompatible,
		Model:   "llama3.2",
		BaseURL: "http://localhost:11434/v1",
	})
	if err != nil {
		t.Fatalf("buildProvider: %v", err)
	}
	if p.Capabilities().ContextWindow == 0 {
		t.Error("capabilities missing context window")
	}
}

func TestRun_CorrectsInputDirectory(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "out")
	writeInputs(t, in, map[string]string{"aula.txt": "A cauza segundo Tomas de Aquino."})

	dictPath := filepath.Join(t.TempDir(), "dictionary.yaml")
	dict := `
categories:
  - name: concepts
    entries:
      - canonical: causa
        variants: [cauza]
  - name: philosophers
    kind: name
    entries:
      - canonical: Tomás de Aquino
        variants: [Tomas de Aquino]
`
	if err := os.WriteFile(dictPath, []byte(dict), 0o644); err != nil {
		t.Fatalf("write dictionary: %v", err)
	}

	code := run([]string{"-input", in, "-output", out, "-dictionary", dictPath, "-workers", "1", "-no-llm"})
	if code != 0 {
		t.Fatalf("run exit code = %d, want 0", code)
	}
	got, err := os.ReadFile(filepath.Join(out, "refined_aula.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := "A causa segundo Tomás de Aquino."; string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRun_FlagAndConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"-bogus"}, 2},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}, 1},
		{"empty input dir", []string{"-input", t.TempDir(), "-output", t.TempDir(), "-no-llm"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(tc.args); got != tc.want {
				t.Errorf("run(%v) = %d, want %d", tc.args, got, tc.want)
			}
		})
	}
}

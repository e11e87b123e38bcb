package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/termfix/internal/pattern"
)

// ProviderOpenAICompatible selects the openai-go client against BaseURL.
const ProviderOpenAICompatible = "openai-compatible"

// ValidLLMNames lists the known LLM provider names. [Validate] warns about
// names outside this list.
var ValidLLMNames = []string{
	"ollama", "openai", "anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	ProviderOpenAICompatible,
}

// ValidScorers lists the fuzzy similarity functions.
var ValidScorers = []string{"lcs", "jaro-winkler"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero fields of cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	setDefault(&cfg.LogLevel, LogInfo)
	setDefault(&cfg.LogFormat, LogFormatText)

	setDefault(&cfg.Engine.Backend, pattern.BackendAutomaton)
	setDefault(&cfg.Engine.FuzzyThreshold, 0.90)
	setDefault(&cfg.Engine.Scorer, "lcs")
	setDefault(&cfg.Engine.ContextWindow, 50)
	setDefault(&cfg.Engine.MaxNameTokens, 6)

	setDefault(&cfg.Cache.Capacity, 10_000)
	setDefault(&cfg.Cache.EvictFraction, 0.2)
	setDefault(&cfg.Cache.Redis.TTL, 24*time.Hour)
	setDefault(&cfg.Cache.Redis.Prefix, "termfix:")

	setDefault(&cfg.LLM.Timeout, 2*time.Minute)
	setDefault(&cfg.LLM.Temperature, 0.1)
	setDefault(&cfg.LLM.MinWordRetention, 0.9)
	setDefault(&cfg.LLM.ChunkWords, 800)
	setDefault(&cfg.LLM.Breaker.MaxFailures, 5)
	setDefault(&cfg.LLM.Breaker.Cooldown, 30*time.Second)

	setDefault(&cfg.Batch.Workers, 4)
	setDefault(&cfg.Batch.InputDir, "input")
	setDefault(&cfg.Batch.OutputDir, "output")
	setDefault(&cfg.Batch.Prefix, "refined_")
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.LogFormat != "" && !cfg.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("log_format %q is invalid; valid values: text, json", cfg.LogFormat))
	}

	// Engine
	if cfg.Engine.Backend != "" && !slices.Contains(pattern.Backends(), cfg.Engine.Backend) {
		errs = append(errs, fmt.Errorf("engine.backend %q is invalid; valid values: automaton, regex, naive", cfg.Engine.Backend))
	}
	if cfg.Engine.FuzzyThreshold <= 0 || cfg.Engine.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("engine.fuzzy_threshold %.2f is out of range (0, 1]", cfg.Engine.FuzzyThreshold))
	}
	if cfg.Engine.Scorer != "" && !slices.Contains(ValidScorers, cfg.Engine.Scorer) {
		errs = append(errs, fmt.Errorf("engine.scorer %q is invalid; valid values: lcs, jaro-winkler", cfg.Engine.Scorer))
	}
	if cfg.Engine.ContextWindow <= 0 {
		errs = append(errs, fmt.Errorf("engine.context_window must be positive, got %d", cfg.Engine.ContextWindow))
	}
	if cfg.Engine.MaxNameTokens < 2 {
		errs = append(errs, fmt.Errorf("engine.max_name_tokens must be at least 2, got %d", cfg.Engine.MaxNameTokens))
	}

	// Cache
	if cfg.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be positive, got %d", cfg.Cache.Capacity))
	}
	if cfg.Cache.EvictFraction <= 0 || cfg.Cache.EvictFraction > 1 {
		errs = append(errs, fmt.Errorf("cache.evict_fraction %.2f is out of range (0, 1]", cfg.Cache.EvictFraction))
	}
	if cfg.Cache.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("cache.redis.db must not be negative, got %d", cfg.Cache.Redis.DB))
	}
	if cfg.Cache.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.redis.ttl must not be negative, got %s", cfg.Cache.Redis.TTL))
	}

	// LLM
	if cfg.LLM.Name != "" {
		validateProviderName(cfg.LLM.Name)
		if cfg.LLM.Name == ProviderOpenAICompatible && cfg.LLM.BaseURL == "" && cfg.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm: provider %q requires base_url or api_key", ProviderOpenAICompatible))
		}
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %.2f is out of range [0, 2]", cfg.LLM.Temperature))
	}
	if cfg.LLM.MinWordRetention < 0 || cfg.LLM.MinWordRetention > 1 {
		errs = append(errs, fmt.Errorf("llm.min_word_retention %.2f is out of range [0, 1]", cfg.LLM.MinWordRetention))
	}
	if cfg.LLM.ChunkWords <= 0 {
		errs = append(errs, fmt.Errorf("llm.chunk_words must be positive, got %d", cfg.LLM.ChunkWords))
	}
	if cfg.LLM.Timeout < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must not be negative, got %s", cfg.LLM.Timeout))
	}

	// Batch
	if cfg.Batch.Workers <= 0 {
		errs = append(errs, fmt.Errorf("batch.workers must be positive, got %d", cfg.Batch.Workers))
	}
	if cfg.Batch.OutputDir == "" {
		errs = append(errs, errors.New("batch.output_dir is required"))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is not a known provider.
func validateProviderName(name string) {
	if slices.Contains(ValidLLMNames, name) {
		return
	}
	slog.Warn("unknown llm provider name, may be a typo",
		"name", name,
		"known", ValidLLMNames,
	)
}

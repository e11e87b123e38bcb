// Package config provides the configuration schema and loader for termfix.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == LogFormatText || f == LogFormatJSON
}

// Config is the root configuration structure for termfix.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	LogLevel  LogLevel      `yaml:"log_level"`
	LogFormat LogFormat     `yaml:"log_format"`
	Engine    EngineConfig  `yaml:"engine"`
	Cache     CacheConfig   `yaml:"cache"`
	LLM       LLMConfig     `yaml:"llm"`
	Batch     BatchConfig   `yaml:"batch"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

// EngineConfig tunes the terminology engine.
type EngineConfig struct {
	// Backend selects the pattern index: automaton, regex or naive.
	Backend string `yaml:"backend"`

	// FuzzyThreshold is the minimum similarity for a fuzzy name match, in
	// (0,1].
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`

	// Scorer selects the fuzzy similarity function: lcs or jaro-winkler.
	Scorer string `yaml:"scorer"`

	// DisableFuzzy turns the fuzzy name stage off.
	DisableFuzzy bool `yaml:"disable_fuzzy"`

	// ContextWindow is the number of runes inspected on each side of an
	// ambiguous term.
	ContextWindow int `yaml:"context_window"`

	// MaxNameTokens bounds the words in a fuzzy name candidate.
	MaxNameTokens int `yaml:"max_name_tokens"`

	// Dictionary is the path to a dictionary YAML file. Empty selects the
	// embedded default dictionary.
	Dictionary string `yaml:"dictionary"`
}

// CacheConfig sizes the correction cache.
type CacheConfig struct {
	// Disabled turns caching off.
	Disabled bool `yaml:"disabled"`

	// Capacity is the number of entries shared by both namespaces.
	Capacity int `yaml:"capacity"`

	// EvictFraction is the share of Capacity evicted when it is reached.
	EvictFraction float64 `yaml:"evict_fraction"`

	// Redis, when Addr is set, replaces the in-memory store.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the shared Redis cache store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// LLMConfig selects the model used by the refine stage. An empty Name
// disables the stage.
type LLMConfig struct {
	// Name selects the provider: one of the any-llm-go providers (ollama,
	// openai, anthropic, ...) or "openai-compatible" for any server speaking
	// the OpenAI chat completions API at BaseURL.
	Name string `yaml:"name"`

	// Model selects the model within the provider.
	Model string `yaml:"model"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds one model call.
	Timeout time.Duration `yaml:"timeout"`

	Temperature float64 `yaml:"temperature"`

	// MinWordRetention is the minimum ratio of output to input words for a
	// model answer to be used.
	MinWordRetention float64 `yaml:"min_word_retention"`

	// ChunkWords is the maximum number of words per model call.
	ChunkWords int `yaml:"chunk_words"`

	// Breaker configures the circuit breaker around model calls.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// BatchConfig controls the batch driver.
type BatchConfig struct {
	// Workers is the number of documents processed in parallel.
	Workers int `yaml:"workers"`

	// InputDir is scanned for *.txt files when no files are given on the
	// command line.
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the corrected files.
	OutputDir string `yaml:"output_dir"`

	// Prefix is prepended to every output file name.
	Prefix string `yaml:"prefix"`

	// Report writes a <name>.corrections.json file next to each output.
	Report bool `yaml:"report"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr serves /metrics when set (e.g. ":9090").
	ListenAddr string `yaml:"listen_addr"`
}

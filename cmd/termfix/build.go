package main

import (
	"context"
	"fmt"
	"log/slog"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/redis/go-redis/v9"

	"github.com/MrWong99/termfix/internal/cache"
	"github.com/MrWong99/termfix/internal/config"
	"github.com/MrWong99/termfix/internal/dictionary"
	"github.com/MrWong99/termfix/internal/fuzzy"
	"github.com/MrWong99/termfix/internal/health"
	"github.com/MrWong99/termfix/internal/observe"
	"github.com/MrWong99/termfix/internal/refine"
	"github.com/MrWong99/termfix/internal/resilience"
	"github.com/MrWong99/termfix/internal/terminology"
	"github.com/MrWong99/termfix/pkg/provider/llm"
	"github.com/MrWong99/termfix/pkg/provider/llm/anyllm"
	"github.com/MrWong99/termfix/pkg/provider/llm/openai"
	"github.com/MrWong99/termfix/pkg/types"
)

// correctFunc corrects one document.
type correctFunc func(ctx context.Context, text string) (string, []types.Correction, error)

// components is the assembled correction pipeline.
type components struct {
	engine  *terminology.Engine
	refiner *refine.Refiner
	cache   *cache.Cache
	redis   *redis.Client
	breaker *resilience.Breaker
}

// correct runs the refiner when an LLM is configured and the terminology
// engine alone otherwise.
func (c *components) correct(ctx context.Context, text string) (string, []types.Correction, error) {
	if c.refiner == nil {
		res := c.engine.CorrectContext(ctx, text)
		return res.Text, res.Corrections, nil
	}
	res, err := c.refiner.Refine(ctx, text)
	if err != nil {
		return "", nil, err
	}
	return res.Text, append(res.Corrections, res.PostCorrections...), nil
}

// checkers returns the readiness checks of the assembled pipeline.
func (c *components) checkers() []health.Checker {
	var out []health.Checker
	if c.redis != nil {
		out = append(out, health.RedisCheck("cache", c.redis))
	}
	if c.breaker != nil {
		out = append(out, health.BreakerCheck("llm", c.breaker))
	}
	return out
}

// Close releases the Redis connection pool if one was opened.
func (c *components) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			slog.Warn("close redis client", "err", err)
		}
	}
}

// build assembles dictionary, cache, engine and refiner from cfg.
func build(ctx context.Context, cfg *config.Config, m *observe.Metrics) (*components, error) {
	dict, err := loadDictionary(cfg.Engine.Dictionary)
	if err != nil {
		return nil, err
	}
	slog.Info("dictionary loaded",
		"path", cfg.Engine.Dictionary,
		"variants", dict.Len(),
		"fingerprint", dict.Fingerprint(),
	)
	for _, s := range dict.Stats() {
		slog.Debug("dictionary category", "name", s.Name, "entries", s.Entries, "variants", s.Variants)
	}

	comps := &components{}
	store, err := buildStore(ctx, cfg.Cache, m, comps)
	if err != nil {
		return nil, err
	}
	comps.cache = cache.New(store, cache.WithMetrics(m))

	engineOpts := []terminology.Option{
		terminology.WithBackend(cfg.Engine.Backend),
		terminology.WithFuzzyThreshold(cfg.Engine.FuzzyThreshold),
		terminology.WithScorer(scorerByName(cfg.Engine.Scorer)),
		terminology.WithCacheTag(cfg.Engine.Scorer),
		terminology.WithMaxNameTokens(cfg.Engine.MaxNameTokens),
		terminology.WithContextWindow(cfg.Engine.ContextWindow),
		terminology.WithMetrics(m),
	}
	if cfg.Engine.DisableFuzzy {
		engineOpts = append(engineOpts, terminology.WithoutFuzzy())
	}
	if !cfg.Cache.Disabled {
		engineOpts = append(engineOpts, terminology.WithCache(comps.cache))
	}
	comps.engine, err = terminology.New(dict, engineOpts...)
	if err != nil {
		comps.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}

	if cfg.LLM.Name == "" {
		return comps, nil
	}
	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		comps.Close()
		return nil, err
	}
	comps.breaker = resilience.New(resilience.Config{
		Name:        cfg.LLM.Name,
		MaxFailures: cfg.LLM.Breaker.MaxFailures,
		Cooldown:    cfg.LLM.Breaker.Cooldown,
	})
	refineOpts := []refine.Option{
		refine.WithModel(cfg.LLM.Model),
		refine.WithProviderName(cfg.LLM.Name),
		refine.WithTemperature(cfg.LLM.Temperature),
		refine.WithMinRetention(cfg.LLM.MinWordRetention),
		refine.WithChunkWords(cfg.LLM.ChunkWords),
		refine.WithCallTimeout(cfg.LLM.Timeout),
		refine.WithBreaker(comps.breaker),
		refine.WithMetrics(m),
	}
	if !cfg.Cache.Disabled {
		refineOpts = append(refineOpts, refine.WithCache(comps.cache))
	}
	comps.refiner, err = refine.New(comps.engine, provider, refineOpts...)
	if err != nil {
		comps.Close()
		return nil, fmt.Errorf("build refiner: %w", err)
	}
	slog.Info("llm refine enabled", "provider", cfg.LLM.Name, "model", cfg.LLM.Model)
	return comps, nil
}

// loadDictionary builds the dictionary at path, or the embedded default
// dictionary when path is empty.
func loadDictionary(path string) (*dictionary.Dictionary, error) {
	var (
		table *dictionary.Table
		err   error
	)
	if path == "" {
		table, err = dictionary.Default()
	} else {
		table, err = dictionary.LoadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	dict, err := dictionary.Build(*table)
	if err != nil {
		return nil, fmt.Errorf("build dictionary: %w", err)
	}
	return dict, nil
}

// buildStore returns the Redis store when an address is configured and the
// bounded in-memory store otherwise. The Redis client is recorded in comps
// so it can be closed.
func buildStore(ctx context.Context, cfg config.CacheConfig, m *observe.Metrics, comps *components) (cache.Store, error) {
	if cfg.Redis.Addr == "" {
		store, err := cache.NewMemoryStore(cfg.Capacity, cfg.EvictFraction,
			cache.WithOnEvict(func(n int) {
				m.RecordCacheEvictions(context.Background(), n)
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("build cache: %w", err)
		}
		return store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("build cache: ping redis %s: %w", cfg.Redis.Addr, err)
	}
	comps.redis = client
	slog.Info("using redis cache", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB, "ttl", cfg.Redis.TTL)
	return cache.NewRedisStore(client, cfg.Redis.TTL).WithPrefix(cfg.Redis.Prefix), nil
}

// buildProvider instantiates the LLM provider named by cfg.Name.
func buildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	if cfg.Name == config.ProviderOpenAICompatible {
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, openai.WithTimeout(cfg.Timeout))
		}
		p, err := openai.New(cfg.APIKey, cfg.Model, opts...)
		if err != nil {
			return nil, fmt.Errorf("build llm provider: %w", err)
		}
		return p, nil
	}

	var opts []anyllmlib.Option
	if cfg.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" && cfg.Name == "ollama" {
		model = anyllm.DefaultModel
	}
	p, err := anyllm.New(cfg.Name, model, opts...)
	if err != nil {
		return nil, fmt.Errorf("build llm provider: %w", err)
	}
	return p, nil
}

// scorerByName maps a configured scorer name to its function.
func scorerByName(name string) fuzzy.Scorer {
	if name == "jaro-winkler" {
		return fuzzy.JaroWinkler
	}
	return fuzzy.LCSRatio
}

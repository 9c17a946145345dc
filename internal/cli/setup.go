package cli

import (
	"fmt"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/probe"
	"github.com/ppiankov/pairlens/internal/resolve"
	"github.com/ppiankov/pairlens/internal/store"
	"github.com/ppiankov/pairlens/internal/submit"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// loadConfig builds the effective configuration: defaults, overridden by the
// config file / PAIRLENS_* environment via viper. The keys mirror the nested
// YAML tree that `config init` writes.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("corpus.base_url"); v != "" {
		cfg.Corpus.BaseURL = v
	}
	if v := viper.GetString("corpus.mode"); v != "" {
		cfg.Corpus.Mode = v
	}
	if v := viper.GetString("corpus.manifest_path"); v != "" {
		cfg.Corpus.ManifestPath = v
	}

	if v := viper.GetDuration("http.timeout"); v > 0 {
		cfg.HTTP.Timeout = v
	}
	if v := viper.GetString("http.user_agent"); v != "" {
		cfg.HTTP.UserAgent = v
	}

	if v := viper.GetInt("probe.max_pair_number"); v > 0 {
		cfg.Probe.MaxPairNumber = v
	}
	if v := viper.GetInt("probe.max_numeric_image"); v > 0 {
		cfg.Probe.MaxNumericImage = v
	}
	if v := viper.GetInt("probe.max_named_image"); v > 0 {
		cfg.Probe.MaxNamedImage = v
	}
	if v := viper.GetInt("probe.max_images_per_dir"); v > 0 {
		cfg.Probe.MaxImagesPerDir = v
	}
	if v := viper.GetInt("probe.concurrency"); v > 0 {
		cfg.Probe.Concurrency = v
	}
	if v := viper.GetDuration("probe.cache_ttl"); v > 0 {
		cfg.Probe.CacheTTL = v
	}
	if v := viper.GetFloat64("probe.requests_per_second"); v > 0 {
		cfg.Probe.RequestsPerSecond = v
	}
	if viper.IsSet("probe.respect_robots") {
		cfg.Probe.RespectRobots = viper.GetBool("probe.respect_robots")
	}
	if viper.IsSet("probe.cache_bust") {
		cfg.Probe.CacheBust = viper.GetBool("probe.cache_bust")
	}

	if v := viper.GetString("storage.state_path"); v != "" {
		cfg.Storage.StatePath = v
	}

	if v := viper.GetString("submit.endpoint_url"); v != "" {
		cfg.Submit.EndpointURL = v
	}
	if v := viper.GetDuration("submit.timeout"); v > 0 {
		cfg.Submit.Timeout = v
	}

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.api_key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetInt("llm.timeout"); v > 0 {
		cfg.LLM.Timeout = v
	}
	if v := viper.GetInt("llm.max_tokens"); v > 0 {
		cfg.LLM.MaxTokens = v
	}

	cfg.Output.Verbose = viper.GetBool("verbose") || viper.GetBool("output.verbose")

	return cfg
}

// newLogger returns a development logger under --verbose and a nop logger
// otherwise; library packages stay silent unless asked.
func newLogger(cfg *model.Config) *zap.Logger {
	if !cfg.Output.Verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newStrategy selects the existence strategy once, from configuration.
func newStrategy(cfg *model.Config, logger *zap.Logger) (probe.Strategy, error) {
	switch cfg.Corpus.Mode {
	case "", "probe":
		return probe.NewHTTPProber(probe.Options{
			Timeout:           cfg.HTTP.Timeout,
			UserAgent:         cfg.HTTP.UserAgent,
			CacheTTL:          cfg.Probe.CacheTTL,
			RequestsPerSecond: cfg.Probe.RequestsPerSecond,
			RespectRobots:     cfg.Probe.RespectRobots,
		}, logger), nil

	case "manifest":
		manifest := probe.DefaultManifest()
		if cfg.Corpus.ManifestPath != "" {
			loaded, err := probe.LoadManifest(cfg.Corpus.ManifestPath)
			if err != nil {
				return nil, err
			}
			manifest = loaded
		}
		return probe.NewManifestProber(cfg.Corpus.BaseURL, manifest), nil

	default:
		return nil, fmt.Errorf("unknown corpus mode %q (supported: probe, manifest)", cfg.Corpus.Mode)
	}
}

// newResolver wires a resolver from configuration.
func newResolver(cfg *model.Config, logger *zap.Logger) (*resolve.Resolver, error) {
	strategy, err := newStrategy(cfg, logger)
	if err != nil {
		return nil, err
	}
	return resolve.New(cfg.Corpus.BaseURL, strategy, cfg.Probe, logger), nil
}

// newStore opens the state store and restores persisted evaluations.
func newStore(cfg *model.Config, logger *zap.Logger) (*store.Store, error) {
	st := store.New(cfg.Storage.StatePath, logger)
	if err := st.Restore(); err != nil {
		return nil, fmt.Errorf("restore state: %w", err)
	}
	return st, nil
}

// newGateway wires a submission gateway over the store.
func newGateway(cfg *model.Config, st *store.Store, logger *zap.Logger) *submit.Gateway {
	return submit.New(cfg.Submit.EndpointURL, cfg.Submit.Timeout, cfg.HTTP.UserAgent, st, logger)
}

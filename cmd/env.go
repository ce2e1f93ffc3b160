package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/gearshift-group/lot-scraper/internal/fetcher"
	"github.com/gearshift-group/lot-scraper/internal/normalize"
	"github.com/gearshift-group/lot-scraper/internal/resilience"
	"github.com/gearshift-group/lot-scraper/internal/site"
	"github.com/gearshift-group/lot-scraper/internal/store"
	"github.com/gearshift-group/lot-scraper/pkg/anthropic"
)

// env bundles the collaborators commands share: the store, the fetch
// layer, and the per-source extraction drivers.
type env struct {
	Store   store.Store
	Fetcher fetcher.Fetcher
	drivers map[string]*site.Driver
}

// initEnv wires the environment from config. The schema is migrated on
// every start; migrations are idempotent.
func initEnv(ctx context.Context) (*env, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	var modelTrim *normalize.ModelTrimNormalizer
	var options *normalize.OptionsNormalizer
	if cfg.Anthropic.Key != "" {
		ai := anthropic.NewClient(cfg.Anthropic.Key)
		retry := resilience.DefaultRetryConfig()
		modelTrim = normalize.NewModelTrimNormalizer(ai, cfg.Anthropic.Model, retry)
		options = normalize.NewOptionsNormalizer(ai, cfg.Anthropic.Model, retry)
	} else {
		// No key means regex-only normalization; the normalizers fall
		// back deterministically when the client is nil.
		modelTrim = normalize.NewModelTrimNormalizer(nil, "", resilience.DefaultRetryConfig())
		options = normalize.NewOptionsNormalizer(nil, "", resilience.DefaultRetryConfig())
	}

	drivers := make(map[string]*site.Driver, len(site.Names()))
	for _, name := range site.Names() {
		sc, err := site.Lookup(name)
		if err != nil {
			st.Close()
			return nil, err
		}
		drivers[name] = site.NewDriver(sc, modelTrim, options)
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.Fetch.MaxRetries,
		RatePerHost: rate.Limit(cfg.Fetch.RatePerHost),
	})

	return &env{Store: st, Fetcher: f, drivers: drivers}, nil
}

// Driver returns the extraction driver for a registered source name.
func (e *env) Driver(name string) (*site.Driver, error) {
	d, ok := e.drivers[name]
	if !ok {
		return nil, eris.Errorf("unknown source %q (known: %v)", name, site.Names())
	}
	return d, nil
}

// Close releases held resources.
func (e *env) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}

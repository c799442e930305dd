package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/momentum-leads/rvprospector/internal/classify"
	"github.com/momentum-leads/rvprospector/internal/pipeline"
	"github.com/momentum-leads/rvprospector/internal/store"
	"github.com/momentum-leads/rvprospector/pkg/iplocate"
	"github.com/momentum-leads/rvprospector/pkg/places"
)

// env bundles the wired subsystems a command needs.
type env struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close", zap.Error(err))
	}
}

// initPipeline opens the store, runs migrations, and wires the pipeline from
// the loaded config.
func initPipeline(ctx context.Context) (*env, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	if cfg.Places.APIKey == "" {
		st.Close() //nolint:errcheck
		return nil, eris.New("places.api_key is required (RVP_PLACES_API_KEY)")
	}

	placesOpts := []places.Option{
		places.WithRateLimit(cfg.Places.RateLimit),
		places.WithCacheTTLs(
			time.Duration(cfg.Places.SearchTTLMinutes)*time.Minute,
			time.Duration(cfg.Places.DetailTTLMinutes)*time.Minute,
		),
	}
	if cfg.Places.BaseURL != "" {
		placesOpts = append(placesOpts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	placesClient := places.NewClient(cfg.Places.APIKey, placesOpts...)

	policy := classify.DefaultPolicy()
	if cfg.Classify.PolicyFile != "" {
		policy, err = classify.LoadPolicy(cfg.Classify.PolicyFile)
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
	}
	classifier, err := classify.New(policy, classify.Options{
		SiteBudget:   time.Duration(cfg.Classify.SiteBudgetSecs) * time.Second,
		FetchTimeout: time.Duration(cfg.Classify.FetchTimeoutSecs) * time.Second,
	})
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	p := pipeline.New(st, placesClient, iplocate.NewCascade(), classifier, pipeline.Config{
		Queries:         cfg.Search.Queries,
		RadiiKm:         cfg.Search.RadiiKm,
		DefaultRadiusKm: cfg.Search.DefaultRadiusKm,
		MaxChecked:      cfg.Search.MaxChecked,
		PadMin:          cfg.Search.PadMin,
		PageDelay:       time.Duration(cfg.Search.PageDelayMillis) * time.Millisecond,
		DefaultLocation: cfg.Search.DefaultLocation,
		Workers:         cfg.Pool.Workers,
		DailyLimit:      cfg.Quota.DailyLimit,
	})

	return &env{Store: st, Pipeline: p}, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "", "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

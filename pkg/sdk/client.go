package ornprog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fmhr12/ORN-Prognosis/internal/app"
	"github.com/fmhr12/ORN-Prognosis/internal/config"
	dbRedis "github.com/fmhr12/ORN-Prognosis/internal/db/redis"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/explanation"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/explcache"
	healthuc "github.com/fmhr12/ORN-Prognosis/internal/usecase/health"
	"github.com/fmhr12/ORN-Prognosis/internal/usecase/predict"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal seams, swapped for mocks in tests.
type explainUseCase interface {
	Explain(ctx context.Context, v feature.Vector, tag grid.Tag, cause int) (explanation.Explanation, error)
}

type predictUseCase interface {
	Curve(ctx context.Context, v feature.Vector, cause int) ([]curve.Point, error)
	Table(ctx context.Context, v feature.Vector, rawTimes string, cause int) ([]predict.Row, error)
}

type curveCatalog interface {
	BaselineAt(name string, t float64) (float64, error)
	Names() []string
}

// Client answers prognosis queries against artifacts loaded in process.
type Client struct {
	schema   feature.Schema
	encoder  *feature.Encoder
	tags     []grid.Tag
	causes   map[int]string
	version  string
	defaults defaults

	explainSvc explainUseCase
	predictSvc predictUseCase
	curves     curveCatalog
	healthSvc  healthUseCase
	cache      *explcache.Cache
	store      *dbRedis.Store
	obs        *observer
}

type defaults struct {
	timePoint grid.Tag
	cause     int
}

// Open loads the configured artifacts and returns a ready Client.
// The provided context bounds artifact loading and the cache readiness check.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	svcCfg, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}
	appOpts, err := app.OptionsFromConfig(svcCfg)
	if err != nil {
		return nil, fmt.Errorf("ornprog: %w", err)
	}
	art, err := app.Load(ctx, appOpts)
	if err != nil {
		return nil, fmt.Errorf("ornprog: load artifacts: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		schema:     art.Schema,
		encoder:    feature.NewEncoder(art.Schema),
		tags:       art.Explainer.Tags(),
		causes:     make(map[int]string),
		version:    art.Version,
		explainSvc: art.Explainer,
		predictSvc: art.Predictor,
		curves:     art.Curves,
		obs:        obs,
		defaults: defaults{
			timePoint: grid.Tag(svcCfg.Explain.DefaultTime),
			cause:     svcCfg.Explain.DefaultCause,
		},
	}
	if cfg.cause > 0 {
		c.defaults.cause = cfg.cause
	}
	for _, cause := range art.Model.Causes() {
		c.causes[cause] = art.Model.Label(cause)
	}

	var cachePinger healthuc.Pinger
	if len(cfg.cacheAddrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("ornprog: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("ornprog: cache not ready: %w", err)
		}
		c.store = store
		c.cache = explcache.New(art.Explainer, store, cfg.cacheTTL, art.Version, zap.NewNop())
		c.explainSvc = c.cache
		cachePinger = store
	}
	c.healthSvc = healthuc.New(art, cachePinger)

	return c, nil
}

func loadConfig(cfg *clientConfig) (config.Config, error) {
	switch {
	case cfg.configPath != "":
		c, err := config.LoadFile(cfg.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("ornprog: %w", err)
		}
		return c, nil
	case cfg.env != "":
		c, err := config.Load(cfg.env)
		if err != nil {
			return config.Config{}, fmt.Errorf("ornprog: %w", err)
		}
		return c, nil
	default:
		return config.Config{}, errors.New("ornprog: configuration required (use WithConfigFile or WithEnv)")
	}
}

// Close releases the cache connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Version identifies the loaded model and grid.
func (c *Client) Version() string { return c.version }

// Explain decomposes the prediction at timePoint ("" for the default) into
// a baseline plus per-feature contributions.
func (c *Client) Explain(ctx context.Context, in Features, timePoint string) (e Explanation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("explain", c.defaults.cause, start, err) }()

	v, err := c.encoder.Encode(in)
	if err != nil {
		return Explanation{}, fmt.Errorf("explain: %w", err)
	}
	tag := c.defaults.timePoint
	if tp := strings.TrimSpace(timePoint); tp != "" {
		tag = grid.Tag(tp)
	}
	de, err := c.explainSvc.Explain(ctx, v, tag, c.defaults.cause)
	if err != nil {
		return Explanation{}, fmt.Errorf("explain: %w", err)
	}
	return explanationFromDomain(de), nil
}

// Curve returns the dense cumulative incidence curve.
func (c *Client) Curve(ctx context.Context, in Features) (pts []Point, err error) {
	start := time.Now()
	defer func() { c.obs.observe("curve", c.defaults.cause, start, err) }()

	v, err := c.encoder.Encode(in)
	if err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	dpts, err := c.predictSvc.Curve(ctx, v, c.defaults.cause)
	if err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	return pointsFromDomain(dpts), nil
}

// Table evaluates the curve at comma-separated query times. Invalid entries
// are skipped; empty or all-invalid input falls back to 60 months.
func (c *Client) Table(ctx context.Context, in Features, queryTimes string) (rows []Row, err error) {
	start := time.Now()
	defer func() { c.obs.observe("table", c.defaults.cause, start, err) }()

	v, err := c.encoder.Encode(in)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	drows, err := c.predictSvc.Table(ctx, v, queryTimes, c.defaults.cause)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	return rowsFromDomain(drows), nil
}

// Baseline returns a reference curve's value at t.
func (c *Client) Baseline(name string, t float64) (float64, error) {
	v, err := c.curves.BaselineAt(name, t)
	if err != nil {
		return 0, fmt.Errorf("baseline: %w", err)
	}
	return v, nil
}

// PurgeCache drops cached explanations. Without a cache it is a no-op.
func (c *Client) PurgeCache(ctx context.Context) (int64, error) {
	if c.cache == nil {
		return 0, nil
	}
	n, err := c.cache.Purge(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return n, nil
}

// Schema describes the accepted inputs and the loaded artifacts.
func (c *Client) Schema() SchemaInfo {
	feats := c.schema.Features()
	info := SchemaInfo{
		Features:   make([]FeatureInfo, len(feats)),
		TimePoints: make([]string, len(c.tags)),
		Curves:     c.curves.Names(),
		Causes:     c.causes,
		Version:    c.version,
	}
	for i, f := range feats {
		info.Features[i] = featureFromDomain(f)
	}
	for i, t := range c.tags {
		info.TimePoints[i] = t.String()
	}
	return info
}

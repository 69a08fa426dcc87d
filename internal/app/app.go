// Package app assembles the load-once artifacts and the services built on them.
// The HTTP server, the CLI and the SDK all start from here.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fmhr12/ORN-Prognosis/internal/config"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
	"github.com/fmhr12/ORN-Prognosis/internal/model/finegray"
	curverepo "github.com/fmhr12/ORN-Prognosis/internal/repository/curve"
	gridrepo "github.com/fmhr12/ORN-Prognosis/internal/repository/grid"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/table"
	"github.com/fmhr12/ORN-Prognosis/internal/usecase/explain"
	"github.com/fmhr12/ORN-Prognosis/internal/usecase/predict"
)

// Options locate the artifacts and tune the services.
type Options struct {
	ModelPath string
	Grid      table.Source
	Curves    map[string]table.Source
	Schema    feature.Schema
	Baseline  explain.BaselinePolicy
	Predict   predict.Config
}

// OptionsFromConfig maps the service configuration onto Options.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	schema, err := cfg.Schema()
	if err != nil {
		return Options{}, err //nolint:wrapcheck // already names the config key
	}
	return Options{
		ModelPath: cfg.Data.Model,
		Grid:      cfg.Data.Grid,
		Curves:    cfg.Data.Curves,
		Schema:    schema,
		Baseline: explain.BaselinePolicy{
			Curve:      cfg.Explain.BaselineCurve,
			StratifyBy: cfg.Explain.StratifyBy,
			Strata:     cfg.Explain.Strata,
		},
		Predict: predict.Config{
			DenseMax:  cfg.Curve.DenseMax,
			DenseStep: cfg.Curve.DenseStep,
			CacheSize: cfg.Curve.CacheSize,
			CacheTTL:  time.Duration(cfg.Curve.CacheTTLSec) * time.Second,
		},
	}, nil
}

// Artifacts is the read-only state shared by every request.
type Artifacts struct {
	Schema    feature.Schema
	Model     *finegray.Model
	Grid      *grid.Grid
	Curves    *curve.Store
	Predictor *predict.Service
	Explainer *explain.Service

	// Version identifies the loaded model, grid and curves; cache keys include it.
	Version string
}

// Load reads model, grid and curves once and wires the services. Any failure
// here is fatal for the caller: nothing is served from partial artifacts.
func Load(ctx context.Context, opts Options) (*Artifacts, error) {
	model, err := finegray.Load(opts.ModelPath, opts.Schema)
	if err != nil {
		return nil, err //nolint:wrapcheck // Load names the file
	}

	var (
		g      *grid.Grid
		curves *curve.Store
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		g, err = gridrepo.Load(egCtx, opts.Grid, opts.Schema)
		return err //nolint:wrapcheck // loader names the source
	})
	eg.Go(func() error {
		var err error
		curves, err = curverepo.LoadStore(egCtx, opts.Curves)
		return err //nolint:wrapcheck // loader names the source
	})
	if err := eg.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // loader names the source
	}

	predictor, err := predict.New(model, curves, opts.Predict)
	if err != nil {
		return nil, fmt.Errorf("predict service: %w", err)
	}
	explainer, err := explain.New(g, curves, predictor, opts.Baseline)
	if err != nil {
		return nil, fmt.Errorf("explain service: %w", err)
	}

	return &Artifacts{
		Schema:    opts.Schema,
		Model:     model,
		Grid:      g,
		Curves:    curves,
		Predictor: predictor,
		Explainer: explainer,
		Version:   fingerprint(model, g, curves),
	}, nil
}

// CheckArtifacts reports whether the artifacts can serve requests.
func (a *Artifacts) CheckArtifacts() error {
	switch {
	case a == nil || a.Model == nil || a.Grid == nil || a.Curves == nil:
		return errors.New("artifacts not loaded")
	case a.Grid.Len() == 0:
		return errors.New("grid is empty")
	case len(a.Grid.Tags()) == 0:
		return errors.New("grid has no explanation time points")
	}
	return nil
}

// Stats summarizes the loaded artifacts.
type Stats struct {
	Model        string       `json:"model"`
	Causes       []int        `json:"causes"`
	Features     int          `json:"features"`
	GridRows     int          `json:"grid_rows"`
	Tags         []string     `json:"time_points"`
	Attributable []string     `json:"attributable_features"`
	Curves       []CurveStats `json:"curves"`
	Version      string       `json:"version"`
}

// CurveStats summarizes one reference curve.
type CurveStats struct {
	Name   string  `json:"name"`
	Points int     `json:"points"`
	First  float64 `json:"first_time"`
	Last   float64 `json:"last_time"`
	Final  float64 `json:"final_value"`
}

// Stats returns a summary for diagnostics and the CLI.
func (a *Artifacts) Stats() Stats {
	tags := a.Grid.Tags()
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = t.String()
	}

	names := a.Curves.Names()
	curves := make([]CurveStats, 0, len(names))
	for _, n := range names {
		c, err := a.Curves.Get(n)
		if err != nil {
			continue
		}
		pts := c.Points()
		cs := CurveStats{Name: n, Points: len(pts)}
		if len(pts) > 0 {
			cs.First, cs.Last, cs.Final = pts[0].Time, pts[len(pts)-1].Time, pts[len(pts)-1].Value
		}
		curves = append(curves, cs)
	}

	return Stats{
		Model:        a.Model.Name(),
		Causes:       a.Model.Causes(),
		Features:     a.Schema.Len(),
		GridRows:     a.Grid.Len(),
		Tags:         labels,
		Attributable: a.Grid.AttributableFeatures(),
		Curves:       curves,
		Version:      a.Version,
	}
}

// fingerprint hashes every value an explanation depends on: model parameters,
// grid features and attributions, and reference curve points.
func fingerprint(m *finegray.Model, g *grid.Grid, curves *curve.Store) string {
	h := sha256.New()
	m.Digest(h)
	for i := 0; i < g.Len(); i++ {
		fmt.Fprintf(h, "row %s\n", g.Row(i).Key())
	}
	for _, tag := range g.Tags() {
		tbl, err := g.Attributions(tag)
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "tag %s %q\n", tag, tbl.Features())
		for r := 0; r < tbl.Len(); r++ {
			fmt.Fprintf(h, "%v\n", tbl.Row(r))
		}
	}
	for _, n := range curves.Names() {
		c, err := curves.Get(n)
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "curve %s %v\n", n, c.Points())
	}
	return m.Name() + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Package chi is the HTTP JSON API of the prognosis service.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/explanation"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/timepoint"
	healthuc "github.com/fmhr12/ORN-Prognosis/internal/usecase/health"
	"github.com/fmhr12/ORN-Prognosis/internal/usecase/predict"
)

// Explainer produces explanations (the engine or its cache).
type Explainer interface {
	Explain(ctx context.Context, v feature.Vector, tag grid.Tag, cause int) (explanation.Explanation, error)
}

// Predictor produces curves and tables.
type Predictor interface {
	Curve(ctx context.Context, v feature.Vector, cause int) ([]curve.Point, error)
	Table(ctx context.Context, v feature.Vector, rawTimes string, cause int) ([]predict.Row, error)
	Overlays(names []string) ([]curve.Curve, error)
}

// CurveCatalog reads reference curves.
type CurveCatalog interface {
	BaselineAt(name string, t float64) (float64, error)
	Names() []string
}

// CauseCatalog lists the model's causes.
type CauseCatalog interface {
	Causes() []int
	Label(cause int) string
}

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Deps are the services behind the API.
type Deps struct {
	Explainer Explainer
	Predictor Predictor
	Curves    CurveCatalog
	Causes    CauseCatalog
	Health    HealthChecker
	Schema    feature.Schema
	Tags      []grid.Tag
}

// Defaults fill request fields the caller leaves empty.
type Defaults struct {
	ExplainTime string
	Cause       int
	Overlays    []string
}

// Server serves the prognosis API.
type Server struct {
	deps          Deps
	defaults      Defaults
	encoder       *feature.Encoder
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(deps Deps, defaults Defaults) *Server {
	if defaults.Cause <= 0 {
		defaults.Cause = 1
	}
	return &Server{
		deps:          deps,
		defaults:      defaults,
		encoder:       feature.NewEncoder(deps.Schema),
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", s.Predict)
		r.Post("/explain", s.Explain)
		r.Post("/curve", s.Curve)
		r.Get("/schema", s.Schema)
		r.Get("/baseline/{curve}", s.Baseline)
	})
}

// Predict handles POST /api/v1/predict: curve, table, overlays and explanation.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	req, v, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	cause := s.cause(req)

	cr, err := s.curveResponse(r.Context(), v, req, cause)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	e, err := s.deps.Explainer.Explain(r.Context(), v, s.tag(req), cause)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PredictResponse{CurveResponse: cr, Explanation: e})
}

// Explain handles POST /api/v1/explain.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	req, v, ok := s.decode(w, r, true)
	if !ok {
		return
	}
	e, err := s.deps.Explainer.Explain(r.Context(), v, s.tag(req), s.cause(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Curve handles POST /api/v1/curve.
func (s *Server) Curve(w http.ResponseWriter, r *http.Request) {
	req, v, ok := s.decode(w, r, false)
	if !ok {
		return
	}
	cr, err := s.curveResponse(r.Context(), v, req, s.cause(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cr)
}

// Schema handles GET /api/v1/schema.
func (s *Server) Schema(w http.ResponseWriter, _ *http.Request) {
	feats := s.deps.Schema.Features()
	resp := SchemaResponse{
		Features:   make([]FeatureDTO, len(feats)),
		TimePoints: make([]string, len(s.deps.Tags)),
		Curves:     s.deps.Curves.Names(),
		Defaults: DefaultsDTO{
			ExplainTime: s.defaults.ExplainTime,
			Cause:       s.defaults.Cause,
			QueryTime:   timepoint.DefaultQueryTime,
			Overlays:    s.defaults.Overlays,
		},
	}
	for i, f := range feats {
		resp.Features[i] = featureToDTO(f)
	}
	for i, t := range s.deps.Tags {
		resp.TimePoints[i] = t.String()
	}
	for _, c := range s.deps.Causes.Causes() {
		resp.Causes = append(resp.Causes, CauseDTO{Cause: c, Label: s.deps.Causes.Label(c)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Baseline handles GET /api/v1/baseline/{curve}?time=60.
func (s *Server) Baseline(w http.ResponseWriter, r *http.Request) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "curve", chi.URLParam(r, "curve"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code: CodeBadRequest, Message: "invalid curve name", Field: "curve",
		})
		return
	}

	var t float64
	if err := runtime.BindQueryParameter("form", true, true, "time", r.URL.Query(), &t); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code: CodeValidationFailed, Message: "time must be a number", Field: "time",
		})
		return
	}
	if t < 0 {
		s.handleDomainError(w, r, domain.NewValidationError("time", "must be non-negative"))
		return
	}

	value, err := s.deps.Curves.BaselineAt(name, t)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BaselineResponse{Curve: name, Time: t, Value: value})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads the request body and encodes its features. When explain is set
// the explanation time point is checked before any feature is encoded. It writes
// the error response itself and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, explain bool) (PredictRequest, feature.Vector, bool) {
	var req PredictRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, CodeBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		}
		return req, feature.Vector{}, false
	}
	if req.Features == nil {
		s.handleDomainError(w, r, domain.NewValidationError("features", "is required"))
		return req, feature.Vector{}, false
	}
	if explain {
		if err := s.checkTag(s.tag(req)); err != nil {
			s.handleDomainError(w, r, err)
			return req, feature.Vector{}, false
		}
	}
	v, err := s.encoder.Encode(req.Features)
	if err != nil {
		s.handleDomainError(w, r, err)
		return req, feature.Vector{}, false
	}
	return req, v, true
}

func (s *Server) curveResponse(
	ctx context.Context, v feature.Vector, req PredictRequest, cause int,
) (CurveResponse, error) {
	pts, err := s.deps.Predictor.Curve(ctx, v, cause)
	if err != nil {
		return CurveResponse{}, fmt.Errorf("curve: %w", err)
	}

	raw := ""
	if req.QueryTimes != nil {
		raw = *req.QueryTimes
	}
	rows, err := s.deps.Predictor.Table(ctx, v, raw, cause)
	if err != nil {
		return CurveResponse{}, fmt.Errorf("table: %w", err)
	}

	names := req.Overlays
	if names == nil {
		names = s.defaults.Overlays
	}
	overlays, err := s.deps.Predictor.Overlays(names)
	if err != nil {
		return CurveResponse{}, fmt.Errorf("overlays: %w", err)
	}

	return CurveResponse{
		Cause:      cause,
		CauseLabel: s.deps.Causes.Label(cause),
		Curve:      pointsToDTO(pts),
		Table:      rows,
		Overlays:   overlaysToDTO(overlays),
	}, nil
}

func (s *Server) tag(req PredictRequest) grid.Tag {
	if t := strings.TrimSpace(req.ExplainTime); t != "" {
		return grid.Tag(t)
	}
	return grid.Tag(s.defaults.ExplainTime)
}

// checkTag rejects time points without precomputed attributions. An empty tag
// list leaves the check to the explainer.
func (s *Server) checkTag(tag grid.Tag) error {
	if len(s.deps.Tags) == 0 || slices.Contains(s.deps.Tags, tag) {
		return nil
	}
	return fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownTimePoint, string(tag), s.deps.Tags)
}

func (s *Server) cause(req PredictRequest) int {
	if req.Cause > 0 {
		return req.Cause
	}
	return s.defaults.Cause
}

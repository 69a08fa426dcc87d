package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fmhr12/ORN-Prognosis/internal/metrics"
)

// RouterConfig configures the middleware chain.
type RouterConfig struct {
	APIKeys      []string
	MaxBodyBytes int64
	RateLimiter  *RateLimiter // nil disables rate limiting
}

// NewRouter wires the middleware chain and mounts the server's routes.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(logger))
	r.Use(MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(cfg.RateLimiter.Middleware(len(activeKeys(cfg.APIKeys)) > 0))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})
	s.Routes(r)
	return r
}

package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service answers requests but an optional dependency is down.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer requests.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	artifacts ArtifactChecker
	cache     Pinger
}

// New creates a Service. cache can be nil when the explanation cache is disabled.
func New(artifacts ArtifactChecker, cache Pinger) *Service {
	return &Service{artifacts: artifacts, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	if err := s.artifacts.CheckArtifacts(); err != nil {
		checks["artifacts"] = CheckError
		status = Unhealthy
	} else {
		checks["artifacts"] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["cache"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}

package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockArtifacts struct {
	err error
}

func (m *mockArtifacts) CheckArtifacts() error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockArtifacts{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["artifacts"] != CheckOK || r.Checks["cache"] != CheckOK {
		t.Errorf("checks = %v", r.Checks)
	}
}

func TestCheck_NoCache(t *testing.T) {
	svc := New(&mockArtifacts{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check must be absent when cache is disabled")
	}
}

func TestCheck_CacheDownIsDegraded(t *testing.T) {
	svc := New(&mockArtifacts{}, &mockPinger{err: errors.New("connection refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}

func TestCheck_ArtifactsBrokenIsUnhealthy(t *testing.T) {
	svc := New(&mockArtifacts{err: errors.New("grid empty")}, &mockPinger{err: errors.New("down")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

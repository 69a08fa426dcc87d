package explcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fmhr12/ORN-Prognosis/internal/db"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/explanation"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
)

// --- Mocks ---

type mockExplainer struct {
	result explanation.Explanation
	err    error
	calls  int
}

func (m *mockExplainer) Explain(
	_ context.Context, _ feature.Vector, _ grid.Tag, _ int,
) (explanation.Explanation, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn  func(ctx context.Context, key string) ([]byte, error)
	setFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	scanFn func(ctx context.Context, pattern string) ([]string, error)
	delFn  func(ctx context.Context, keys ...string) (int64, error)
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockKVStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return int64(len(keys)), nil
}

func testVector(t *testing.T, age float64, smoking string) feature.Vector {
	t.Helper()
	a, _ := feature.NewNumeric("Age", 18, 90)
	s, _ := feature.NewCategorical("Smoking", []string{"Never", "Former", "Current"})
	schema, err := feature.NewSchema(a, s)
	if err != nil {
		t.Fatal(err)
	}
	v, err := feature.NewEncoder(schema).Encode(map[string]any{"Age": age, "Smoking": smoking})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func sampleExplanation() explanation.Explanation {
	return explanation.Assemble(explanation.Parts{
		ID:            "e-1",
		Tag:           "60",
		Time:          60,
		BaselineCurve: "overall",
		Baseline:      0.08,
		Features:      []string{"Age", "Smoking"},
		Attributions:  []float64{0.012, -0.003},
		Residual:      0.0011,
		Prediction:    0.0901,
		Neighbors:     []explanation.Neighbor{{Index: 2, Distance: 0.1, Weight: 1}},
	})
}

func newTestCache(t *testing.T, inner *mockExplainer) (*Cache, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, time.Hour, "model-v1", zap.NewNop()), ms
}

package curve

import (
	"fmt"
	"sort"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
)

// Store holds named reference curves. It is read-only after construction.
type Store struct {
	curves map[string]Curve
}

// NewStore creates a store from curves. Names must be unique.
func NewStore(curves ...Curve) (*Store, error) {
	m := make(map[string]Curve, len(curves))
	for _, c := range curves {
		if _, dup := m[c.name]; dup {
			return nil, fmt.Errorf("duplicate reference curve %q", c.name)
		}
		m[c.name] = c
	}
	return &Store{curves: m}, nil
}

// Get returns a named curve.
func (s *Store) Get(name string) (Curve, error) {
	c, ok := s.curves[name]
	if !ok {
		return Curve{}, fmt.Errorf("%w: %q", domain.ErrCurveNotFound, name)
	}
	return c, nil
}

// Has reports whether a curve exists.
func (s *Store) Has(name string) bool {
	_, ok := s.curves[name]
	return ok
}

// BaselineAt returns the named curve's value at time t (clamped linear interpolation).
func (s *Store) BaselineAt(name string, t float64) (float64, error) {
	c, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	return c.At(t), nil
}

// Names returns curve names sorted alphabetically.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.curves))
	for n := range s.curves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

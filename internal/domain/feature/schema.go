package feature

import "fmt"

// Schema is the ordered, fixed feature set shared by encoding, distance and prediction.
type Schema struct {
	features []Feature
	index    map[string]int
}

// NewSchema validates and creates a schema. Order is significant and preserved.
func NewSchema(features ...Feature) (Schema, error) {
	if len(features) == 0 {
		return Schema{}, fmt.Errorf("schema requires at least one feature")
	}
	index := make(map[string]int, len(features))
	for i, f := range features {
		if f.name == "" {
			return Schema{}, fmt.Errorf("feature %d has no name", i)
		}
		if _, dup := index[f.name]; dup {
			return Schema{}, fmt.Errorf("duplicate feature name: %s", f.name)
		}
		index[f.name] = i
	}
	return Schema{features: append([]Feature(nil), features...), index: index}, nil
}

// Len returns the number of features.
func (s Schema) Len() int { return len(s.features) }

// Features returns the features in declared order.
func (s Schema) Features() []Feature { return append([]Feature(nil), s.features...) }

// At returns the i-th feature.
func (s Schema) At(i int) Feature { return s.features[i] }

// Names returns feature names in declared order.
func (s Schema) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.name
	}
	return names
}

// Index returns the position of a feature by name.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// ByName looks up a feature by name.
func (s Schema) ByName(name string) (Feature, bool) {
	i, ok := s.index[name]
	if !ok {
		return Feature{}, false
	}
	return s.features[i], true
}

// Equal reports whether both schemas declare the same features in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.features) != len(other.features) {
		return false
	}
	for i, f := range s.features {
		o := other.features[i]
		if f.name != o.name || f.kind != o.kind {
			return false
		}
	}
	return true
}

package feature

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
)

func testSchema(t *testing.T) Schema {
	t.Helper()
	age, err := NewNumeric("Age", 18, 90)
	if err != nil {
		t.Fatalf("NewNumeric: %v", err)
	}
	dose, err := NewNumeric("Dmean", 0, 75)
	if err != nil {
		t.Fatalf("NewNumeric: %v", err)
	}
	smoking, err := NewCategorical("Smoking", []string{"Never", "Former", "Current"})
	if err != nil {
		t.Fatalf("NewCategorical: %v", err)
	}
	s, err := NewSchema(age, dose, smoking)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func TestNewNumeric_MinGreaterThanMax(t *testing.T) {
	if _, err := NewNumeric("Age", 10, 5); err == nil {
		t.Fatal("expected error for min > max")
	}
}

func TestNewCategorical_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		levels []string
	}{
		{"no levels", nil},
		{"empty level", []string{"Yes", ""}},
		{"duplicate level", []string{"Yes", "Yes"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCategorical("X", tc.levels); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_InvalidKind(t *testing.T) {
	if _, err := New("X", Kind("ordinal"), 0, 1, nil); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}

func TestNewSchema_Duplicate(t *testing.T) {
	a, _ := NewNumeric("Age", 0, 1)
	if _, err := NewSchema(a, a); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestNewSchema_Empty(t *testing.T) {
	if _, err := NewSchema(); err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestSchema_OrderAndLookup(t *testing.T) {
	s := testSchema(t)
	names := s.Names()
	want := []string{"Age", "Dmean", "Smoking"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
	i, ok := s.Index("Smoking")
	if !ok || i != 2 {
		t.Errorf("Index(Smoking) = %d, %v", i, ok)
	}
	if _, ok := s.ByName("Missing"); ok {
		t.Error("ByName should not find Missing")
	}
}

func TestEncode_Valid(t *testing.T) {
	enc := NewEncoder(testSchema(t))
	v, err := enc.Encode(map[string]any{
		"Age":     json.Number("61"),
		"Dmean":   "44.5",
		"Smoking": " Current ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Numeric(0) != 61 {
		t.Errorf("Age = %v", v.Numeric(0))
	}
	if v.Numeric(1) != 44.5 {
		t.Errorf("Dmean = %v", v.Numeric(1))
	}
	if v.Level(2) != "Current" {
		t.Errorf("Smoking = %q", v.Level(2))
	}
	if v.Key() != "Age=61|Dmean=44.5|Smoking=Current" {
		t.Errorf("Key() = %q", v.Key())
	}
}

func TestEncode_NoRangeClamping(t *testing.T) {
	enc := NewEncoder(testSchema(t))
	v, err := enc.Encode(map[string]any{"Age": 120.0, "Dmean": -3.0, "Smoking": "Never"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Numeric(0) != 120 || v.Numeric(1) != -3 {
		t.Errorf("values were clamped: %v", v.Map())
	}
}

func TestEncode_ValidationErrors(t *testing.T) {
	enc := NewEncoder(testSchema(t))
	tests := []struct {
		name      string
		raw       map[string]any
		wantField string
		wantMsg   string
	}{
		{
			name:      "undeclared level",
			raw:       map[string]any{"Age": 50.0, "Dmean": 40.0, "Smoking": "Sometimes"},
			wantField: "Smoking",
			wantMsg:   "not one of Never, Former, Current",
		},
		{
			name:      "missing feature",
			raw:       map[string]any{"Age": 50.0, "Smoking": "Never"},
			wantField: "Dmean",
			wantMsg:   "value is required",
		},
		{
			name:      "unknown feature",
			raw:       map[string]any{"Age": 50.0, "Dmean": 40.0, "Smoking": "Never", "Bmi": 20.0},
			wantField: "Bmi",
			wantMsg:   "unknown feature",
		},
		{
			name:      "non-numeric",
			raw:       map[string]any{"Age": "old", "Dmean": 40.0, "Smoking": "Never"},
			wantField: "Age",
			wantMsg:   "not a number",
		},
		{
			name:      "wrong type for categorical",
			raw:       map[string]any{"Age": 50.0, "Dmean": 40.0, "Smoking": true},
			wantField: "Smoking",
			wantMsg:   "expected one of",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enc.Encode(tc.raw)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if got := domain.FieldOf(err); got != tc.wantField {
				t.Errorf("field = %q, want %q", got, tc.wantField)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestEncode_NumericLevel(t *testing.T) {
	grade, _ := NewCategorical("Grade", []string{"1", "2", "3"})
	s, _ := NewSchema(grade)
	v, err := NewEncoder(s).Encode(map[string]any{"Grade": 2.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Level(0) != "2" {
		t.Errorf("Grade = %q", v.Level(0))
	}
}

func TestEncodeStrings(t *testing.T) {
	enc := NewEncoder(testSchema(t))
	v, err := enc.EncodeStrings(map[string]string{"Age": "70", "Dmean": "12", "Smoking": "Former"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lvl, ok := v.LevelOf("Smoking")
	if !ok || lvl != "Former" {
		t.Errorf("LevelOf(Smoking) = %q, %v", lvl, ok)
	}
	if _, ok := v.LevelOf("Age"); ok {
		t.Error("LevelOf on numeric feature should report false")
	}
}

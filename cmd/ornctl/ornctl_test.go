package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
)

const testConfig = "../../config/local.yaml"

const testFeatures = "Age=61,Smoking=Former,Dmean=48.5,Extraction=Yes,Chemotherapy=No"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestExplain_Text(t *testing.T) {
	out, _, err := run(t, "explain", "-c", testConfig, "-f", testFeatures, "-t", "24")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	for _, want := range []string{"Time point 24", "baseline (extraction_yes)", "Age", "unattributed", "prediction"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExplain_JSON(t *testing.T) {
	out, _, err := run(t, "explain", "-c", testConfig, "-f", testFeatures, "-o", "json")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	var e struct {
		TimePoint     string
		Baseline      float64
		Prediction    float64
		Contributions []struct {
			Feature string
			Value   float64
		}
	}
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	sum := e.Baseline
	for _, c := range e.Contributions {
		sum += c.Value
	}
	if e.TimePoint != "60" || math.Abs(sum-e.Prediction) > 1e-9 {
		t.Errorf("explanation = %+v", e)
	}
}

func TestExplain_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing features flag", []string{"explain", "-c", testConfig}},
		{"unknown time point", []string{"explain", "-c", testConfig, "-f", testFeatures, "-t", "7"}},
		{"bad level", []string{"explain", "-c", testConfig, "-f", strings.Replace(testFeatures, "Former", "Often", 1)}},
		{"bad format", []string{"explain", "-c", testConfig, "-f", testFeatures, "-o", "yaml"}},
		{"missing config", []string{"explain", "-c", "testdata/nope.yaml", "-f", testFeatures}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCurve_QueryTimes(t *testing.T) {
	out, _, err := run(t, "curve", "-c", testConfig, "-f", testFeatures, "--times", "60, abc, 90")
	if err != nil {
		t.Fatalf("curve: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "60 ") || !strings.HasPrefix(lines[2], "90 ") {
		t.Errorf("rows = %q", lines[1:])
	}
	if !strings.Contains(lines[1], "%") {
		t.Errorf("expected percent column: %q", lines[1])
	}
}

func TestCurve_DefaultTime(t *testing.T) {
	out, _, err := run(t, "curve", "-c", testConfig, "-f", testFeatures, "-o", "json")
	if err != nil {
		t.Fatalf("curve: %v", err)
	}
	var rows []struct{ Time float64 }
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Time != 60 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestCurve_Dense(t *testing.T) {
	out, _, err := run(t, "curve", "-c", testConfig, "-f", testFeatures, "--dense", "-o", "json")
	if err != nil {
		t.Fatalf("curve: %v", err)
	}
	var pts []struct{ Time, Value float64 }
	if err := json.Unmarshal([]byte(out), &pts); err != nil {
		t.Fatal(err)
	}
	if len(pts) != 115 {
		t.Errorf("dense points = %d", len(pts))
	}
}

func TestSchema(t *testing.T) {
	out, _, err := run(t, "schema", "-c", testConfig)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	for _, want := range []string{"Dmean", "0 .. 80", "Never | Former | Current", "24, 36, 60", "1=ORN"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", "-c", testConfig)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "OK  model orn-finegray-v1") || !strings.Contains(out, "curve extraction_no") {
		t.Errorf("output:\n%s", out)
	}
}

func TestValidate_JSON(t *testing.T) {
	out, _, err := run(t, "validate", "-c", testConfig, "-o", "json")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var st struct {
		GridRows int `json:"grid_rows"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatal(err)
	}
	if st.GridRows != 120 {
		t.Errorf("grid rows = %d", st.GridRows)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "ornctl dev") {
		t.Errorf("version = %q", out)
	}
}

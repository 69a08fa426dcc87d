package app

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fmhr12/ORN-Prognosis/internal/config"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/table"
	"github.com/fmhr12/ORN-Prognosis/internal/usecase/explain"
)

func testConfig() config.Config {
	cfg := config.Config{
		HTTP: config.HTTPConfig{Port: 8080},
		Data: config.DataConfig{
			Model: filepath.Join("testdata", "model.yaml"),
			Grid:  table.Source{Path: filepath.Join("testdata", "grid.csv")},
			Curves: map[string]table.Source{
				"overall":        {Path: filepath.Join("testdata", "cif_overall.csv")},
				"extraction_yes": {Path: filepath.Join("testdata", "cif_extraction_yes.csv")},
				"extraction_no":  {Path: filepath.Join("testdata", "cif_extraction_no.csv")},
			},
			Features: []config.FeatureConfig{
				{Name: "Age", Kind: "numeric", Min: 18, Max: 90},
				{Name: "Smoking", Kind: "categorical", Levels: []string{"Never", "Former", "Current"}},
				{Name: "Dmean", Kind: "numeric", Min: 0, Max: 80},
				{Name: "Extraction", Kind: "categorical", Levels: []string{"No", "Yes"}},
				{Name: "Chemotherapy", Kind: "categorical", Levels: []string{"No", "Yes"}},
			},
		},
		Explain: config.ExplainConfig{
			StratifyBy: "Extraction",
			Strata:     map[string]string{"Yes": "extraction_yes", "No": "extraction_no"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func loadTest(t *testing.T) *Artifacts {
	t.Helper()
	opts, err := OptionsFromConfig(testConfig())
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	a, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return a
}

func TestLoad(t *testing.T) {
	a := loadTest(t)

	if err := a.CheckArtifacts(); err != nil {
		t.Fatalf("CheckArtifacts: %v", err)
	}
	st := a.Stats()
	if st.GridRows != 12 || st.Features != 5 {
		t.Errorf("stats = %+v", st)
	}
	if len(st.Tags) != 3 || st.Tags[0] != "24" || st.Tags[2] != "60" {
		t.Errorf("tags = %v", st.Tags)
	}
	if len(st.Attributable) != 4 {
		t.Errorf("attributable = %v", st.Attributable)
	}
	if len(st.Curves) != 3 || st.Curves[0].Name != "extraction_no" {
		t.Errorf("curves = %+v", st.Curves)
	}
	if st.Version == "" || st.Model != "orn-finegray-v1" {
		t.Errorf("model/version = %q/%q", st.Model, st.Version)
	}
}

func TestLoad_VersionIsStable(t *testing.T) {
	if loadTest(t).Version != loadTest(t).Version {
		t.Error("same artifacts must produce the same version")
	}
}

// copyTestdata copies the artifacts to a temp dir, applying edit to the named file.
func copyTestdata(t *testing.T, name string, edit func(string) string) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("testdata", e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		out := string(data)
		if e.Name() == name {
			out = edit(out)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), []byte(out), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func loadFrom(t *testing.T, dir string) *Artifacts {
	t.Helper()
	opts, err := OptionsFromConfig(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	opts.ModelPath = filepath.Join(dir, "model.yaml")
	opts.Grid = table.Source{Path: filepath.Join(dir, "grid.csv")}
	for n, src := range opts.Curves {
		opts.Curves[n] = table.Source{Path: filepath.Join(dir, filepath.Base(src.Path))}
	}
	a, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return a
}

func TestLoad_VersionTracksContent(t *testing.T) {
	base := loadFrom(t, copyTestdata(t, "", nil)).Version
	if want := loadTest(t).Version; base != want {
		t.Fatalf("copied artifacts changed the version: %s != %s", base, want)
	}

	tests := map[string]struct {
		file string
		edit func(string) string
	}{
		"attribution cell": {"grid.csv", func(s string) string {
			return strings.Replace(s, "-0.002108", "-0.002109", 1)
		}},
		"grid feature value": {"grid.csv", func(s string) string {
			return strings.Replace(s, "1,55,Never,36.7", "1,55,Never,36.8", 1)
		}},
		"curve point": {"cif_overall.csv", func(s string) string {
			return strings.Replace(s, "12,0.035348", "12,0.035349", 1)
		}},
		"model coefficient": {"model.yaml", func(s string) string {
			return strings.Replace(s, "coef: 0.045", "coef: 0.046", 1)
		}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := copyTestdata(t, tt.file, func(s string) string {
				out := tt.edit(s)
				if out == s {
					t.Fatalf("edit did not apply to %s", tt.file)
				}
				return out
			})
			if v := loadFrom(t, dir).Version; v == base {
				t.Errorf("version unchanged after editing %s: %s", tt.file, v)
			}
		})
	}
}

func TestLoad_EndToEndLocalAccuracy(t *testing.T) {
	a := loadTest(t)
	ctx := context.Background()

	v, err := feature.NewEncoder(a.Schema).Encode(map[string]any{
		"Age": 63, "Smoking": "Current", "Dmean": 52.5, "Extraction": "Yes", "Chemotherapy": "No",
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	for _, tag := range a.Grid.Tags() {
		e, err := a.Explainer.Explain(ctx, v, tag, 1)
		if err != nil {
			t.Fatalf("Explain(%s): %v", tag, err)
		}
		if e.BaselineCurve != "extraction_yes" {
			t.Errorf("baseline curve = %q", e.BaselineCurve)
		}
		p, err := a.Predictor.PointAt(ctx, v, tag.Time(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(e.Total()-p) > 1e-12 || e.Prediction != p {
			t.Errorf("tag %s: total %g, prediction %g, model %g", tag, e.Total(), e.Prediction, p)
		}
	}

	pts, err := a.Predictor.Curve(ctx, v, 1)
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(pts) != 115 {
		t.Errorf("dense curve has %d points", len(pts))
	}
}

func TestLoad_Failures(t *testing.T) {
	base, err := OptionsFromConfig(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	badGrid := filepath.Join(dir, "grid.csv")
	if err := os.WriteFile(badGrid, []byte("Age,Smoking\n40,Never\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := map[string]func(o *Options){
		"missing model": func(o *Options) { o.ModelPath = filepath.Join(dir, "none.yaml") },
		"bad grid":      func(o *Options) { o.Grid = table.Source{Path: badGrid} },
		"missing curve": func(o *Options) {
			o.Curves = map[string]table.Source{"overall": {Path: filepath.Join(dir, "none.csv")}}
		},
		"baseline curve not loaded": func(o *Options) {
			o.Baseline = explain.BaselinePolicy{Curve: "nope"}
		},
		"numeric stratifier": func(o *Options) {
			o.Baseline = explain.BaselinePolicy{Curve: "overall", StratifyBy: "Age"}
		},
		"schema mismatch": func(o *Options) {
			age, _ := feature.NewNumeric("Age", 18, 90)
			o.Schema, _ = feature.NewSchema(age)
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			opts := base
			mutate(&opts)
			if _, err := Load(context.Background(), opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCheckArtifacts_Nil(t *testing.T) {
	var a *Artifacts
	if err := a.CheckArtifacts(); err == nil {
		t.Fatal("expected error for nil artifacts")
	}
	if err := (&Artifacts{}).CheckArtifacts(); err == nil {
		t.Fatal("expected error for empty artifacts")
	}
}

// Package config loads service configuration from config/<env>.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/table"
)

// Config holds the prognosis service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Data      DataConfig      `yaml:"data"`
	Explain   ExplainConfig   `yaml:"explain"`
	Curve     CurveConfig     `yaml:"curve"`
	Cache     CacheConfig     `yaml:"cache"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty APIKeys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// RateLimitConfig holds the per-client token bucket. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// FeatureConfig declares one model input.
type FeatureConfig struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"` // numeric, categorical
	Min    float64  `yaml:"min"`
	Max    float64  `yaml:"max"`
	Levels []string `yaml:"levels"`
}

// DataConfig locates the load-once artifacts.
type DataConfig struct {
	Model    string                  `yaml:"model"`
	Grid     table.Source            `yaml:"grid"`
	Curves   map[string]table.Source `yaml:"curves"`
	Features []FeatureConfig         `yaml:"features"`
}

// ExplainConfig holds explanation defaults and baseline resolution.
type ExplainConfig struct {
	BaselineCurve string            `yaml:"baseline_curve"`
	StratifyBy    string            `yaml:"stratify_by"`
	Strata        map[string]string `yaml:"strata"` // level -> curve name
	DefaultTime   string            `yaml:"default_time"`
	DefaultCause  int               `yaml:"default_cause"`
}

// CurveConfig holds the dense display grid and its in-process cache.
type CurveConfig struct {
	DenseMax    float64  `yaml:"dense_max"`
	DenseStep   float64  `yaml:"dense_step"`
	CacheSize   int      `yaml:"cache_size"`
	CacheTTLSec int      `yaml:"cache_ttl_sec"`
	Overlays    []string `yaml:"overlays"` // default overlays when a request names none
}

// CacheConfig holds the shared explanation cache.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TracingConfig holds OpenTelemetry export settings. Empty Endpoint disables export.
type TracingConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = int(c.RateLimit.RPS) + 1
	}
	if c.Explain.BaselineCurve == "" {
		c.Explain.BaselineCurve = "overall"
	}
	if c.Explain.DefaultTime == "" {
		c.Explain.DefaultTime = "60"
	}
	if c.Explain.DefaultCause <= 0 {
		c.Explain.DefaultCause = 1
	}
	if c.Curve.DenseMax <= 0 {
		c.Curve.DenseMax = 114
	}
	if c.Curve.DenseStep <= 0 {
		c.Curve.DenseStep = 1
	}
	if c.Curve.CacheSize <= 0 {
		c.Curve.CacheSize = 1024
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Tracing.SamplingRate <= 0 {
		c.Tracing.SamplingRate = 1
	}
	if c.Data.Grid.Driver == "" {
		c.Data.Grid.Driver = table.DriverCSV
	}
	for name, src := range c.Data.Curves {
		if src.Driver == "" {
			src.Driver = table.DriverCSV
			c.Data.Curves[name] = src
		}
	}
}

// Validate checks the configuration for correctness. Every problem found is
// reported; use multierr.Errors to split the result.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		add("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.RateLimit.RPS < 0 {
		add("rate_limit.rps must be >= 0, got %g", c.RateLimit.RPS)
	}
	if c.Data.Model == "" {
		add("data.model is required")
	}
	if c.Data.Grid.Path == "" {
		add("data.grid.path is required")
	}
	if len(c.Data.Curves) == 0 {
		add("data.curves must name at least one curve")
	}
	if _, ok := c.Data.Curves[c.Explain.BaselineCurve]; !ok {
		add("explain.baseline_curve %q is not in data.curves", c.Explain.BaselineCurve)
	}
	for level, name := range c.Explain.Strata {
		if _, ok := c.Data.Curves[name]; !ok {
			add("explain.strata.%s: curve %q is not in data.curves", level, name)
		}
	}
	if _, err := c.Schema(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if n := c.Curve.SamplingPoints(); n > maxDensePoints {
		add("curve: dense grid of %d points exceeds %d", n, maxDensePoints)
	}
	if c.Tracing.SamplingRate > 1 {
		add("tracing.sampling_rate must be in (0, 1], got %g", c.Tracing.SamplingRate)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		add("cache.addrs is required when cache.enabled")
	}
	return errs
}

const maxDensePoints = 100000

// SamplingPoints is the number of points on the dense display grid.
func (c CurveConfig) SamplingPoints() int {
	if c.DenseStep <= 0 {
		return 0
	}
	return int(c.DenseMax/c.DenseStep) + 1
}

// Schema builds the feature schema from data.features.
func (c *Config) Schema() (feature.Schema, error) {
	if len(c.Data.Features) == 0 {
		return feature.Schema{}, fmt.Errorf("data.features must declare at least one feature")
	}
	feats := make([]feature.Feature, 0, len(c.Data.Features))
	for i, fc := range c.Data.Features {
		f, err := feature.New(fc.Name, feature.Kind(fc.Kind), fc.Min, fc.Max, fc.Levels)
		if err != nil {
			return feature.Schema{}, fmt.Errorf("data.features[%d]: %w", i, err)
		}
		feats = append(feats, f)
	}
	s, err := feature.NewSchema(feats...)
	if err != nil {
		return feature.Schema{}, fmt.Errorf("data.features: %w", err)
	}
	return s, nil
}

// resolvePaths makes relative data paths relative to the config file's parent
// directory, so config/local.yaml can refer to data/grid.csv.
func (c *Config) resolvePaths(configDir string) {
	root := filepath.Dir(configDir)
	c.Data.Model = resolve(root, c.Data.Model)
	c.Data.Grid = resolveSource(root, c.Data.Grid)
	for name, src := range c.Data.Curves {
		c.Data.Curves[name] = resolveSource(root, src)
	}
}

func resolveSource(root string, src table.Source) table.Source {
	if table.CanonicalDriver(src.Driver) == table.DriverPostgres {
		return src // DSN, not a path
	}
	src.Path = resolve(root, src.Path)
	return src
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) || fileExists(p) {
		return p
	}
	return filepath.Join(root, p)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

package ornprog

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	configPath string
	env        string

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	cause int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithConfigFile loads artifacts and defaults from a service config file.
// Relative data paths resolve against the parent of the file's directory.
func WithConfigFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.configPath = path
	})
}

// WithEnv loads config/<env>.yaml, searched upwards from the working directory.
func WithEnv(env string) Option {
	return optionFunc(func(c *clientConfig) {
		c.env = env
	})
}

// WithRedisCache caches explanations in Redis for ttl.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithCause selects the competing-risk cause. Default: the config's default cause.
func WithCause(cause int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cause = cause
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

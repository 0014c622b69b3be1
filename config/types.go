// Package config provides configuration management for baybridge.
package config

import "time"

// Config is the top-level configuration for one peer process: where it
// keeps its persisted state, which peers it syncs against, and how its
// ambient subsystems (logging, metrics) behave.
type Config struct {
	Environment string `yaml:"environment" json:"environment"`

	// BaseDir is the configurable base directory everything else is
	// discovered relative to (§6): the signing-key file, the event
	// store, and the immutable blob directory.
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// ListenAddr is the address the HTTP server facade binds to.
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// Peers is the set of peer base URLs the sync task fans out to.
	Peers []string `yaml:"peers" json:"peers"`

	Tasks          TasksConfig          `yaml:"tasks" json:"tasks"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" json:"circuit_breaker"`
	Logging        LoggingConfig        `yaml:"logging" json:"logging"`
	Metrics        MetricsConfig        `yaml:"metrics" json:"metrics"`
	Health         HealthConfig         `yaml:"health" json:"health"`
	Storage        StorageConfig        `yaml:"storage" json:"storage"`
}

// TasksConfig controls the task controller's scheduling loop (§4.8).
type TasksConfig struct {
	Period     time.Duration `yaml:"period" json:"period"`
	RPCTimeout time.Duration `yaml:"rpc_timeout" json:"rpc_timeout"`
}

// CircuitBreakerConfig holds per-peer connection backoff settings (§5).
// rpc.NewPeer does not read them: every peer's breaker uses the fixed
// constants in package rpc (3 failures, 500ms base, 30s cap), which equal
// the defaults set by setDefaults.
type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" json:"failure_threshold"`
	BaseBackoff      time.Duration `yaml:"base_backoff" json:"base_backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff" json:"max_backoff"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text (not read: the logger always writes JSON)
	Output string `yaml:"output" json:"output"` // stdout or stderr; any other value writes to stdout
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig controls the liveness/readiness HTTP endpoint.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// StorageConfig selects and configures the event store backend.
type StorageConfig struct {
	Backend  string          `yaml:"backend" json:"backend"` // memory, postgres
	Postgres PostgresConfig  `yaml:"postgres" json:"postgres"`
}

// PostgresConfig configures the Postgres-backed event store.
type PostgresConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode"`
}

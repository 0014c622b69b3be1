package config

import "fmt"

// ValidationIssue is one problem found in a Config, labeled with a
// severity level so callers can choose to fail on "error" but merely log
// "warning".
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // error, warning
}

// ValidateConfiguration checks a Config for the invariants the rest of the
// system assumes (a non-empty listen address, a known storage backend,
// sane task periods) and returns every issue found.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.ListenAddr == "" {
		issues = append(issues, ValidationIssue{Field: "listen_addr", Message: "must not be empty", Level: "error"})
	}
	if cfg.BaseDir == "" {
		issues = append(issues, ValidationIssue{Field: "base_dir", Message: "must not be empty", Level: "error"})
	}

	switch cfg.Storage.Backend {
	case "memory", "postgres":
	default:
		issues = append(issues, ValidationIssue{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown backend %q, expected memory or postgres", cfg.Storage.Backend),
			Level:   "error",
		})
	}
	if cfg.Storage.Backend == "postgres" && cfg.Storage.Postgres.Database == "" {
		issues = append(issues, ValidationIssue{Field: "storage.postgres.database", Message: "must not be empty", Level: "error"})
	}

	if cfg.Tasks.Period <= 0 {
		issues = append(issues, ValidationIssue{Field: "tasks.period", Message: "must be positive", Level: "error"})
	}
	if cfg.Tasks.RPCTimeout <= 0 {
		issues = append(issues, ValidationIssue{Field: "tasks.rpc_timeout", Message: "must be positive", Level: "error"})
	}

	for i, peer := range cfg.Peers {
		if peer == "" {
			issues = append(issues, ValidationIssue{
				Field:   fmt.Sprintf("peers[%d]", i),
				Message: "must not be empty",
				Level:   "warning",
			})
		}
	}

	return issues
}

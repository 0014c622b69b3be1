package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nicolaschan/baybridge/config"
	"github.com/nicolaschan/baybridge/internal/logger"
	"github.com/nicolaschan/baybridge/rpc"
	"github.com/nicolaschan/baybridge/signing"
)

// loadConfig resolves configuration from --config if given, otherwise
// falls back to the default discovery path (config/<env>.yaml etc, §6).
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Load()
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	config.SubstituteEnvVarsInConfig(cfg)
	for _, issue := range config.ValidateConfiguration(cfg) {
		if issue.Level == "error" {
			return nil, fmt.Errorf("configuration validation failed: %s - %s", issue.Field, issue.Message)
		}
	}
	return cfg, nil
}

// newLogger builds a JSON logger honoring cfg.Logging.Level. Output
// "stderr" selects stderr and any other value stdout; cfg.Logging.Format
// is not read.
func newLogger(cfg *config.Config) logger.Logger {
	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		return logger.NewLogger(os.Stderr, parseLevel(cfg.Logging.Level))
	}
	return logger.NewLogger(out, parseLevel(cfg.Logging.Level))
}

func parseLevel(s string) logger.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logger.DebugLevel
	case "warn", "warning":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// signingKeyPath is where the local principal's Ed25519 seed is kept,
// relative to cfg.BaseDir (§6).
func signingKeyPath(cfg *config.Config) string {
	return filepath.Join(cfg.BaseDir, "signing.key")
}

func loadSigningKey(cfg *config.Config) (signing.SigningKey, error) {
	if err := os.MkdirAll(cfg.BaseDir, 0o700); err != nil {
		return signing.SigningKey{}, fmt.Errorf("creating base dir: %w", err)
	}
	return signing.LoadOrGenerate(signingKeyPath(cfg))
}

// dialPeers builds an rpc.Peer for every peer URL in cfg, using
// cfg.Tasks.RPCTimeout as the per-call deadline.
func dialPeers(cfg *config.Config) []*rpc.Peer {
	peers := make([]*rpc.Peer, len(cfg.Peers))
	for i, url := range cfg.Peers {
		peers[i] = rpc.NewPeer(url, cfg.Tasks.RPCTimeout)
	}
	return peers
}

func parseTTL(ttlSeconds int64) *uint64 {
	if ttlSeconds <= 0 {
		return nil
	}
	expires := uint64(time.Now().Unix()) + uint64(ttlSeconds)
	return &expires
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/lib/config"
	"github.com/bureau-foundation/prefab/lib/prefabstore"
)

// ConfigFlags adds --config to commands that open the store. Without
// it the file named by PREFAB_CONFIG is used.
type ConfigFlags struct {
	ConfigPath string `flag:"config,c" desc:"configuration file (default: $PREFAB_CONFIG)"`
}

// load reads and validates the configuration.
func (flags *ConfigFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.ConfigPath != "" {
		cfg, err = config.LoadFile(flags.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session is what a store-backed command runs with.
type session struct {
	config *config.Config
	logger *slog.Logger
	store  *prefabstore.Store
}

// openSession loads configuration, builds the command logger, and
// opens the store. The caller closes the session.
func (flags *ConfigFlags) openSession(command string) (*session, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	logger := cli.NewCommandLogger(cfg.LogLevel(), cfg.Log.Format).With("command", command)

	compression, err := prefabstore.ParseCompression(cfg.Store.Compression)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	store, err := prefabstore.Open(prefabstore.Config{
		Path:        cfg.Store.Path,
		PoolSize:    cfg.Store.PoolSize,
		Compression: compression,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return &session{config: cfg, logger: logger, store: store}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

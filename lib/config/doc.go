// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the prefab
// tools.
//
// Configuration is loaded from a single file specified by either the
// PREFAB_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production without its own section
// logs JSON.
//
// Path fields are expanded after loading: ${HOME}, ${PREFAB_ROOT}, and
// ${VAR:-default} patterns. No other environment variables override
// config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Store, Sync, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Tolerance] -- sync tolerances for prefab instances
package config

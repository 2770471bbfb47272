// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands implements the prefab subcommands: validate and
// describe work on template definition files; push, list, show, place
// and delete work against the store named by the configuration.
package commands

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the prefab tool: a tree of
// [Command] values dispatched by name, pflag flag sets built from
// tagged parameter structs, --json output, and the command logger.
package cli

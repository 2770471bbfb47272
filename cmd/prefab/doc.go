// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Prefab is the operator CLI for prefab templates: it validates and
// builds template definitions, stores them with content-addressed
// versioning, and places instances of stored templates.
package main

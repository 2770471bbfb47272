// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefabstore persists prefab templates and instance state in
// a SQLite database.
//
// Template rows hold the CBOR [prefab.TemplateDocument], compressed
// with zstd or LZ4, together with a BLAKE3 keyed [Digest] of the
// content. Pushing a template whose digest matches the stored one is a
// no-op; any change bumps the stored version, which is what live
// instances compare against when deciding whether to update.
//
// Instance rows hold the CBOR [prefab.State] of one placed instance.
// They reference their template row and are deleted with it.
package prefabstore

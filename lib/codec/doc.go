// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR encoding configuration.
//
// Two formats are in use with a clear boundary:
//
//   - JSON for anything an operator reads or writes: template
//     definition files and CLI --json output.
//   - CBOR for internal persisted data: diff archive records, template
//     documents and instance state in the store.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes, so content digests of
// encoded templates are stable.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is only ever serialized as CBOR. Diff
//     archive records are the main example.
//   - `json` tag: this type may be serialized as both JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor` tags
//     are absent, so a single `json` tag controls field naming and
//     omitempty for both formats. Object documents and instance state
//     use this form because the CLI prints them.
//
// Never use both `cbor` and `json` tags on the same field.
package codec

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package diffarchive records how objects differ from a baseline and
// replays those differences onto fresh copies.
//
// A [Writer] compares each object with its baseline (normally the
// archetype it was constructed from) and records only what differs:
// changed or added properties, removed properties, the transform of an
// actor when it moved, and per-component deltas. [Writer.Finish]
// produces a [Buffer]. A [Reader] built from that buffer replays the
// recorded fields onto a target; anything not recorded keeps the value
// the target already has.
//
// The two modes are separate types, so an archive cannot switch
// between reading and writing mid-stream.
//
// Names (property names and name-typed values) are interned in a
// per-buffer table and stored as indices, so replay does not depend on
// any naming state of the process that wrote the buffer. References are
// stored as indices into the buffer's referenced-object table and
// resolved by the caller at replay time. [NewReader] validates every
// index up front; an index outside its table is [ErrCorruptArchive].
//
// Record bytes are deterministic CBOR (lib/codec).
package diffarchive

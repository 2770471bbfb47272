// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall-clock for testability.
//
// Production code accepts a Clock instead of calling time.Now
// directly. In production, Real() provides the standard library
// behavior. In tests, Fake() provides a clock that moves only when
// Advance or Set is called, so stored timestamps are exact:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	store, err := prefabstore.Open(prefabstore.Config{Path: path, Clock: c})
//	// ... push a template ...
//	c.Advance(time.Minute)
//	// ... push again; updated_at moved by exactly one minute ...
package clock

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the source of wall-clock time. Production code injects
// Real(); tests inject Fake() and move time explicitly.
//
// Code that stamps persisted records (template push times, instance
// save times) takes a Clock instead of calling time.Now directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Since returns the time elapsed on clock since start.
func Since(clock Clock, start time.Time) time.Duration {
	return clock.Now().Sub(start)
}

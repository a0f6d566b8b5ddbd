// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The archive pool stamps every job with start and finish times, and
// source.Delayed waits out its simulated latency through a Clock.
// Production code uses Real(). Tests use Fake(), which moves only when
// Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { c.Sleep(ctx, time.Second) }()
//	c.BlockUntilSleepers(1)
//	c.Advance(time.Second)
package clock

// Package poller runs the periodic query cycle of a monitoring session.
//
// A [Scheduler] dispatches one query per [Target] immediately on start
// (tick 0) and then on every tick of its interval. Each query runs in its
// own goroutine, bounded by a concurrency limit, and its [Result] is emitted
// on the results channel as soon as it completes. The tick loop never waits
// for the queries of a previous tick, so a slow response may be delivered
// after a later tick has started.
//
// Stopping a scheduler stops the ticker only. Queries already dispatched run
// to completion and are still delivered; the results channel is closed once
// the last of them has been emitted.
//
// Users of the slotwatch library should not need to interact with this
// package directly. Configuration is done through the slotwatch package.
package poller

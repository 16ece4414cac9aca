// Package store holds the accumulated match list of a monitoring session.
//
// The list is append-only while a session runs and is cleared only when a
// new session starts. Changes are published to subscribers so live viewers
// (the local dashboard's Server-Sent Events stream) see matches as they are
// appended.
//
// The main components are:
//
//   - [Store]: Interface defining append, snapshot and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Match]: Storage representation of a matched appointment session
//   - [Event]: Change notification delivered to subscribers
//
// Subscribers receive events via buffered channels with non-blocking sends;
// slow subscribers miss events rather than block the monitor.
package store

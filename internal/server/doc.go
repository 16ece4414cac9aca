// Package server provides the local HTTP dashboard of a monitoring session.
//
// It serves three kinds of content:
//
//   - Dashboard: the embedded HTML page at "/"
//   - REST API: "/api/matches" for the accumulated matches and "/api/session"
//     for the session snapshot
//   - Server-Sent Events: live match and reset events at "/api/sse"
//
// The server binds to 127.0.0.1 only and shuts down gracefully, with a
// 5-second timeout, when its context is cancelled.
package server

// Package dashboard provides the embedded web UI of the local slot
// dashboard.
//
// The page is compiled into the binary and served by the server package at
// "/". It renders the match list from /api/matches and follows live changes
// over /api/sse.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS

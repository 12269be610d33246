// Package dashboard provides the embedded web UI assets.
//
// The dashboard HTML, CSS and JavaScript are embedded at compile time so the
// updater ships as a single binary. The page shows the latest outcome of each
// hostname, a live log of recent outcomes, and Start and Stop buttons.
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

package ui

import "embed"

// Dist embeds the static landing page served at the gateway root. The page is
// plain checked-in HTML, there is no frontend build step.
//
//go:embed all:dist
var Dist embed.FS

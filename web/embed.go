package web

import "embed"

// Dist embeds the production single-page bundle. The build pipeline
// replaces dist/ with the output of `vite build`.
//
//go:embed all:dist
var Dist embed.FS

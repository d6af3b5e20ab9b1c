package ui

import "embed"

//go:embed templates/layout/*.html templates/pages/*.html templates/dashboard/*.html templates/status/*.html static
var embeddedFiles embed.FS

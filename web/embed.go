// Package web embeds the dashboard page templates and the fallback static
// assets (placeholder images).
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

//go:embed templates/*.html
var templatesFS embed.FS

// Static returns the embedded static assets rooted at static/, so files are
// accessed as "images/placeholder_module.png".
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

// Templates returns the embedded page templates rooted at templates/.
func Templates() (fs.FS, error) {
	return fs.Sub(templatesFS, "templates")
}

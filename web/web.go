package web

import "embed"

// Templates holds the embedded web/templates directory: the markdown document body,
// the printable HTML shell and the plain-text share message.
// Renderers access it via fs.Sub(Templates, "templates").
//
//go:embed templates
var Templates embed.FS

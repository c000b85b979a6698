// Package webui serves the developer-facing debug pages. Nothing here is
// exposed in production.
package webui

import (
	"net/http"

	"railwatch.transitlabs.org/internal/app"
)

// WebUI bundles the application with its HTML surface.
type WebUI struct {
	*app.Application
}

// New creates the web UI over the given application.
func New(application *app.Application) *WebUI {
	return &WebUI{Application: application}
}

// SetRoutes registers the debug endpoints on mux.
func (webUI *WebUI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}

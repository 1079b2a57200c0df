package web

import (
	"net/http"
)

// RegisterAPIV1 registers the public API routes under /api/v1/.
func RegisterAPIV1(mux *http.ServeMux, ctrl Controller) {
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", apiV1Router(ctrl)))
}

// RegisterUI serves either embedded UI assets or a directory.
func RegisterUI(mux *http.ServeMux, staticDir string) {
	mux.Handle("/", StaticUIHandler(staticDir))
}

// NewDefaultMux builds the standard mux used by both the device and simulator:
// - /api/v1/* for the API
// - / for the web UI
func NewDefaultMux(staticDir string, ctrl Controller) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterAPIV1(mux, ctrl)
	RegisterUI(mux, staticDir)
	return mux
}

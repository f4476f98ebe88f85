package api

import (
	"embed"
	"io/fs"
	"net/http"
	"net/url"
)

//go:embed ui/*
var embeddedUI embed.FS

func uiHandler() http.Handler {
	sub, err := fs.Sub(embeddedUI, "ui")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}

// serveStatusPage serves the embedded status page at "/" and its assets.
// Every other unmatched path is a JSON 404.
func (s *Server) serveStatusPage(w http.ResponseWriter, r *http.Request, handler http.Handler) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, "GET, HEAD")
		return
	}
	switch r.URL.Path {
	case "/", "/index.html":
		w.Header().Set("Cache-Control", "no-store")
		handler.ServeHTTP(w, cloneRequestWithPath(r, "/"))
	case "/app.js", "/style.css":
		handler.ServeHTTP(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func cloneRequestWithPath(r *http.Request, path string) *http.Request {
	cp := r.Clone(r.Context())
	cp.URL = &url.URL{
		Path:     path,
		RawQuery: r.URL.RawQuery,
	}
	return cp
}

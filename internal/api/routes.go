package api

import "net/http"

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	ui := uiHandler()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { s.serveStatusPage(w, r, ui) })
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/events", s.handleEvents)
	return s.recoverer(mux)
}

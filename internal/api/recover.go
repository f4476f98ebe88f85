package api

import (
	"fmt"
	"net/http"
)

// recoverer turns a panicking handler into a 500 response so one bad
// delivery cannot take the process down.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := fmt.Errorf("panic: %v", rec)
			s.logger.Error(err, "handler panicked", "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusInternalServerError, err.Error())
		}()
		next.ServeHTTP(w, r)
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestIDHeader carries the request ID back to the caller.
const requestIDHeader = "X-Request-ID"

// echoRequestID copies the ID assigned by middleware.RequestID onto the
// response.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(requestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog records every request at debug, or at warn for 5xx responses.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("http request failed", attrs...)
			return
		}
		s.logger.Debug("http request", attrs...)
	})
}

// recoverPanics turns a handler panic into a JSON 500. http.ErrAbortHandler
// is re-raised.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
				panic(rec)
			}
			s.logger.Error("panic in HTTP handler",
				"panic", rec,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
			)
			writeInternalError(w, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

package policy

import (
	"bytes"
	"net/http"
)

// captureWriter relays a backend response to the client and keeps a copy
// of it for the cache. Every write reaches the client before it is buffered.
type captureWriter struct {
	http.ResponseWriter

	wroteHeader bool
	status      int
	header      http.Header
	body        bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{ResponseWriter: w}
}

// WriteHeader snapshots the final status and headers once, then forwards them.
// Informational (1xx) responses are forwarded without being captured.
func (w *captureWriter) WriteHeader(code int) {
	if !w.wroteHeader && code >= http.StatusOK {
		w.wroteHeader = true
		w.status = code
		w.header = w.ResponseWriter.Header().Clone()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(p)
	w.body.Write(p)
	return n, err
}

// Flush forwards buffered data to the client if the underlying writer supports it.
func (w *captureWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying writer for http.ResponseController.
func (w *captureWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// result returns the captured response. A handler that wrote nothing
// produced an implicit empty 200.
func (w *captureWriter) result() (int, http.Header, []byte) {
	if !w.wroteHeader {
		return http.StatusOK, w.ResponseWriter.Header().Clone(), nil
	}
	return w.status, w.header, w.body.Bytes()
}

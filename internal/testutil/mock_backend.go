// Package testutil provides testing utilities for the cache policy.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock backend response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBackend is a configurable upstream for testing. It can be used as an
// http.Handler directly or served over HTTP with Start.
type MockBackend struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount  int
	lastHeader    http.Header
	lastRawQuery  string
	lastMethod    string
	pathRequested map[string]int
}

// NewMockBackend creates a mock backend with a default 200 handler.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		handlers:      make(map[string]http.HandlerFunc),
		pathRequested: make(map[string]int),
	}
}

// Start serves the backend on a local httptest server.
func (m *MockBackend) Start() *MockBackend {
	m.server = httptest.NewServer(m)
	return m
}

// URL returns the mock server URL. Start must have been called.
func (m *MockBackend) URL() string {
	return m.server.URL
}

// Close shuts down the mock server if it was started.
func (m *MockBackend) Close() {
	if m.server != nil {
		m.server.Close()
	}
}

// ServeHTTP implements http.Handler.
func (m *MockBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.pathRequested[r.URL.Path]++
	m.lastHeader = r.Header.Clone()
	m.lastRawQuery = r.URL.RawQuery
	m.lastMethod = r.Method
	handler, exists := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if exists {
		handler(w, r)
		return
	}

	m.defaultHandler(w, r)
}

// Reset clears all tracking counters.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.lastHeader = nil
	m.lastRawQuery = ""
	m.lastMethod = ""
	m.pathRequested = make(map[string]int)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockBackend) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockBackend) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" && r.Method != http.MethodHead {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests received.
func (m *MockBackend) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests received for path.
func (m *MockBackend) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathRequested[path]
}

// LastHeader returns the headers of the last request.
func (m *MockBackend) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// LastRawQuery returns the raw query of the last request.
func (m *MockBackend) LastRawQuery() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRawQuery
}

// LastMethod returns the method of the last request.
func (m *MockBackend) LastMethod() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastMethod
}

// defaultHandler answers with a small JSON document.
func (m *MockBackend) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write([]byte(`{"status": "ok"}`))
	}
}

// NewOKResponse creates a 200 OK JSON response.
func NewOKResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewCacheControlResponse creates a 200 OK response carrying freshness headers.
func NewCacheControlResponse(data, cacheControl string) MockResponse {
	resp := NewOKResponse(data)
	resp.Headers["Cache-Control"] = cacheControl
	resp.Headers["Expires"] = time.Now().Add(5 * time.Minute).Format(http.TimeFormat)
	return resp
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewStreamingHandler writes each chunk separately and flushes after each one.
func NewStreamingHandler(chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		for _, chunk := range chunks {
			w.Write([]byte(chunk))
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

// NewPanicHandler writes a partial body and then aborts the response.
func NewPanicHandler(partial string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(partial))
		panic(http.ErrAbortHandler)
	}
}

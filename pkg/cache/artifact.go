package cache

import (
	"net/http"
	"time"
)

// Artifact is a cached HTTP response.
type Artifact struct {
	// Status is the HTTP status code of the cached response
	Status int `json:"status"`

	// Method is the request method that produced the response
	Method string `json:"method"`

	// Header are the response headers as seen by the client
	Header http.Header `json:"header"`

	// Body is the raw response body
	Body []byte `json:"body"`

	// TTL is the resolved time-to-live in seconds
	TTL int64 `json:"ttl"`

	// CachedAt is when the response was captured
	CachedAt time.Time `json:"cached_at"`
}

// Expires returns when the artifact becomes stale.
func (a *Artifact) Expires() time.Time {
	return a.CachedAt.Add(time.Duration(a.TTL) * time.Second)
}

// IsExpired returns true if the artifact has outlived its TTL at now.
// Readers check it on top of store eviction.
func (a *Artifact) IsExpired(now time.Time) bool {
	return !now.Before(a.Expires())
}

// Serves reports whether the artifact can answer a request with the given
// method. HEAD requests can be answered from a GET response.
func (a *Artifact) Serves(method string) bool {
	stored := a.Method
	if stored == "" {
		stored = http.MethodGet
	}
	if stored == method {
		return true
	}
	return method == http.MethodHead && stored == http.MethodGet
}

package cache

import (
	"fmt"
	"net/http"
	"time"
)

// NewArtifact builds an artifact from a captured response.
// Only 2xx responses can be cached.
func NewArtifact(method string, status int, header http.Header, body []byte, ttl int64) (*Artifact, error) {
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d is not cacheable", ErrInvalidArtifact, status)
	}

	data := make([]byte, len(body))
	copy(data, body)

	return &Artifact{
		Status:   status,
		Method:   method,
		Header:   header.Clone(),
		Body:     data,
		TTL:      ttl,
		CachedAt: time.Now(),
	}, nil
}

// WriteTo replays the artifact to a client.
// The body is omitted for HEAD requests.
func (a *Artifact) WriteTo(w http.ResponseWriter, method string) error {
	if a == nil {
		return fmt.Errorf("artifact cannot be nil")
	}

	dst := w.Header()
	for key, values := range a.Header {
		dst[key] = append([]string(nil), values...)
	}

	w.WriteHeader(a.Status)

	if method == http.MethodHead || len(a.Body) == 0 {
		return nil
	}
	if _, err := w.Write(a.Body); err != nil {
		return fmt.Errorf("write cached body: %w", err)
	}
	return nil
}
